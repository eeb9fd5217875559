package storage

import (
	"time"
)

// Message is one journaled chat transcript entry.
type Message struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Request is the journaled outcome of one workflow request.
type Request struct {
	ID        string
	Workflow  string
	Status    string // "ok" or "error"
	Detail    string
	Duration  time.Duration
	CreatedAt time.Time
}
