package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/backend"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/catalog"
)

// User-visible workflow error messages. Each workflow's failures stay
// inside that workflow; these strings are what the UI shows inline.
const (
	msgCatalogFailed    = "failed to load products — verify the backend is reachable"
	msgSearchFailed     = "smart search failed — please try a different query"
	msgChatUnreachable  = "could not reach the shopping assistant — your message was not answered"
	msgChatAIFailed     = "AI service error — the assistant could not respond"
	msgSummaryTransport = "could not fetch the review summary — verify the backend is reachable"
	msgSummaryAIFailed  = "AI service error — review summary unavailable"

	// Shown when the assistant answers 2xx but with an empty reply.
	fallbackReply = "Sorry, I could not come up with a reply. Please try again."
)

// Backend is the slice of the HTTP client the session depends on.
type Backend interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	Search(ctx context.Context, query string) (backend.SearchResponse, error)
	GetReviewSummary(ctx context.Context, productID int) (backend.ReviewSummary, error)
	Chat(ctx context.Context, message string, history []backend.ChatMessage) (string, error)
}

// Journal records transcript entries and workflow outcomes. Optional;
// journal failures are logged and never surface as workflow errors.
type Journal interface {
	AppendMessage(role, content string) error
	RecordRequest(workflow, status, detail string, took time.Duration) error
}

// Session owns all mutable application state for one run of the client
// and coordinates the four concurrent workflows against the backend.
//
// Every trigger method mutates state synchronously, then spawns one
// goroutine that performs the network call and commits its result.
// Commits are guarded by a per-workflow monotonically increasing request
// token: a response that arrives after a newer request was issued (or
// after a reset/selection change) is discarded instead of overwriting
// newer state.
type Session struct {
	backend Backend
	journal Journal
	logger  *slog.Logger

	mu     sync.Mutex
	state  State
	seq    map[Workflow]uint64
	change chan struct{}
}

// New creates a Session over the given backend. journal may be nil.
func New(b Backend, journal Journal) *Session {
	return &Session{
		backend: b,
		journal: journal,
		logger:  slog.Default(),
		seq:     make(map[Workflow]uint64),
		change:  make(chan struct{}),
	}
}

// Snapshot returns a copy of the current state. Slices inside the
// snapshot are safe to read: committed values are replaced wholesale,
// never mutated in place.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Changed returns a channel that is closed on the next state change.
func (s *Session) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.change
}

// Wait blocks until the given workflow's latest request settles. A
// workflow that was never triggered is idle and returns immediately.
func (s *Session) Wait(ctx context.Context, w Workflow) error {
	for {
		s.mu.Lock()
		status := s.statusOf(w)
		ch := s.change
		s.mu.Unlock()

		if status.Settled() || status == StatusIdle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// LoadCatalog fetches the product catalog. It is issued once at startup
// and never re-triggered by any other workflow. On failure the existing
// product set (empty on first load) is left untouched.
func (s *Session) LoadCatalog(ctx context.Context) {
	s.mu.Lock()
	token := s.next(WorkflowCatalog)
	s.state.Catalog.Status = StatusPending
	s.state.Catalog.Err = ""
	s.changedLocked()
	s.mu.Unlock()

	go func() {
		start := time.Now()
		products, err := s.backend.ListProducts(ctx)
		s.record(WorkflowCatalog, err, time.Since(start))

		s.mu.Lock()
		defer s.mu.Unlock()
		if token != s.seq[WorkflowCatalog] {
			return
		}
		if err != nil {
			s.logger.Warn("catalog load failed", "error", err)
			s.state.Catalog.Status = StatusError
			s.state.Catalog.Err = msgCatalogFailed
		} else {
			s.state.Catalog.Status = StatusOK
			s.state.Catalog.Err = ""
			s.state.Catalog.Products = products
		}
		s.changedLocked()
	}()
}

// RunSearch runs a smart search. An empty query after trimming is a
// silent no-op; the method reports whether a request was dispatched.
func (s *Session) RunSearch(ctx context.Context, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}

	s.mu.Lock()
	token := s.next(WorkflowSearch)
	s.state.Search = SearchState{
		Status: StatusPending,
		Query:  query,
	}
	s.changedLocked()
	s.mu.Unlock()

	go func() {
		start := time.Now()
		sr, err := s.backend.Search(ctx, query)
		s.record(WorkflowSearch, err, time.Since(start))

		s.mu.Lock()
		defer s.mu.Unlock()
		if token != s.seq[WorkflowSearch] {
			s.logger.Debug("discarding stale search response", "query", query)
			return
		}
		if err != nil {
			s.logger.Warn("search failed", "query", query, "error", err)
			s.state.Search = SearchState{
				Status: StatusError,
				Err:    msgSearchFailed,
				Query:  query,
			}
		} else {
			results := sr.Results
			if results == nil {
				results = []catalog.Product{}
			}
			s.state.Search = SearchState{
				Status:      StatusOK,
				Query:       query,
				Results:     results,
				Explanation: sr.Explanation,
			}
		}
		s.changedLocked()
	}()
	return true
}

// ResetSearch unconditionally clears all search state, returning display
// authority to the catalog. An in-flight search is implicitly abandoned:
// its response will carry a stale token and be discarded.
func (s *Session) ResetSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next(WorkflowSearch)
	s.state.Search = SearchState{}
	s.changedLocked()
}

// SendMessage sends one user turn to the shopping assistant. The user's
// entry is appended to the transcript synchronously, before the network
// call, so it is visible regardless of latency. Empty input is a silent
// no-op, as is sending while a previous turn is still pending.
func (s *Session) SendMessage(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.mu.Lock()
	if s.state.Chat.Status == StatusPending {
		s.mu.Unlock()
		return false
	}
	token := s.next(WorkflowChat)
	history := append([]backend.ChatMessage(nil), s.state.Chat.Transcript...)
	s.state.Chat.Transcript = append(s.state.Chat.Transcript, backend.ChatMessage{
		Role:    backend.RoleUser,
		Content: text,
	})
	s.state.Chat.Status = StatusPending
	s.state.Chat.Err = ""
	s.changedLocked()
	s.mu.Unlock()

	s.journalMessage(backend.RoleUser, text)

	go func() {
		start := time.Now()
		reply, err := s.backend.Chat(ctx, text, history)
		s.record(WorkflowChat, err, time.Since(start))

		s.mu.Lock()
		if token != s.seq[WorkflowChat] {
			s.mu.Unlock()
			return
		}
		if err != nil {
			s.logger.Warn("chat turn failed", "error", err)
			s.state.Chat.Status = StatusError
			if backend.IsAIServiceError(err) {
				s.state.Chat.Err = msgChatAIFailed
			} else {
				s.state.Chat.Err = msgChatUnreachable
			}
			s.changedLocked()
			s.mu.Unlock()
			return
		}
		if reply == "" {
			reply = fallbackReply
		}
		s.state.Chat.Status = StatusOK
		s.state.Chat.Err = ""
		s.state.Chat.Transcript = append(s.state.Chat.Transcript, backend.ChatMessage{
			Role:    backend.RoleAssistant,
			Content: reply,
		})
		s.changedLocked()
		s.mu.Unlock()

		s.journalMessage(backend.RoleAssistant, reply)
	}()
	return true
}

// OpenProduct opens the product with the given id in detail view,
// reusing the object already held in the active list (falling back to
// the catalog). Opening a product while another is open replaces the
// selection; either way any prior summary state is discarded and an
// in-flight summary request is abandoned. Reports whether the product
// was found.
func (s *Session) OpenProduct(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := findProduct(s.state.ActiveList(), id)
	if !ok {
		p, ok = findProduct(s.state.Catalog.Products, id)
	}
	if !ok {
		return false
	}

	s.next(WorkflowSummary)
	s.state.Selected = Selection{Open: true, Product: p}
	s.state.Summary = SummaryState{}
	s.changedLocked()
	return true
}

// CloseProduct closes the detail view and resets the summary workflow
// to idle, discarding any summary or error.
func (s *Session) CloseProduct() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next(WorkflowSummary)
	s.state.Selected = Selection{}
	s.state.Summary = SummaryState{}
	s.changedLocked()
}

// GenerateSummary requests the AI review summary for the currently
// selected product. A no-op when no product is open. Re-invocation
// while a request is pending simply issues a new request; the older
// response is discarded on arrival.
func (s *Session) GenerateSummary(ctx context.Context) bool {
	s.mu.Lock()
	if !s.state.Selected.Open {
		s.mu.Unlock()
		return false
	}
	productID := s.state.Selected.Product.ID
	token := s.next(WorkflowSummary)
	s.state.Summary = SummaryState{Status: StatusPending}
	s.changedLocked()
	s.mu.Unlock()

	go func() {
		start := time.Now()
		sum, err := s.backend.GetReviewSummary(ctx, productID)
		s.record(WorkflowSummary, err, time.Since(start))

		s.mu.Lock()
		defer s.mu.Unlock()
		if token != s.seq[WorkflowSummary] {
			s.logger.Debug("discarding stale summary response", "product_id", productID)
			return
		}
		if err != nil {
			s.logger.Warn("summary generation failed", "product_id", productID, "error", err)
			msg := msgSummaryTransport
			if backend.IsAIServiceError(err) {
				msg = msgSummaryAIFailed
			}
			s.state.Summary = SummaryState{Status: StatusError, Err: msg}
		} else {
			s.state.Summary = SummaryState{Status: StatusOK, Summary: sum}
		}
		s.changedLocked()
	}()
	return true
}

// next bumps and returns the request token for a workflow.
// Callers must hold s.mu.
func (s *Session) next(w Workflow) uint64 {
	s.seq[w]++
	return s.seq[w]
}

// statusOf returns the current status of a workflow. Callers must hold s.mu.
func (s *Session) statusOf(w Workflow) Status {
	switch w {
	case WorkflowCatalog:
		return s.state.Catalog.Status
	case WorkflowSearch:
		return s.state.Search.Status
	case WorkflowChat:
		return s.state.Chat.Status
	case WorkflowSummary:
		return s.state.Summary.Status
	default:
		return StatusIdle
	}
}

// changedLocked broadcasts a state change. Callers must hold s.mu.
func (s *Session) changedLocked() {
	close(s.change)
	s.change = make(chan struct{})
}

func (s *Session) record(w Workflow, err error, took time.Duration) {
	if s.journal == nil {
		return
	}
	status, detail := "ok", ""
	if err != nil {
		status, detail = "error", err.Error()
	}
	if jerr := s.journal.RecordRequest(string(w), status, detail, took); jerr != nil {
		s.logger.Warn("journal write failed", "workflow", w, "error", jerr)
	}
}

func (s *Session) journalMessage(role, content string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.AppendMessage(role, content); err != nil {
		s.logger.Warn("journal write failed", "role", role, "error", err)
	}
}

func findProduct(products []catalog.Product, id int) (catalog.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}
