package session

import (
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/backend"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/catalog"
)

// Status is the lifecycle of a single workflow's most recent request.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusOK
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Settled reports whether the workflow's latest request has completed.
func (s Status) Settled() bool {
	return s == StatusOK || s == StatusError
}

// Workflow names the four asynchronous operations a session runs.
type Workflow string

const (
	WorkflowCatalog Workflow = "catalog"
	WorkflowSearch  Workflow = "search"
	WorkflowChat    Workflow = "chat"
	WorkflowSummary Workflow = "summary"
)

// CatalogState holds the base product list. The list is replaced
// wholesale on every successful fetch, never merged.
type CatalogState struct {
	Status   Status
	Err      string
	Products []catalog.Product
}

// SearchState holds the outcome of the most recent smart search.
// It exists only while a search is active; ResetSearch clears it.
type SearchState struct {
	Status      Status
	Err         string
	Query       string
	Results     []catalog.Product
	Explanation string
}

// Active reports whether search currently claims display authority:
// any of non-empty results, non-empty explanation, or an active error.
func (s SearchState) Active() bool {
	return len(s.Results) > 0 || s.Explanation != "" || s.Status == StatusError
}

// ChatState holds the session transcript. The transcript is append-only:
// entries are never edited, reordered, or removed.
type ChatState struct {
	Status     Status
	Err        string
	Transcript []backend.ChatMessage
}

// SummaryState holds the AI review summary for the currently selected
// product. It is discarded whenever the selection changes.
type SummaryState struct {
	Status  Status
	Err     string
	Summary backend.ReviewSummary
}

// Selection tracks which product, if any, is open in detail view.
type Selection struct {
	Open    bool
	Product catalog.Product
}

// State is the whole session state. Each workflow owns a disjoint
// sub-struct; nothing here is shared for mutation across workflows.
type State struct {
	Catalog  CatalogState
	Search   SearchState
	Chat     ChatState
	Summary  SummaryState
	Selected Selection
}

// ActiveList derives which product list is authoritative for display.
// It is a pure function of search state, recomputed on every call and
// never cached. A search that settled with zero results, no explanation
// and no error intentionally falls back to the catalog.
func (s State) ActiveList() []catalog.Product {
	if s.Search.Active() {
		return s.Search.Results
	}
	return s.Catalog.Products
}
