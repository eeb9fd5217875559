package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/catalog"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
}

// Client communicates with the SmartShop backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client targeting the given backend base URL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend not reachable — is SmartShop running? (%w)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(detail))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// ListProducts fetches the full product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.get(ctx, "/api/products/", &products); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id int) (catalog.Product, error) {
	var p catalog.Product
	if err := c.get(ctx, fmt.Sprintf("/api/products/%d/", id), &p); err != nil {
		return catalog.Product{}, fmt.Errorf("fetching product %d: %w", id, err)
	}
	return p, nil
}

// SearchResponse mirrors the smart search endpoint payload.
type SearchResponse struct {
	Query       string            `json:"query"`
	Count       int               `json:"count"`
	Results     []catalog.Product `json:"results"`
	Explanation string            `json:"explanation"`
}

// Search runs a natural-language query against the smart search endpoint.
func (c *Client) Search(ctx context.Context, query string) (SearchResponse, error) {
	var sr SearchResponse
	path := "/api/search/?q=" + url.QueryEscape(query)
	if err := c.get(ctx, path, &sr); err != nil {
		return SearchResponse{}, fmt.Errorf("searching %q: %w", query, err)
	}
	return sr, nil
}

// ReviewSummary is the structured AI digest of a product's reviews.
type ReviewSummary struct {
	ProductID   int      `json:"product_id"`
	ProductName string   `json:"product_name"`
	ReviewCount int      `json:"review_count"`
	Summary     string   `json:"summary"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
	Sentiment   string   `json:"sentiment"`
	Message     string   `json:"message,omitempty"`
}

// rawReviewSummary tolerates malformed field shapes: the AI side of the
// backend has been seen returning null summaries and non-array pros/cons.
type rawReviewSummary struct {
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	ReviewCount int             `json:"review_count"`
	Summary     json.RawMessage `json:"summary"`
	Pros        json.RawMessage `json:"pros"`
	Cons        json.RawMessage `json:"cons"`
	Sentiment   json.RawMessage `json:"sentiment"`
	Message     string          `json:"message"`
}

// GetReviewSummary fetches the AI review summary for a product.
// Missing or malformed fields are normalized to empty defaults rather
// than failing the whole call — partial data beats no data.
func (c *Client) GetReviewSummary(ctx context.Context, productID int) (ReviewSummary, error) {
	var raw rawReviewSummary
	path := fmt.Sprintf("/api/products/%d/review-summary/", productID)
	if err := c.get(ctx, path, &raw); err != nil {
		return ReviewSummary{}, fmt.Errorf("fetching review summary for product %d: %w", productID, err)
	}

	return ReviewSummary{
		ProductID:   raw.ProductID,
		ProductName: raw.ProductName,
		ReviewCount: raw.ReviewCount,
		Summary:     optionalString(raw.Summary),
		Pros:        stringList(raw.Pros),
		Cons:        stringList(raw.Cons),
		Sentiment:   optionalString(raw.Sentiment),
		Message:     raw.Message,
	}, nil
}

// ChatMessage is one transcript entry in the backend's wire format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type chatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat sends one user turn (plus the transcript so far) to the shopping
// assistant and returns its reply.
func (c *Client) Chat(ctx context.Context, message string, history []ChatMessage) (string, error) {
	if history == nil {
		history = []ChatMessage{}
	}
	var cr chatResponse
	if err := c.post(ctx, "/api/assistant/chat/", chatRequest{Message: message, History: history}, &cr); err != nil {
		return "", fmt.Errorf("chat turn: %w", err)
	}
	return cr.Reply, nil
}

// Recommendations is the payload of the recommendations endpoint.
type Recommendations struct {
	BaseProduct     catalog.Product   `json:"base_product"`
	Recommendations []catalog.Product `json:"recommendations"`
	AIMessage       string            `json:"ai_message"`
}

// GetRecommendations fetches products related to the given one, with an
// AI explanation of why they fit.
func (c *Client) GetRecommendations(ctx context.Context, productID int) (Recommendations, error) {
	var recs Recommendations
	path := fmt.Sprintf("/api/recommendations/?product_id=%d", productID)
	if err := c.get(ctx, path, &recs); err != nil {
		return Recommendations{}, fmt.Errorf("fetching recommendations for product %d: %w", productID, err)
	}
	return recs, nil
}

// IsAIServiceError reports whether err is a backend response indicating
// the AI service itself failed (as opposed to a transport problem).
func IsAIServiceError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusBadGateway || se.StatusCode == http.StatusInternalServerError
}

func optionalString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func stringList(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		return []string{}
	}
	return list
}
