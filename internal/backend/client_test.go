package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"detail":"not found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *Client {
	return New(ts.server.URL, 5*time.Second)
}

var ctx = context.Background()

func TestListProducts(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/products/": `[{"id":1,"name":"Widget","price":"9.99","description":"a widget","reviews":[{"id":1,"rating":4,"comment":"ok"}]}]`,
	})

	products, err := ts.client().ListProducts(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	p := products[0]
	if p.Name != "Widget" {
		t.Errorf("name = %q, want Widget", p.Name)
	}
	if float64(p.Price) != 9.99 {
		t.Errorf("price = %f, want 9.99", float64(p.Price))
	}
	if len(p.Reviews) != 1 || p.Reviews[0].Rating != 4 {
		t.Errorf("reviews = %+v, want one rating-4 review", p.Reviews)
	}
}

func TestListProducts_ServerDown(t *testing.T) {
	ts := newTestServer(t, nil)
	client := ts.client()
	ts.server.Close()

	_, err := client.ListProducts(ctx)
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestSearch_EncodesQuery(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/search/": `{"query":"cheap & cheerful","count":0,"results":[],"explanation":"No matches"}`,
	})

	sr, err := ts.client().Search(ctx, "cheap & cheerful")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	path := ts.requests[0].Path
	if strings.Contains(path, "& cheerful") {
		t.Errorf("query not URL-encoded: %q", path)
	}
	if !strings.Contains(path, "q=cheap+%26+cheerful") {
		t.Errorf("unexpected encoded path: %q", path)
	}

	if len(sr.Results) != 0 {
		t.Errorf("results = %v, want empty", sr.Results)
	}
	if sr.Explanation != "No matches" {
		t.Errorf("explanation = %q, want 'No matches'", sr.Explanation)
	}
}

func TestGetReviewSummary(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/products/3/review-summary/": `{"product_id":3,"product_name":"Widget","review_count":2,"summary":"Solid overall","pros":["durable","cheap"],"cons":["loud"],"sentiment":"positive"}`,
	})

	sum, err := ts.client().GetReviewSummary(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Summary != "Solid overall" {
		t.Errorf("summary = %q", sum.Summary)
	}
	if len(sum.Pros) != 2 || sum.Pros[0] != "durable" {
		t.Errorf("pros = %v", sum.Pros)
	}
	if len(sum.Cons) != 1 || sum.Cons[0] != "loud" {
		t.Errorf("cons = %v", sum.Cons)
	}
	if sum.Sentiment != "positive" {
		t.Errorf("sentiment = %q", sum.Sentiment)
	}
}

func TestGetReviewSummary_MalformedFields(t *testing.T) {
	// null summary and a non-array pros must normalize, not fail.
	ts := newTestServer(t, map[string]string{
		"GET /api/products/7/review-summary/": `{"product_id":7,"review_count":1,"summary":null,"pros":"not-an-array","cons":null,"sentiment":null}`,
	})

	sum, err := ts.client().GetReviewSummary(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Summary != "" {
		t.Errorf("summary = %q, want empty", sum.Summary)
	}
	if sum.Pros == nil || len(sum.Pros) != 0 {
		t.Errorf("pros = %#v, want empty non-nil slice", sum.Pros)
	}
	if sum.Cons == nil || len(sum.Cons) != 0 {
		t.Errorf("cons = %#v, want empty non-nil slice", sum.Cons)
	}
	if sum.Sentiment != "" {
		t.Errorf("sentiment = %q, want empty", sum.Sentiment)
	}
}

func TestChat_SendsMessageAndHistory(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/assistant/chat/": `{"reply":"We have two kinds of widgets."}`,
	})

	history := []ChatMessage{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}
	reply, err := ts.client().Chat(ctx, "what widgets do you sell?", history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "We have two kinds of widgets." {
		t.Errorf("reply = %q", reply)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	var body struct {
		Message string        `json:"message"`
		History []ChatMessage `json:"history"`
	}
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body.Message != "what widgets do you sell?" {
		t.Errorf("message = %q", body.Message)
	}
	if len(body.History) != 2 {
		t.Errorf("history length = %d, want 2", len(body.History))
	}
}

func TestChat_NilHistoryMarshalsAsEmptyArray(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/assistant/chat/": `{"reply":"ok"}`,
	})

	if _, err := ts.client().Chat(ctx, "hello", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(ts.requests[0].Body, `"history":[]`) {
		t.Errorf("body = %q, want history as []", ts.requests[0].Body)
	}
}

func TestStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(502)
		w.Write([]byte(`{"error":"AI error: upstream overloaded"}`))
	}))
	defer ts.Close()

	client := New(ts.URL, 5*time.Second)
	_, err := client.Chat(ctx, "hello", nil)
	if err == nil {
		t.Fatal("expected error for 502 response")
	}

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.StatusCode != 502 {
		t.Errorf("status = %d, want 502", se.StatusCode)
	}
	if !IsAIServiceError(err) {
		t.Error("expected IsAIServiceError to be true for 502")
	}
}

func TestIsAIServiceError_NotForClientErrors(t *testing.T) {
	err := error(&StatusError{StatusCode: 404})
	if IsAIServiceError(err) {
		t.Error("404 should not count as an AI service error")
	}
	if IsAIServiceError(errors.New("plain")) {
		t.Error("plain errors should not count as AI service errors")
	}
}

func TestGetRecommendations(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/recommendations/": `{"base_product":{"id":1,"name":"Widget","price":9.99},"recommendations":[{"id":2,"name":"Gadget","price":19.99}],"ai_message":"Customers who liked Widget also bought Gadget."}`,
	})

	recs, err := ts.client().GetRecommendations(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs.BaseProduct.Name != "Widget" {
		t.Errorf("base product = %q", recs.BaseProduct.Name)
	}
	if len(recs.Recommendations) != 1 || recs.Recommendations[0].Name != "Gadget" {
		t.Errorf("recommendations = %+v", recs.Recommendations)
	}
	if !strings.Contains(ts.requests[0].Path, "product_id=1") {
		t.Errorf("path = %q, want product_id=1", ts.requests[0].Path)
	}
}
