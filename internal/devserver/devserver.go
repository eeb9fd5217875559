// Package devserver is a local stand-in for the SmartShop backend. It
// serves the same endpoints from embedded fixture data so the client can
// be developed and demoed without the real service. Search matching and
// the "AI" texts are naive; only the shapes and error texts are faithful.
package devserver

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/catalog"
)

//go:embed fixtures/*.json
var fixturesFS embed.FS

// Server serves the fixture-backed API.
type Server struct {
	products []catalog.Product
	logger   *slog.Logger
}

// New loads the embedded fixtures and returns a Server.
func New(logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := fixturesFS.ReadFile("fixtures/products.json")
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}

	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}

	return &Server{products: products, logger: logger}, nil
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/api/products/", s.handleListProducts)
	r.Get("/api/products/{id}/", s.handleGetProduct)
	r.Get("/api/products/{id}/review-summary/", s.handleReviewSummary)
	r.Get("/api/search/", s.handleSearch)
	r.Get("/api/recommendations/", s.handleRecommendations)
	r.Post("/api/assistant/chat/", s.handleChat)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.products)
}

func (s *Server) findProduct(idStr string) (catalog.Product, bool) {
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return catalog.Product{}, false
	}
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.findProduct(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Product not found."})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "q query parameter is required."})
		return
	}

	needle := strings.ToLower(query)
	results := []catalog.Product{}
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			results = append(results, p)
		}
	}

	explanation := "No products matched this search query."
	if len(results) > 0 {
		names := make([]string, len(results))
		for i, p := range results {
			names[i] = p.Name
		}
		explanation = fmt.Sprintf("These match %q by name or description: %s.", query, strings.Join(names, ", "))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":       query,
		"count":       len(results),
		"results":     results,
		"explanation": explanation,
	})
}

func (s *Server) handleReviewSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := s.findProduct(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Product not found."})
		return
	}

	if len(p.Reviews) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"product_id":   p.ID,
			"product_name": p.Name,
			"review_count": 0,
			"summary":      nil,
			"pros":         []string{},
			"cons":         []string{},
			"sentiment":    nil,
			"message":      "No reviews available for summarisation.",
		})
		return
	}

	pros := []string{}
	cons := []string{}
	for _, rev := range p.Reviews {
		switch {
		case rev.Rating >= 4 && len(pros) < 3:
			pros = append(pros, rev.Comment)
		case rev.Rating <= 2 && len(cons) < 3:
			cons = append(cons, rev.Comment)
		}
	}

	avg := p.AverageRating()
	sentiment := "negative"
	switch {
	case avg >= 4:
		sentiment = "positive"
	case avg >= 3:
		sentiment = "mixed"
	}

	summary := fmt.Sprintf("Across %s, %s averages %s out of 5.",
		catalog.ReviewCountLabel(len(p.Reviews)), p.Name, catalog.FormatRating(avg))

	writeJSON(w, http.StatusOK, map[string]any{
		"product_id":   p.ID,
		"product_name": p.Name,
		"review_count": len(p.Reviews),
		"summary":      summary,
		"pros":         pros,
		"cons":         cons,
		"sentiment":    sentiment,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("product_id")
	if idStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "product_id query parameter is required."})
		return
	}

	base, ok := s.findProduct(idStr)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Base product not found."})
		return
	}

	recommended := []catalog.Product{}
	for _, p := range s.products {
		if p.ID == base.ID {
			continue
		}
		if base.Category != nil && p.Category != nil && p.Category.ID == base.Category.ID {
			recommended = append(recommended, p)
		}
		if len(recommended) == 4 {
			break
		}
	}

	message := fmt.Sprintf("Nothing else in the %s range right now.", base.Name)
	if len(recommended) > 0 {
		message = fmt.Sprintf("Shoppers who looked at %s also browse these %s picks.",
			base.Name, base.Category.Name)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"base_product":    base,
		"recommendations": recommended,
		"ai_message":      message,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		History []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body."})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message field is required."})
		return
	}

	// Surface any products mentioned by a word in the message.
	needle := strings.ToLower(message)
	var mentioned []string
	for _, p := range s.products {
		for _, word := range strings.Fields(strings.ToLower(p.Name)) {
			if strings.Contains(needle, word) {
				mentioned = append(mentioned, fmt.Sprintf("%s (%s)", p.Name, p.Price))
				break
			}
		}
	}

	reply := "I can help you browse the catalog — ask me about lamps, kitchen gear, or outdoor equipment."
	if len(mentioned) > 0 {
		reply = "Here is what we carry that fits: " + strings.Join(mentioned, ", ") + "."
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
