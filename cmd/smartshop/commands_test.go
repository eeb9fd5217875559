package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/backend"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/catalog"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/storage"
)

var ctx = context.Background()

type stubSource struct {
	product catalog.Product
	summary backend.ReviewSummary

	productErr error
	summaryErr error
}

func (s *stubSource) GetProduct(_ context.Context, _ int) (catalog.Product, error) {
	return s.product, s.productErr
}

func (s *stubSource) GetReviewSummary(_ context.Context, _ int) (backend.ReviewSummary, error) {
	return s.summary, s.summaryErr
}

func TestFetchProductAndSummary(t *testing.T) {
	src := &stubSource{
		product: catalog.Product{ID: 3, Name: "Brew Master Kettle"},
		summary: backend.ReviewSummary{ProductID: 3, Summary: "Owners love it.", Sentiment: "positive"},
	}

	product, sum, err := fetchProductAndSummary(ctx, src, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.Name != "Brew Master Kettle" {
		t.Errorf("product name = %q, want Brew Master Kettle", product.Name)
	}
	if sum.Sentiment != "positive" {
		t.Errorf("sentiment = %q, want positive", sum.Sentiment)
	}
}

func TestFetchProductAndSummary_SummaryError(t *testing.T) {
	src := &stubSource{
		product:    catalog.Product{ID: 3, Name: "Brew Master Kettle"},
		summaryErr: errors.New("AI offline"),
	}

	_, _, err := fetchProductAndSummary(ctx, src, 3)
	if err == nil {
		t.Fatal("expected error when one fetch fails")
	}
	if !strings.Contains(err.Error(), "AI offline") {
		t.Errorf("error = %q, want it to carry the failing fetch", err.Error())
	}
}

func TestRatingLabel(t *testing.T) {
	p := catalog.Product{
		Reviews: []catalog.Review{
			{Rating: 5},
			{Rating: 3},
		},
	}
	got := ratingLabel(p)
	if !strings.Contains(got, "4.0") {
		t.Errorf("ratingLabel = %q, want it to contain the average 4.0", got)
	}
	if !strings.Contains(got, "2 reviews") {
		t.Errorf("ratingLabel = %q, want it to contain the review count", got)
	}

	if got := ratingLabel(catalog.Product{}); got != "no reviews" {
		t.Errorf("ratingLabel with no reviews = %q, want %q", got, "no reviews")
	}
}

func TestProductLine(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	p := catalog.Product{
		ID:       2,
		Name:     "Nord Reading Lamp",
		Price:    34.5,
		Category: &catalog.Category{Name: "Lighting"},
	}
	got := productLine(p)

	for _, want := range []string{"[2]", "Nord Reading Lamp", "$34.50", "Lighting"} {
		if !strings.Contains(got, want) {
			t.Errorf("productLine = %q, want it to contain %q", got, want)
		}
	}
}

func TestImageLine(t *testing.T) {
	base := "http://127.0.0.1:8000"

	tests := []struct {
		name  string
		image string
		want  string
	}{
		{"rooted path gets the backend prefix", "/media/lamp.jpg", "http://127.0.0.1:8000/media/lamp.jpg"},
		{"absolute URL passes through", "https://cdn.example.com/lamp.jpg", "https://cdn.example.com/lamp.jpg"},
		{"no image yields no line", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := imageLine(base, catalog.Product{Image: tt.image})
			if got != tt.want {
				t.Errorf("imageLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestLine(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	r := storage.Request{
		Workflow:  "chat",
		Status:    "error",
		Detail:    "backend returned 500",
		Duration:  40 * time.Millisecond,
		CreatedAt: time.Date(2026, 8, 29, 14, 30, 5, 0, time.UTC),
	}
	got := requestLine(r)

	for _, want := range []string{"14:30:05", "chat", "error", "40ms", "backend returned 500"} {
		if !strings.Contains(got, want) {
			t.Errorf("requestLine = %q, want it to contain %q", got, want)
		}
	}

	ok := requestLine(storage.Request{Workflow: "search", Status: "ok", Duration: time.Millisecond})
	if !strings.HasSuffix(ok, "1ms") {
		t.Errorf("requestLine for an ok row should end with the duration, got %q", ok)
	}
}

func TestSummaryCommand_InvalidID(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"summary", "abc"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for non-numeric product id")
	}
	if !strings.Contains(err.Error(), "invalid product id") {
		t.Errorf("error = %q, want it to mention the invalid id", err.Error())
	}
}

func TestSearchCommand_MissingQuery(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"search"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing query")
	}
}
