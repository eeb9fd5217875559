package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Category is the product grouping the backend attaches to each product.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Review is a single customer review. Reviews are owned by their product
// and are never mutated after the product is fetched.
type Review struct {
	ID        int    `json:"id"`
	UserName  string `json:"user_name"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Product mirrors the backend product serializer. A fetched product is
// immutable; re-fetching replaces the whole set.
type Product struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug,omitempty"`
	Description   string    `json:"description"`
	AIDescription string    `json:"ai_description,omitempty"`
	Price         Price     `json:"price"`
	Image         string    `json:"image,omitempty"`
	Category      *Category `json:"category,omitempty"`
	Reviews       []Review  `json:"reviews"`
	CreatedAt     string    `json:"created_at,omitempty"`
}

// Price tolerates both numeric and string-encoded decimal values.
// The backend serializes DecimalField as a string ("9.99") while fixture
// data and older responses carry plain numbers.
type Price float64

func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*p = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing price %q: %w", s, err)
	}
	*p = Price(f)
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(p))
}

// String renders the price for display.
func (p Price) String() string {
	return fmt.Sprintf("$%.2f", float64(p))
}

// AverageRating returns the mean rating across the product's reviews,
// or 0 when there are none.
func (p Product) AverageRating() float64 {
	if len(p.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(p.Reviews))
}

// FormatRating renders an average rating with one decimal, e.g. "4.0".
func FormatRating(avg float64) string {
	return strconv.FormatFloat(avg, 'f', 1, 64)
}

// ReviewCountLabel renders the review count the way the product card
// shows it: "no reviews", "1 review", "3 reviews".
func ReviewCountLabel(n int) string {
	switch n {
	case 0:
		return "no reviews"
	case 1:
		return "1 review"
	default:
		return fmt.Sprintf("%d reviews", n)
	}
}

// ResolveImageURL resolves a product image reference against the backend
// base URL. Absolute references (carrying a scheme) pass through
// untouched; rooted paths are prefixed with the base. An empty reference
// stays empty.
func ResolveImageURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.Contains(ref, "://") {
		return ref
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return base + ref
}
