package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/backend"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/catalog"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/storage"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

// ratingLabel renders "★ 4.0 (3 reviews)" or "no reviews" for the list view.
func ratingLabel(p catalog.Product) string {
	if len(p.Reviews) == 0 {
		return catalog.ReviewCountLabel(0)
	}
	return fmt.Sprintf("★ %s (%s)",
		catalog.FormatRating(p.AverageRating()),
		catalog.ReviewCountLabel(len(p.Reviews)),
	)
}

func productLine(p catalog.Product) string {
	category := ""
	if p.Category != nil {
		category = "  " + colorize(colorCyan, p.Category.Name)
	}
	return fmt.Sprintf("%s %s  %s  %s%s",
		colorize(colorBold, fmt.Sprintf("[%d]", p.ID)),
		p.Name,
		p.Price,
		ratingLabel(p),
		category,
	)
}

func renderProducts(products []catalog.Product) {
	if len(products) == 0 {
		fmt.Println("No products to show.")
		return
	}
	for _, p := range products {
		fmt.Println("  " + productLine(p))
	}
}

// imageLine resolves a product's image reference against the backend
// base URL for display. Empty when the product has no image.
func imageLine(baseURL string, p catalog.Product) string {
	if p.Image == "" {
		return ""
	}
	return catalog.ResolveImageURL(baseURL, p.Image)
}

func renderProductDetail(p catalog.Product, baseURL string) {
	fmt.Println(colorize(colorBold, p.Name))
	fmt.Printf("  Price:    %s\n", p.Price)
	if p.Category != nil {
		fmt.Printf("  Category: %s\n", p.Category.Name)
	}
	fmt.Printf("  Rating:   %s\n", ratingLabel(p))
	if img := imageLine(baseURL, p); img != "" {
		fmt.Printf("  Image:    %s\n", img)
	}
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	if p.AIDescription != "" {
		fmt.Printf("  %s\n", colorize(colorCyan, p.AIDescription))
	}
	for _, r := range p.Reviews {
		comment := r.Comment
		if len(comment) > 120 {
			comment = comment[:120] + "..."
		}
		fmt.Printf("    %s %d/5  %s\n", colorize(colorBold, r.UserName), r.Rating, comment)
	}
}

func renderSummary(sum backend.ReviewSummary) {
	if sum.ReviewCount == 0 && sum.Message != "" {
		fmt.Println(sum.Message)
		return
	}
	fmt.Printf("%s (%s, %s)\n",
		colorize(colorBold, "Review summary"),
		catalog.ReviewCountLabel(sum.ReviewCount),
		sum.Sentiment,
	)
	if sum.Summary != "" {
		fmt.Printf("  %s\n", sum.Summary)
	}
	for _, pro := range sum.Pros {
		fmt.Printf("  %s %s\n", colorize(colorGreen, "+"), pro)
	}
	for _, con := range sum.Cons {
		fmt.Printf("  %s %s\n", colorize(colorRed, "-"), con)
	}
}

func renderTranscript(transcript []backend.ChatMessage, last int) {
	start := 0
	if last > 0 && len(transcript) > last {
		start = len(transcript) - last
	}
	for _, m := range transcript[start:] {
		label := "you"
		color := colorBold
		if m.Role == backend.RoleAssistant {
			label = "assistant"
			color = colorCyan
		}
		fmt.Printf("%s %s\n", colorize(color, label+":"), m.Content)
	}
}

func requestLine(r storage.Request) string {
	status := colorize(colorGreen, r.Status)
	if r.Status != "ok" {
		status = colorize(colorRed, r.Status)
	}
	line := fmt.Sprintf("%s  %-8s %s  %s",
		r.CreatedAt.Format("15:04:05"),
		r.Workflow,
		status,
		r.Duration.Round(time.Millisecond),
	)
	if r.Detail != "" {
		line += "  " + r.Detail
	}
	return line
}

func renderRequests(requests []storage.Request) {
	if len(requests) == 0 {
		fmt.Println("No requests recorded this session.")
		return
	}
	for _, r := range requests {
		fmt.Println("  " + requestLine(r))
	}
}

func renderExplanation(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Printf("%s %s\n", colorize(colorCyan, "AI:"), text)
}
