// Package mcp exposes the SmartShop catalog to MCP hosts so AI agents
// can browse, search, and query reviews on the user's behalf.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/backend"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/catalog"
)

// Shop is the slice of the backend client the MCP layer depends on.
type Shop interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	Search(ctx context.Context, query string) (backend.SearchResponse, error)
	GetReviewSummary(ctx context.Context, productID int) (backend.ReviewSummary, error)
	Chat(ctx context.Context, message string, history []backend.ChatMessage) (string, error)
}

// NewServer creates an MCP server with all SmartShop tools and resources
// registered.
func NewServer(shop Shop, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"smartshop",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("SmartShop — product catalog with AI search, review summaries, and a shopping assistant."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_products",
			mcp.WithDescription("List the full product catalog with prices, categories, and review counts."),
		),
		toolListProducts(shop),
	)

	s.AddTool(
		mcp.NewTool("search_products",
			mcp.WithDescription("Run a natural-language search over the catalog and return matching products plus an explanation."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
		),
		toolSearchProducts(shop),
	)

	s.AddTool(
		mcp.NewTool("get_review_summary",
			mcp.WithDescription("Fetch the AI-generated review digest (summary, pros, cons, sentiment) for one product."),
			mcp.WithNumber("product_id", mcp.Description("Product id"), mcp.Required()),
		),
		toolReviewSummary(shop),
	)

	s.AddTool(
		mcp.NewTool("ask_assistant",
			mcp.WithDescription("Ask the SmartShop shopping assistant a question about the catalog."),
			mcp.WithString("message", mcp.Description("The question to ask"), mcp.Required()),
		),
		toolAskAssistant(shop),
	)

	s.AddResource(
		mcp.NewResource(
			"smartshop://catalog",
			"Product Catalog",
			mcp.WithResourceDescription("Current product catalog as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		resourceCatalog(shop),
	)

	return s
}

// productView is the compact product shape returned to agents.
type productView struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category,omitempty"`
	ReviewCount int     `json:"review_count"`
	AvgRating   string  `json:"avg_rating,omitempty"`
}

func toViews(products []catalog.Product) []productView {
	views := make([]productView, len(products))
	for i, p := range products {
		v := productView{
			ID:          p.ID,
			Name:        p.Name,
			Price:       float64(p.Price),
			Description: p.Description,
			ReviewCount: len(p.Reviews),
		}
		if p.Category != nil {
			v.Category = p.Category.Name
		}
		if len(p.Reviews) > 0 {
			v.AvgRating = catalog.FormatRating(p.AverageRating())
		}
		views[i] = v
	}
	return views
}

func toolListProducts(shop Shop) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		products, err := shop.ListProducts(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("listing products failed: %v", err)), nil
		}

		b, err := json.Marshal(toViews(products))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal products: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func toolSearchProducts(shop Shop) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		sr, err := shop.Search(ctx, query)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		out := struct {
			Results     []productView `json:"results"`
			Explanation string        `json:"explanation,omitempty"`
		}{
			Results:     toViews(sr.Results),
			Explanation: sr.Explanation,
		}
		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func toolReviewSummary(shop Shop) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		productID, err := req.RequireInt("product_id")
		if err != nil {
			return mcpError("product_id is required"), nil
		}

		sum, err := shop.GetReviewSummary(ctx, productID)
		if err != nil {
			return mcpError(fmt.Sprintf("review summary failed: %v", err)), nil
		}

		b, err := json.Marshal(sum)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal summary: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func toolAskAssistant(shop Shop) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		reply, err := shop.Chat(ctx, message, nil)
		if err != nil {
			return mcpError(fmt.Sprintf("assistant failed: %v", err)), nil
		}
		return mcpText(reply), nil
	}
}

func resourceCatalog(shop Shop) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		products, err := shop.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog: %w", err)
		}

		b, err := json.Marshal(toViews(products))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
