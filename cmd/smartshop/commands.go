package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/backend"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/catalog"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/config"
)

var newShopClient = func() (*backend.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return backend.New(cfg.Backend.BaseURL, cfg.BackendTimeout()), nil
}

// --- browse ---

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List the product catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newShopClient()
		if err != nil {
			return err
		}

		products, err := client.ListProducts(cmd.Context())
		if err != nil {
			return err
		}

		renderProducts(products)
		return nil
	},
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a smart search over the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		client, err := newShopClient()
		if err != nil {
			return err
		}

		sr, err := client.Search(cmd.Context(), query)
		if err != nil {
			return err
		}

		renderExplanation(sr.Explanation)
		renderProducts(sr.Results)
		return nil
	},
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the shopping assistant a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")

		client, err := newShopClient()
		if err != nil {
			return err
		}

		reply, err := client.Chat(cmd.Context(), message, nil)
		if err != nil {
			if backend.IsAIServiceError(err) {
				printError("AI service error — the assistant could not respond")
			}
			return err
		}

		fmt.Println(reply)
		return nil
	},
}

// --- summary ---

var summaryCmd = &cobra.Command{
	Use:   "summary <product-id>",
	Short: "Show a product with its AI review summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}

		client, err := newShopClient()
		if err != nil {
			return err
		}

		product, sum, err := fetchProductAndSummary(cmd.Context(), client, id)
		if err != nil {
			return err
		}

		renderProductDetail(product, client.BaseURL())
		fmt.Println()
		renderSummary(sum)
		return nil
	},
}

// summarySource is the slice of the client fetchProductAndSummary needs.
type summarySource interface {
	GetProduct(ctx context.Context, id int) (catalog.Product, error)
	GetReviewSummary(ctx context.Context, productID int) (backend.ReviewSummary, error)
}

// fetchProductAndSummary fetches the product and its review summary in
// parallel. The summary endpoint invokes the AI service and dominates
// latency, so there is no point serializing the two calls.
func fetchProductAndSummary(ctx context.Context, src summarySource, id int) (catalog.Product, backend.ReviewSummary, error) {
	var (
		product catalog.Product
		sum     backend.ReviewSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		product, err = src.GetProduct(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		sum, err = src.GetReviewSummary(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return catalog.Product{}, backend.ReviewSummary{}, err
	}
	return product, sum, nil
}

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend <product-id>",
	Short: "Show AI recommendations related to a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}

		client, err := newShopClient()
		if err != nil {
			return err
		}

		recs, err := client.GetRecommendations(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("Because you looked at %s:\n", colorize(colorBold, recs.BaseProduct.Name))
		renderProducts(recs.Recommendations)
		renderExplanation(recs.AIMessage)
		return nil
	},
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend connectivity and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}

		client := backend.New(cfg.Backend.BaseURL, cfg.BackendTimeout())
		products, err := client.ListProducts(cmd.Context())
		if err != nil {
			printStatus("Backend", "not reachable at %s", cfg.Backend.BaseURL)
		} else {
			printStatus("Backend", "reachable at %s (%d products)", cfg.Backend.BaseURL, len(products))
		}

		printStatus("Timeout", "%s", cfg.Backend.Timeout)
		printStatus("Journal", "%s", cfg.Journal.DataDir)
		printStatus("Version", "%s", version)
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s  %s\n",
				colorize(colorBold, k.Key),
				k.Value,
				colorize(colorCyan, "(env "+k.EnvVar+")"),
			)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			printStep("valid keys: %s", strings.Join(config.ValidKeys(), ", "))
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
