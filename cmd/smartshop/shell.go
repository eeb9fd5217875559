package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/backend"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/config"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/session"
	"github.com/jeanlimsl3-LithanAcad/smartshop-ai/internal/storage"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive shopping shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd.Context())
	},
}

// shell owns one interactive session and its journal.
type shell struct {
	sess  *session.Session
	shop  *backend.Client
	store *storage.Store
}

func runShell(parent context.Context) error {
	fmt.Fprintf(os.Stderr, "smartshop version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Journal.DataDir)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer store.Close()

	client := backend.New(cfg.Backend.BaseURL, cfg.BackendTimeout())
	sh := &shell{
		sess:  session.New(client, store),
		shop:  client,
		store: store,
	}

	printStep("Loading catalog from %s...", cfg.Backend.BaseURL)
	sh.sess.LoadCatalog(ctx)
	if err := sh.sess.Wait(ctx, session.WorkflowCatalog); err != nil {
		return err
	}

	st := sh.sess.Snapshot()
	if st.Catalog.Status == session.StatusError {
		printError("%s", st.Catalog.Err)
	} else {
		printSuccess("Loaded %d products", len(st.Catalog.Products))
		renderProducts(st.Catalog.Products)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, colorize(colorBold, "smartshop> "))
		if !scanner.Scan() {
			fmt.Fprintln(os.Stderr)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := sh.dispatch(ctx, cmd, rest); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			printError("%v", err)
		}
	}
}

func (sh *shell) dispatch(ctx context.Context, cmd, rest string) error {
	switch cmd {
	case "help":
		shellHelp()
	case "list":
		renderProducts(sh.sess.Snapshot().ActiveList())
	case "reload":
		sh.sess.LoadCatalog(ctx)
		if err := sh.sess.Wait(ctx, session.WorkflowCatalog); err != nil {
			return err
		}
		sh.showCatalogOutcome()
	case "search":
		return sh.doSearch(ctx, rest)
	case "reset":
		sh.sess.ResetSearch()
		renderProducts(sh.sess.Snapshot().ActiveList())
	case "chat":
		return sh.doChat(ctx, rest)
	case "open":
		return sh.doOpen(rest)
	case "close":
		sh.sess.CloseProduct()
		printStep("Closed product view")
	case "summary":
		return sh.doSummary(ctx)
	case "recommend":
		return sh.doRecommend(ctx, rest)
	case "status":
		sh.showStatus()
	case "history":
		return sh.showHistory(rest)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
	return nil
}

func (sh *shell) showCatalogOutcome() {
	st := sh.sess.Snapshot()
	if st.Catalog.Status == session.StatusError {
		printError("%s", st.Catalog.Err)
		return
	}
	printSuccess("Loaded %d products", len(st.Catalog.Products))
}

func (sh *shell) doSearch(ctx context.Context, query string) error {
	if !sh.sess.RunSearch(ctx, query) {
		printWarning("Nothing to search for")
		return nil
	}
	if err := sh.sess.Wait(ctx, session.WorkflowSearch); err != nil {
		return err
	}

	st := sh.sess.Snapshot()
	if st.Search.Status == session.StatusError {
		printError("%s", st.Search.Err)
		return nil
	}
	renderExplanation(st.Search.Explanation)
	renderProducts(st.ActiveList())
	return nil
}

func (sh *shell) doChat(ctx context.Context, message string) error {
	if !sh.sess.SendMessage(ctx, message) {
		printWarning("Assistant is busy or the message was empty")
		return nil
	}
	if err := sh.sess.Wait(ctx, session.WorkflowChat); err != nil {
		return err
	}

	st := sh.sess.Snapshot()
	if st.Chat.Status == session.StatusError {
		printError("%s", st.Chat.Err)
		return nil
	}
	renderTranscript(st.Chat.Transcript, 2)
	return nil
}

func (sh *shell) doOpen(arg string) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("usage: open <product-id>")
	}
	if !sh.sess.OpenProduct(id) {
		return fmt.Errorf("no product with id %d in the current list", id)
	}
	renderProductDetail(sh.sess.Snapshot().Selected.Product, sh.shop.BaseURL())
	return nil
}

func (sh *shell) doSummary(ctx context.Context) error {
	if !sh.sess.GenerateSummary(ctx) {
		printWarning("Open a product first (open <id>)")
		return nil
	}
	if err := sh.sess.Wait(ctx, session.WorkflowSummary); err != nil {
		return err
	}

	st := sh.sess.Snapshot()
	if st.Summary.Status == session.StatusError {
		printError("%s", st.Summary.Err)
		return nil
	}
	renderSummary(st.Summary.Summary)
	return nil
}

// doRecommend is a direct backend call: recommendations are stateless
// and never race with the session workflows.
func (sh *shell) doRecommend(ctx context.Context, arg string) error {
	var id int
	if arg == "" {
		st := sh.sess.Snapshot()
		if !st.Selected.Open {
			return fmt.Errorf("usage: recommend <product-id> (or open a product first)")
		}
		id = st.Selected.Product.ID
	} else {
		var err error
		id, err = strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("usage: recommend <product-id>")
		}
	}

	recs, err := sh.shop.GetRecommendations(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Because you looked at %s:\n", colorize(colorBold, recs.BaseProduct.Name))
	renderProducts(recs.Recommendations)
	renderExplanation(recs.AIMessage)
	return nil
}

func (sh *shell) showStatus() {
	st := sh.sess.Snapshot()
	printStatus("Catalog", "%s (%d products)", st.Catalog.Status, len(st.Catalog.Products))
	if st.Search.Active() || st.Search.Status == session.StatusPending {
		printStatus("Search", "%s (query %q)", st.Search.Status, st.Search.Query)
	} else {
		printStatus("Search", "inactive")
	}
	printStatus("Chat", "%s (%d messages)", st.Chat.Status, len(st.Chat.Transcript))
	if st.Selected.Open {
		printStatus("Open", "%s", st.Selected.Product.Name)
		printStatus("Summary", "%s", st.Summary.Status)
	} else {
		printStatus("Open", "nothing")
	}
}

// showHistory renders the journaled chat transcript, or the workflow
// request log when asked for "requests".
func (sh *shell) showHistory(what string) error {
	if what == "requests" {
		requests, err := sh.store.ListRequests(0)
		if err != nil {
			return err
		}
		renderRequests(requests)
		return nil
	}

	messages, err := sh.store.ListMessages(50)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Println("No chat history this session.")
		return nil
	}
	transcript := make([]backend.ChatMessage, len(messages))
	for i, m := range messages {
		transcript[i] = backend.ChatMessage{Role: m.Role, Content: m.Content}
	}
	renderTranscript(transcript, 0)
	return nil
}

func shellHelp() {
	fmt.Print(`Commands:
  list               show the current product list
  reload             re-fetch the catalog
  search <query>     run a smart search
  reset              clear the search and show the catalog
  chat <message>     talk to the shopping assistant
  open <id>          open a product in detail view
  close              close the detail view
  summary            AI review summary for the open product
  recommend [id]     related products (defaults to the open product)
  status             show workflow states
  history            show this session's chat journal
  history requests   show this session's workflow request log
  quit               leave the shell
`)
}
