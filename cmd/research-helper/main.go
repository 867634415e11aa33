package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/mikeboe/research-stream/pkg/client"
	"github.com/mikeboe/research-stream/pkg/config"
	"github.com/mikeboe/research-stream/pkg/events"
	"github.com/mikeboe/research-stream/pkg/logging"
	"github.com/mikeboe/research-stream/pkg/presenter"
	"github.com/mikeboe/research-stream/pkg/session"
	"github.com/spf13/cobra"
)

var (
	serviceURL string
	source     string
	raw        bool
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	rootCmd := &cobra.Command{
		Use:   "research-helper",
		Short: "A terminal client for the research service",
		Long:  `research-helper sends a query to the research service and renders the streamed search and analysis as it arrives.`,
	}

	askCmd := &cobra.Command{
		Use:          "ask [query]",
		Short:        "Research a query and stream the answer",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				// Interactive Mode
				fmt.Print("Enter research query: ")
				input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				query = strings.TrimSpace(input)
			}
			if query == "" {
				return fmt.Errorf("query cannot be empty")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return ask(ctx, query)
		},
	}
	askCmd.Flags().StringVarP(&serviceURL, "url", "u", cfg.ResearchURL, "Base URL of the research service")
	askCmd.Flags().StringVarP(&source, "source", "s", "", "Search source (arxiv or web), service default if empty")
	askCmd.Flags().BoolVar(&raw, "raw", false, "Print the raw event log as JSON lines")

	rootCmd.AddCommand(askCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func ask(ctx context.Context, query string) error {
	opts := []client.Option{}
	if source != "" {
		opts = append(opts, client.WithSource(source))
	}
	c := client.New(serviceURL, opts...)

	var final session.State
	if raw {
		final = c.Ask(ctx, query, nil)
		enc := json.NewEncoder(os.Stdout)
		for _, e := range final.RawEvents {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
	} else {
		term := presenter.NewTerminal(os.Stdout)
		final = c.Ask(ctx, query, term.Update)
		term.Finish(final.Snapshot())
	}

	if ctx.Err() != nil {
		return fmt.Errorf("research interrupted")
	}
	if last := len(final.RawEvents); last > 0 && final.RawEvents[last-1].Kind == events.KindError {
		return fmt.Errorf("research failed: %s", final.RawEvents[last-1].Message)
	}
	return nil
}
