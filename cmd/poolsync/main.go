package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/web3-frozen/ovn-pools/internal/app"
	"github.com/web3-frozen/ovn-pools/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "poolsync",
		Short:        "One-shot pool reconciliation and inspection",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("json", false, "print JSON instead of a table")

	syncCmd := &cobra.Command{
		Use:   "sync [exchanger]",
		Short: "Sync every enabled exchanger, or just the named one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSync,
	}
	root.AddCommand(syncCmd)

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "List persisted pools",
		Args:  cobra.NoArgs,
		RunE:  runPools,
	}
	poolsCmd.Flags().Bool("enabled", false, "only enabled pools")
	poolsCmd.Flags().String("exchanger", "", "only pools of this exchanger")
	root.AddCommand(poolsCmd)

	skimCmd := &cobra.Command{
		Use:   "skim",
		Short: "Check persisted pools against the on-chain payout listeners",
		Args:  cobra.NoArgs,
		RunE:  runSkim,
	}
	root.AddCommand(skimCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// open loads config and builds the app without notifications.
func open(cmd *cobra.Command) (context.Context, context.CancelFunc, *app.App, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(levelName, os.Stderr)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a, err := app.New(ctx, config.Load(), logger, app.Options{})
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	return ctx, func() { a.Close(); stop() }, a, nil
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
