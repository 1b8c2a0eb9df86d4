package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"kt-assistant-be/internal/bootstrap"
	"kt-assistant-be/internal/config"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/pkg/database"
	"kt-assistant-be/pkg/events"
	"kt-assistant-be/pkg/ingest"
	"kt-assistant-be/pkg/utils"

	pktNats "kt-assistant-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	headColor = color.New(color.FgCyan, color.Bold)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ktctl",
		Short:         "Operations for the KT assistant backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newCleanupCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newWatchCmd())
	return root
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	return database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.LogLevel)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the session and message tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			_, _ = okColor.Fprintln(cmd.OutOrStdout(), "✅ Database migration completed")
			return nil
		},
	}
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Expire idle sessions and purge vectors of deleted sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			db, err := openDB(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			container, err := bootstrap.NewContainer(ctx, db, cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			res := container.MaintenanceService.Run(ctx)
			out := cmd.OutOrStdout()
			_, _ = headColor.Fprintln(out, "Maintenance sweep")
			_, _ = okColor.Fprintf(out, "  expired sessions: %d\n", len(res.ExpiredSessions))
			for _, id := range res.ExpiredSessions {
				_, _ = fmt.Fprintf(out, "    - %s\n", id)
			}
			_, _ = okColor.Fprintf(out, "  zombie vectors:   %d\n", res.ZombieVectors)
			return nil
		},
	}
}

func newExtractCmd() *cobra.Command {
	var chunkSize, overlap int

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text the assistant would read from a .txt or .pdf file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			text, ok := ingest.NewExtractor(logger.NewNopLogger()).ExtractText(data, filepath.Base(args[0]))
			if !ok {
				return fmt.Errorf("no text extracted from %s", args[0])
			}

			out := cmd.OutOrStdout()
			if chunkSize <= 0 {
				_, _ = fmt.Fprintln(out, text)
				return nil
			}
			chunks := utils.SplitText(text, chunkSize, overlap)
			for i, chunk := range chunks {
				_, _ = headColor.Fprintf(out, "--- chunk %d/%d ---\n", i+1, len(chunks))
				_, _ = fmt.Fprintln(out, chunk)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "split the text into windows of this many runes")
	cmd.Flags().IntVar(&overlap, "overlap", 200, "runes shared by consecutive windows")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream interview lifecycle events from NATS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
			if err != nil {
				return err
			}
			defer sub.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			cc, err := sub.Subscribe(ctx, subject, func(_ context.Context, event events.Event) error {
				printEvent(out, event)
				return nil
			})
			if err != nil {
				return err
			}
			defer cc.Stop()

			_, _ = warnColor.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", subject)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", pktNats.SubjectPrefix+">", "NATS subject filter")
	return cmd
}
