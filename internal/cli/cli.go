package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/slden26/RenLocalizer-UA/internal/config"
	"github.com/slden26/RenLocalizer-UA/internal/diag"
	"github.com/slden26/RenLocalizer-UA/internal/engine"
	"github.com/slden26/RenLocalizer-UA/internal/entry"
	"github.com/slden26/RenLocalizer-UA/internal/filewalker"
	"github.com/slden26/RenLocalizer-UA/internal/policy"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:   "renlocalizer",
		Short: "Translatable-text extraction for Ren'Py visual novels",
		Long:  "Extracts dialogue, menu choices and interface text from Ren'Py script and compiled archive files into a deduplicated, placeholder-protected entry set.",
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <game-dir>",
		Short: "Extract all translatable entries from a game directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entriesPath, _ := cmd.Flags().GetString("entries")
			reportPath, _ := cmd.Flags().GetString("report")
			return runExtract(args[0], entriesPath, reportPath)
		},
	}

	cmd.Flags().String("entries", "", "Write translatable entries as JSON to this path (default stdout)")
	cmd.Flags().String("report", "", "Write the diagnostics report as JSON to this path")

	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Dump every entry extracted from a single file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
}

func runExtract(gameDir, entriesPath, reportPath string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	walker := filewalker.NewWalker()
	walker.PreferCompiled = cfg.PreferCompiled
	files, err := walker.Walk(gameDir)
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}
	if len(files) == 0 {
		log.Warn().Str("dir", gameDir).Msg("No extractable files found")
		return nil
	}

	eng := newEngine(cfg, pol)
	result := eng.Run(ctx, files)

	entries := filterByToggles(result.Store.Translatable(), cfg)
	if err := writeEntries(entries, entriesPath); err != nil {
		return err
	}
	if reportPath != "" {
		if err := writeReport(result.Report, reportPath); err != nil {
			return err
		}
	}

	log.Info().Int("translatable", len(entries)).Msg("Done")
	return nil
}

func runInspect(path string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	eng := newEngine(cfg, pol)
	result := eng.Run(ctx, []string{path})

	for _, rec := range result.Store.Entries() {
		fmt.Printf("%s  %-12s %-20s L%d-%d\n", rec.TranslationID[:12], rec.Type,
			strings.Join(rec.ContextPath, "/"), rec.Lines.Start, rec.Lines.End)
		fmt.Printf("  raw:       %q\n", rec.RawText)
		fmt.Printf("  processed: %q\n", rec.ProcessedText)
		if rec.Character != "" {
			fmt.Printf("  character: %s\n", rec.Character)
		}
		if rec.DisambiguationTag != "" {
			fmt.Printf("  tag:       %s\n", rec.DisambiguationTag)
		}
	}
	return result.Report.WriteJSON(os.Stderr)
}

func newEngine(cfg *config.Config, pol *policy.Policy) *engine.Engine {
	return engine.New(pol, cfg.TabWidth, cfg.DecompressionCeiling, cfg.MaxGraphDepth,
		engine.WithWorkers(cfg.WorkerCount))
}

// filterByToggles applies the per-type translation switches.
func filterByToggles(entries []*entry.Record, cfg *config.Config) []*entry.Record {
	enabled := map[entry.TextType]bool{
		entry.Dialogue:   cfg.TranslateDialogue,
		entry.Narration:  cfg.TranslateNarration,
		entry.MenuChoice: cfg.TranslateMenus,
		entry.ScreenText: cfg.TranslateScreens,
		entry.UILabel:    cfg.TranslateUILabels,
	}
	out := entries[:0]
	for _, e := range entries {
		if enabled[e.Type] {
			out = append(out, e)
		}
	}
	return out
}

func writeEntries(entries []*entry.Record, path string) error {
	var w *os.File
	if path == "" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create entries file: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(entries)
}

func writeReport(report *diag.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	return report.WriteJSON(f)
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}
