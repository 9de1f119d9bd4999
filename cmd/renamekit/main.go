package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/engine"
	"github.com/renamekit/renamekit/pkg/history"
	"github.com/renamekit/renamekit/pkg/home"
	"github.com/renamekit/renamekit/pkg/logger"
	"github.com/renamekit/renamekit/pkg/preview"
	"github.com/renamekit/renamekit/pkg/rules"
	"github.com/renamekit/renamekit/pkg/scan"
	"github.com/renamekit/renamekit/pkg/server"
	"github.com/renamekit/renamekit/pkg/store"
	"github.com/renamekit/renamekit/pkg/template"
)

var (
	log *logrus.Entry

	// Global options
	homePath string

	// Preview/apply command options
	templateID      string
	caseStyle       string
	stripPatterns   bool
	organizePattern string
	destinationRoot string
	proposalIDs     []string
	yes             bool

	// Undo command options
	dryRun bool

	// History command options
	historyLimit int

	// Server command options
	port int
	host string
)

func init() {
	log = logger.WithName("cli")
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "renamekit",
		Short: "Rule-based batch file renaming tool",
		Long: `renamekit - Batch file rename and reorganize engine built with Go.

It renders naming templates against file metadata, resolves the winning rule
per file, screens the batch for conflicts, and executes renames with full
undo history.`,
	}

	rootCmd.PersistentFlags().StringVar(&homePath, "home", "", "Application home directory (default ~/.renamekit)")

	var previewCmd = &cobra.Command{
		Use:   "preview <path>...",
		Short: "Preview renames without touching any file",
		Args:  cobra.MinimumNArgs(1),
		Run:   runPreview,
	}
	addRenameFlags(previewCmd)

	var applyCmd = &cobra.Command{
		Use:   "apply <path>...",
		Short: "Preview and execute renames",
		Args:  cobra.MinimumNArgs(1),
		Run:   runApply,
	}
	addRenameFlags(applyCmd)
	applyCmd.Flags().StringSliceVar(&proposalIDs, "only", nil, "Execute only these proposal IDs")
	applyCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	var undoCmd = &cobra.Command{
		Use:   "undo <operation-id>",
		Short: "Undo a recorded rename operation",
		Args:  cobra.ExactArgs(1),
		Run:   runUndo,
	}
	undoCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the restore plan without touching files")

	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recorded rename operations",
		Run:   runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to show")

	var sanitizeCmd = &cobra.Command{
		Use:   "sanitize <filename>",
		Short: "Sanitize a filename for cross-platform validity",
		Args:  cobra.ExactArgs(1),
		Run:   runSanitize,
	}

	var serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP and MCP server",
		Run:   runServer,
	}
	serverCmd.Flags().IntVar(&port, "port", 3000, "Port to listen on")
	serverCmd.Flags().StringVar(&host, "host", "localhost", "Host to bind to")

	rootCmd.AddCommand(previewCmd, applyCmd, undoCmd, historyCmd, sanitizeCmd, serverCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRenameFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&templateID, "template", "", "Template ID to apply (default: rule resolution)")
	cmd.Flags().StringVar(&caseStyle, "case", "", "Case style: lowercase, uppercase, capitalize, title, kebab-case, snake_case, camelCase, PascalCase")
	cmd.Flags().BoolVar(&stripPatterns, "strip-patterns", false, "Strip previously applied date/counter fragments before rendering")
	cmd.Flags().StringVar(&organizePattern, "organize", "", "Folder pattern for organize mode, e.g. {year}/{month} or {category}")
	cmd.Flags().StringVar(&destinationRoot, "dest", "", "Destination root for organize mode (default: each file's directory)")
}

// loadApp opens the home directory, config and history database.
func loadApp() (*home.Manager, *home.Config, history.Store) {
	mgr, err := home.NewManager(homePath)
	if err != nil {
		log.WithError(err).Fatal("Invalid home path")
	}
	if err := mgr.Initialize(); err != nil {
		log.WithError(err).Fatal("Failed to initialize home directory")
	}
	config, err := mgr.LoadOrDefault()
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	hist, err := history.NewSQLiteStore(mgr.HistoryPath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open history database")
	}
	return mgr, config, hist
}

// caseInsensitiveFS reports whether the platform's default filesystem treats
// a case-only rename as targeting the same file.
func caseInsensitiveFS() bool {
	return runtime.GOOS == "darwin" || runtime.GOOS == "windows"
}

// signalContext returns a context cancelled on SIGINT/SIGTERM so a running
// batch stops cleanly between files.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx
}

func generatePreview(config *home.Config, paths []string) models.RenamePreview {
	files, skipped := scan.StatAll(paths)
	for _, p := range skipped {
		fmt.Fprintf(os.Stderr, "skipping unreadable path: %s\n", p)
	}
	if len(files) == 0 {
		log.Fatal("No readable files given")
	}

	gen := preview.New(store.NewManager(), rules.NewResolver(nil))
	result, err := gen.Generate(signalContext(), preview.Request{
		Files:                 files,
		Config:                config.App,
		TemplateID:            templateID,
		CaseStyle:             template.CaseStyle(caseStyle),
		StripExistingPatterns: stripPatterns,
		OrganizeMode:          organizePattern != "",
		FolderPattern:         organizePattern,
		DestinationRoot:       destinationRoot,
		CaseInsensitiveFS:     caseInsensitiveFS(),
	})
	if err != nil {
		log.WithError(err).Fatal("Preview failed")
	}
	return result
}

func printPreview(result models.RenamePreview) {
	for _, p := range result.Proposals {
		switch p.Status {
		case models.StatusReady:
			arrow := "->"
			if p.IsMoveOperation {
				arrow = "=>"
			}
			fmt.Printf("  %-10s %s %s %s\n", p.Status, p.OriginalName, arrow, p.ProposedPath)
		case models.StatusNoChange:
			fmt.Printf("  %-10s %s\n", p.Status, p.OriginalName)
		default:
			detail := ""
			if len(p.Issues) > 0 {
				detail = p.Issues[0].Message
			} else if p.Conflict != nil {
				detail = p.Conflict.Message
			}
			fmt.Printf("  %-10s %s (%s)\n", p.Status, p.OriginalName, detail)
		}
	}
	s := result.Summary
	fmt.Printf("\n%d total: %d ready, %d conflicts, %d missing data, %d no change, %d invalid\n",
		s.Total, s.Ready, s.Conflicts, s.MissingData, s.NoChange, s.InvalidName)
}

func runPreview(cmd *cobra.Command, args []string) {
	_, config, hist := loadApp()
	defer hist.Close()

	result := generatePreview(config, args)
	printPreview(result)
}

func runApply(cmd *cobra.Command, args []string) {
	_, config, hist := loadApp()
	defer hist.Close()

	result := generatePreview(config, args)
	printPreview(result)

	if result.Summary.Ready == 0 {
		fmt.Println("\nNothing to do")
		return
	}

	if !yes {
		fmt.Printf("\nProceed with %d rename(s)? [y/N] ", result.Summary.Ready)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted")
			return
		}
	}

	eng := engine.New(hist)
	batch, err := eng.Execute(signalContext(), result.Proposals, engine.Options{
		ProposalIDs: proposalIDs,
		OnProgress: func(completed, total int, r models.FileRenameResult) {
			fmt.Printf("\r[%d/%d] %s", completed, total, r.OriginalName)
		},
	})
	fmt.Println()
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			for _, issue := range verr.Issues {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", issue.Code, issue.Message)
			}
			log.Fatal("Validation failed, no files were modified")
		}
		log.WithError(err).Fatal("Execution failed")
	}

	fmt.Printf("Done: %d succeeded, %d failed, %d skipped", batch.Summary.Succeeded, batch.Summary.Failed, batch.Summary.Skipped)
	if batch.Aborted {
		fmt.Print(" (cancelled)")
	}
	fmt.Println()
	if batch.HistoryEntryID != "" {
		fmt.Printf("Undo with: renamekit undo %s\n", batch.HistoryEntryID)
	}
}

func runUndo(cmd *cobra.Command, args []string) {
	_, _, hist := loadApp()
	defer hist.Close()

	eng := engine.New(hist)
	result, err := eng.Undo(signalContext(), args[0], engine.UndoOptions{DryRun: dryRun})
	if err != nil {
		log.WithError(err).Fatal("Undo failed")
	}

	for _, f := range result.Files {
		if f.Error != "" {
			fmt.Printf("  %-8s %s (%s)\n", f.Outcome, f.FromPath, f.Error)
		} else {
			fmt.Printf("  %-8s %s -> %s\n", f.Outcome, f.FromPath, f.ToPath)
		}
	}
	if dryRun {
		planned := 0
		for _, f := range result.Files {
			if f.Error == "" {
				planned++
			}
		}
		fmt.Printf("\nDry run: %d file(s) would be restored\n", planned)
		return
	}
	fmt.Printf("\nRestored %d, skipped %d, failed %d\n", result.FilesRestored, result.FilesSkipped, result.FilesFailed)
	for _, d := range result.DirectoriesRemoved {
		fmt.Printf("  removed empty directory %s\n", d)
	}
}

func runHistory(cmd *cobra.Command, args []string) {
	_, _, hist := loadApp()
	defer hist.Close()

	entries, err := hist.List(historyLimit)
	if err != nil {
		log.WithError(err).Fatal("Failed to list history")
	}
	if len(entries) == 0 {
		fmt.Println("No operations recorded")
		return
	}

	for _, e := range entries {
		undone := ""
		if e.Undone {
			undone = " (undone)"
		}
		fmt.Printf("%s  %s  %-6s  %d file(s): %d ok, %d failed, %d skipped%s\n",
			e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), e.OperationType,
			e.FileCount, e.Summary.Succeeded, e.Summary.Failed, e.Summary.Skipped, undone)
	}
}

func runSanitize(cmd *cobra.Command, args []string) {
	result := template.Sanitize(args[0], '_')
	fmt.Println(result.Sanitized)
	for _, change := range result.Changes {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", change.Type, change.Message)
	}
}

func runServer(cmd *cobra.Command, args []string) {
	mgr, err := home.NewManager(homePath)
	if err != nil {
		log.WithError(err).Fatal("Invalid home path")
	}

	app, err := server.NewApp(mgr)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize server")
	}
	defer app.Close()

	if err := app.Start(host, port); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}
