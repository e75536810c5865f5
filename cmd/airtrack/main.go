// Package main provides the airtrack binary entry point.
// Airtrack tracks SDLC artifacts (PRDs, design analyses, RFCs, ADRs,
// bolts, post-mortems) through their lifecycle, enforces phase gates
// between them, and answers traceability questions about their lineage.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/airsdlc/airtrack/config"
	"github.com/airsdlc/airtrack/store"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "airtrack"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	repoPath string
	logLevel string
	author   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "SDLC artifact lifecycle and traceability tracker",
		Long: `Airtrack manages a tree of SDLC artifacts under .airsdlc/:
PRDs, domain analyses (DAA), technical plans (TIP), RFCs, ADRs,
implementation bolts, post-mortems, and playbook patterns.

It enforces the phase gates between artifact types, freezes approved
documents, and answers traceability questions (what led to this
decision, what does changing it affect).`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.repoPath, "repo", "", "Repository root (default: auto-detect)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.author, "author", "", "Author recorded on changes (default: config, then git identity)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	cmd.AddCommand(initCmd(&flags))
	cmd.AddCommand(newCmd(&flags))
	cmd.AddCommand(listCmd(&flags))
	cmd.AddCommand(statusCmd(&flags))
	cmd.AddCommand(promoteCmd(&flags))
	cmd.AddCommand(supersedeCmd(&flags))
	cmd.AddCommand(archiveCmd(&flags))
	cmd.AddCommand(checkCmd(&flags))
	cmd.AddCommand(traceCmd(&flags))
	cmd.AddCommand(impactCmd(&flags))
	cmd.AddCommand(graphCmd(&flags))
	cmd.AddCommand(playbookCmd(&flags))
	cmd.AddCommand(serveCmd(&flags))

	return cmd
}

// app bundles the resolved configuration and store for one invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	manager *store.Manager
}

// newApp configures logging, loads layered config, and opens the store.
func newApp(flags *globalFlags) (*app, error) {
	level := slog.LevelInfo
	switch strings.ToLower(flags.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flags.repoPath != "" {
		abs, err := filepath.Abs(flags.repoPath)
		if err != nil {
			return nil, fmt.Errorf("resolve repo path: %w", err)
		}
		cfg.Repo.Path = abs
	}
	if flags.author != "" {
		cfg.Author = flags.author
	}

	info, err := os.Stat(cfg.Repo.Path)
	if err != nil {
		return nil, fmt.Errorf("stat repo path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", cfg.Repo.Path)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		manager: store.NewManager(cfg.Repo.Path),
	}, nil
}

// author returns the author to record, never empty.
func (a *app) author() string {
	if a.cfg.Author != "" {
		return a.cfg.Author
	}
	return "unknown"
}
