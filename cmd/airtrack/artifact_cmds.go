package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/airsdlc/airtrack/artifact"
	"github.com/airsdlc/airtrack/config"
	"github.com/airsdlc/airtrack/events"
)

// parseIDArg validates a "{type}.{slug}" command line argument.
func parseIDArg(s string) (artifact.ID, error) {
	if _, _, err := artifact.ParseID(s); err != nil {
		return "", err
	}
	return artifact.ID(s), nil
}

// connectEvents returns a publisher for lifecycle events. Without a
// configured NATS URL the publisher silently drops events.
func (a *app) connectEvents() (*events.Publisher, func()) {
	if a.cfg.NATS.URL == "" {
		return events.NewPublisher(nil), func() {}
	}

	nc, err := nats.Connect(a.cfg.NATS.URL, nats.Name(appName))
	if err != nil {
		a.logger.Warn("NATS unavailable, events disabled",
			"url", a.cfg.NATS.URL,
			"error", err)
		return events.NewPublisher(nil), func() {}
	}
	return events.NewPublisher(nc), nc.Close
}

func initCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the .airsdlc artifact tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			if err := a.manager.Init(); err != nil {
				return err
			}

			// Seed a project config so the tree is self-describing.
			configPath := a.manager.ConfigPath()
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := config.DefaultConfig().SaveToFile(configPath); err != nil {
					return err
				}
			}

			fmt.Printf("Initialized artifact tree at %s\n", a.manager.RootPath())
			return nil
		},
	}
}

func newCmd(flags *globalFlags) *cobra.Command {
	var (
		slug    string
		parents []string
	)

	cmd := &cobra.Command{
		Use:   "new <type> <title>",
		Short: "Create an artifact",
		Long: `Create an artifact of the given type. Parent artifacts are named
with --parent and must satisfy the phase gate for the type: a DAA
needs an approved PRD, an RFC needs a validated analysis, an ADR
needs an accepted RFC, a bolt needs an accepted ADR.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			t := artifact.Type(args[0])
			if !t.IsValid() {
				return fmt.Errorf("unknown artifact type %q", args[0])
			}

			parentIDs := make([]artifact.ID, 0, len(parents))
			for _, p := range parents {
				id, err := parseIDArg(p)
				if err != nil {
					return fmt.Errorf("parent %q: %w", p, err)
				}
				parentIDs = append(parentIDs, id)
			}

			ctx := cmd.Context()
			var created *artifact.Artifact
			if slug != "" {
				created, err = a.manager.CreateWithSlug(ctx, t, slug, args[1], a.author(), parentIDs)
			} else {
				created, err = a.manager.Create(ctx, t, args[1], a.author(), parentIDs)
			}
			if err != nil {
				return err
			}

			pub, closeFn := a.connectEvents()
			defer closeFn()
			if err := pub.Created(created); err != nil {
				a.logger.Warn("Failed to publish event", "error", err)
			}

			fmt.Printf("Created %s (%s)\n", created.ID, created.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "Slug override (default: derived from title)")
	cmd.Flags().StringArrayVar(&parents, "parent", nil, "Parent artifact ID (may be repeated)")

	return cmd
}

func listCmd(flags *globalFlags) *cobra.Command {
	var typeName, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var artifacts []*artifact.Artifact
			if typeName != "" {
				t := artifact.Type(typeName)
				if !t.IsValid() {
					return fmt.Errorf("unknown artifact type %q", typeName)
				}
				artifacts, err = a.manager.ListByType(ctx, t)
			} else {
				artifacts, err = a.manager.List(ctx)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tTITLE")
			for _, art := range artifacts {
				if status != "" && string(art.Status) != status {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", art.ID, art.Status, art.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "", "Only list artifacts of this type")
	cmd.Flags().StringVar(&status, "status", "", "Only list artifacts in this status")

	return cmd
}

func statusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show an artifact's status and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			art, err := a.manager.Load(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Printf("%s\n", art.ID)
			fmt.Printf("  Title:  %s\n", art.Title)
			fmt.Printf("  Status: %s", art.Status)
			if art.Status.Immutable(art.Type) {
				fmt.Printf(" (body frozen)")
			}
			fmt.Println()
			for _, p := range art.Parents {
				fmt.Printf("  Parent: %s\n", p)
			}
			if art.Supersedes != "" {
				fmt.Printf("  Supersedes: %s\n", art.Supersedes)
			}
			if art.SupersededBy != "" {
				fmt.Printf("  Superseded by: %s\n", art.SupersededBy)
			}
			if art.DerivedFrom != "" {
				fmt.Printf("  Derived from: %s\n", art.DerivedFrom)
			}
			if len(art.StatusHistory) > 0 {
				fmt.Println("  History:")
				for _, ch := range art.StatusHistory {
					fmt.Printf("    %s  %s -> %s  (%s)\n",
						ch.At.Format("2006-01-02 15:04"), ch.From, ch.To, ch.By)
				}
			}
			return nil
		},
	}
}

func promoteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <id> <status>",
		Short: "Transition an artifact to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			updated, err := a.manager.Transition(cmd.Context(), id, artifact.Status(args[1]), a.author())
			if err != nil {
				return err
			}

			pub, closeFn := a.connectEvents()
			defer closeFn()
			if n := len(updated.StatusHistory); n > 0 {
				if err := pub.Transitioned(updated, updated.StatusHistory[n-1]); err != nil {
					a.logger.Warn("Failed to publish event", "error", err)
				}
			}

			fmt.Printf("%s is now %s\n", updated.ID, updated.Status)
			return nil
		},
	}
}

func supersedeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "supersede <id> <title>",
		Short: "Replace an artifact with a successor",
		Long: `Create a successor draft for an artifact that can no longer be
edited. The successor inherits the original's parents, and the two
are linked through supersedes/superseded_by.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			successor, err := a.manager.Supersede(ctx, id, args[1], a.author())
			if err != nil {
				return err
			}

			pub, closeFn := a.connectEvents()
			defer closeFn()
			if old, err := a.manager.Load(ctx, id); err == nil {
				if err := pub.Superseded(old, successor, a.author()); err != nil {
					a.logger.Warn("Failed to publish event", "error", err)
				}
			}

			fmt.Printf("%s superseded by %s\n", id, successor.ID)
			return nil
		},
	}
}

func archiveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Move a terminal artifact to the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			if err := a.manager.Archive(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Printf("Archived %s\n", id)
			return nil
		},
	}
}
