package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/airsdlc/airtrack/artifact"
	"github.com/airsdlc/airtrack/lineage"
	"github.com/airsdlc/airtrack/validation"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [id]",
		Short: "Validate artifacts and the lineage graph",
		Long: `Check each document for its required sections, resolve parent and
supersedes references, verify markdown links between documents, and
report dangling lineage edges.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return runCheckOne(cmd, a, args[0])
			}

			artifacts, err := a.manager.List(cmd.Context())
			if err != nil {
				return err
			}

			results := validation.NewValidator().ValidateTree(artifacts)
			failures := 0
			for _, r := range results {
				if r.Valid {
					continue
				}
				failures++
				fmt.Print(r.FormatFeedback())
			}

			// Documents that fail to parse never make it into the list
			// above, so walk the tree for them separately.
			malformed, err := a.manager.Malformed(cmd.Context())
			if err != nil {
				return err
			}
			for _, doc := range malformed {
				failures++
				fmt.Printf("error: %s cannot be parsed: %v\n", doc.Path, doc.Err)
			}

			graph, err := lineage.Build(artifacts)
			if err != nil {
				return fmt.Errorf("lineage: %w", err)
			}
			for _, edge := range graph.Dangling() {
				fmt.Printf("warning: %s references missing artifact %s\n", edge.To, edge.From)
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d artifacts failed validation", failures, len(results)+len(malformed))
			}
			fmt.Printf("All %d artifacts valid\n", len(results))
			return nil
		},
	}
}

// runCheckOne validates a single document's structure.
func runCheckOne(cmd *cobra.Command, a *app, rawID string) error {
	id, err := parseIDArg(rawID)
	if err != nil {
		return err
	}

	art, err := a.manager.Load(cmd.Context(), id)
	if err != nil {
		return err
	}

	result := validation.NewValidator().ValidateDocument(art)
	if !result.Valid {
		fmt.Print(result.FormatFeedback())
		return fmt.Errorf("%s failed validation", id)
	}
	fmt.Printf("%s valid\n", id)
	return nil
}

func traceCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <id>",
		Short: "Show the lineage behind an artifact",
		Long:  "List every ancestor of an artifact, nearest first: the chain of documents that led to it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(cmd, flags, args[0], true)
		},
	}
}

func impactCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "impact <id>",
		Short: "Show what an artifact feeds into",
		Long:  "List every descendant of an artifact, nearest first: the documents affected if it changes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(cmd, flags, args[0], false)
		},
	}
}

func runWalk(cmd *cobra.Command, flags *globalFlags, rawID string, ancestors bool) error {
	a, err := newApp(flags)
	if err != nil {
		return err
	}

	id, err := parseIDArg(rawID)
	if err != nil {
		return err
	}

	artifacts, err := a.manager.List(cmd.Context())
	if err != nil {
		return err
	}

	graph, err := lineage.Build(artifacts)
	if err != nil {
		return err
	}

	var ids []artifact.ID
	if ancestors {
		ids, err = graph.Ancestors(id)
	} else {
		ids, err = graph.Descendants(id)
	}
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		fmt.Printf("%s has no %s\n", id, walkNoun(ancestors))
		return nil
	}

	for _, rel := range ids {
		if node, ok := graph.Node(rel); ok {
			fmt.Printf("%s  [%s]  %s\n", rel, node.Status, node.Title)
		} else {
			fmt.Printf("%s  [missing]\n", rel)
		}
	}
	return nil
}

func walkNoun(ancestors bool) string {
	if ancestors {
		return "ancestors"
	}
	return "descendants"
}

func graphCmd(flags *globalFlags) *cobra.Command {
	var dotOut string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the lineage graph",
		Long:  "Print the lineage graph in dependency order, or export it as Graphviz DOT with --dot.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			artifacts, err := a.manager.List(cmd.Context())
			if err != nil {
				return err
			}

			graph, err := lineage.Build(artifacts)
			if err != nil {
				return err
			}

			if dotOut != "" {
				if dotOut == "-" {
					return graph.WriteDOT(os.Stdout)
				}
				f, err := os.Create(dotOut)
				if err != nil {
					return err
				}
				defer f.Close()
				return graph.WriteDOT(f)
			}

			for _, id := range graph.TopoSort() {
				if node, ok := graph.Node(id); ok {
					fmt.Printf("%s  [%s]  %s\n", id, node.Status, node.Title)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dotOut, "dot", "", "Write Graphviz DOT to this file (- for stdout)")

	return cmd
}
