package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/airsdlc/airtrack/playbook"
)

func playbookCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playbook",
		Short: "Curate playbook patterns",
	}

	cmd.AddCommand(playbookFromCmd(flags))
	cmd.AddCommand(playbookImportCmd(flags))

	return cmd
}

func (a *app) curator() *playbook.Curator {
	return playbook.NewCurator(a.manager, playbook.CuratorConfig{
		FetchTimeout:   a.cfg.Import.Timeout,
		MaxContentSize: a.cfg.Import.MaxContentSize,
		UserAgent:      a.cfg.Import.UserAgent,
	})
}

func playbookFromCmd(flags *globalFlags) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "from <postmortem-id>",
		Short: "Distill a published post-mortem into a pattern",
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

			pattern, err := a.curator().FromPostMortem(cmd.Context(), id, title, a.author())
			if err != nil {
				return err
			}

			fmt.Printf("Created %s from %s\n", pattern.ID, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Pattern title (default: post-mortem title)")

	return cmd
}

func playbookImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <url>",
		Short: "Import an external documentation page as a pattern",
		Long: `Fetch an HTTPS documentation page, convert it to markdown, and
store it as a draft pattern. Private addresses and non-HTTPS URLs
are refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			pattern, err := a.curator().Import(cmd.Context(), args[0], a.author())
			if err != nil {
				return err
			}

			fmt.Printf("Imported %s as %s\n", args[0], pattern.ID)
			return nil
		},
	}
}
