package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/varlens/internal/app"
)

// rootFlags are shared by the TUI and every subcommand.
type rootFlags struct {
	configPath string
	prefsPath  string
	apiURL     string
	projectID  string
	appID      string
	mode       string
	search     string
	link       string
}

func (f *rootFlags) options() app.Options {
	return app.Options{
		ConfigPath: f.configPath,
		PrefsPath:  f.prefsPath,
		APIURL:     f.apiURL,
		ProjectID:  f.projectID,
		AppID:      f.appID,
		Mode:       f.mode,
		Search:     f.search,
		Link:       f.link,
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "varlens",
		Short: "Browse an app's configuration variants and their revisions",
		Long: `varlens lists the configuration variants of one app, their revision
history and where each variant is deployed.

Run without a subcommand to open the interactive browser. A deep link such as
"?variant=abc&revisions=def@3" pins the named variants, and the variants owning
the named revisions, to the top of the list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file path (default ~/.config/varlens/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "preferences file path (default ~/.config/varlens/prefs.toml)")
	pf.StringVar(&flags.apiURL, "api-url", "", "platform API base URL")
	pf.StringVar(&flags.projectID, "project", "", "project id")
	pf.StringVar(&flags.appID, "app", "", "app id")
	pf.StringVar(&flags.mode, "mode", "", "list mode: windowed, list or enhanced")
	pf.StringVar(&flags.search, "search", "", "server-side search term")
	pf.StringVar(&flags.link, "link", "", "deep link URL or query string")

	root.AddCommand(
		newListCmd(flags),
		newShowCmd(flags),
		newRevisionsCmd(flags),
		newLogsCmd(flags),
	)
	return root
}

func newListCmd(flags *rootFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the first page of variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			rt, err := app.Open(flags.options())
			if err != nil {
				return err
			}
			defer rt.Close()

			list, err := rt.Session.LoadList(cmd.Context())
			if err != nil {
				return fmt.Errorf("list variants: %w", err)
			}
			return writeVariants(cmd.OutOrStdout(), format, list)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func newShowCmd(flags *rootFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <variantID>",
		Short: "Print one variant with its parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			rt, err := app.Open(flags.options())
			if err != nil {
				return err
			}
			defer rt.Close()

			v, err := rt.Session.LoadVariant(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("show variant %s: %w", args[0], err)
			}
			return writeVariant(cmd.OutOrStdout(), format, v)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func newRevisionsCmd(flags *rootFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "revisions <variantID>",
		Short: "Print a variant's revision history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			rt, err := app.Open(flags.options())
			if err != nil {
				return err
			}
			defer rt.Close()

			revs, err := rt.Session.LoadRevisions(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list revisions of %s: %w", args[0], err)
			}
			return writeRevisions(cmd.OutOrStdout(), format, revs)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}
