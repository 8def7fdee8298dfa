package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mediaid/mediaid/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

Contexts allow you to keep several dataset layouts side by side,
similar to kubectl's context management.

Configuration is stored in ~/.mediaid/config.yaml`,
}

var (
	addImages   string
	addLabels   string
	addVoiceDir string
)

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with the specified name. Unset fields take the
reference dataset defaults.

Example:
  mediaid config add-context lab --images ~/data/faces --voice-dir ~/data/voices`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := getConfig()
		if err != nil {
			return err
		}

		ctx := &cli.Context{}
		ctx.Face.ImageDir = addImages
		ctx.Face.Labels = addLabels
		ctx.Voice.Dir = addVoiceDir
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q added successfully", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(name); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q deleted", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(name); err != nil {
			return err
		}

		cli.PrintSuccess("Switched to context %q", name)
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}

		if cfg.CurrentContext == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No current context set")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.CurrentContext)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}

		names := cfg.ListContexts()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tIMAGES\tVOICE_SET")
		for _, name := range names {
			ctx := cfg.Contexts[name]
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", current, name, ctx.Face.ImageDir, ctx.Voice.Dir)
		}
		return w.Flush()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the resolved context",
	Long: `Print the context selected by -c (or the current one) with all
defaults applied. Text output is YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		ctx, err := getContext()
		if err != nil {
			return err
		}

		format := outputFormat()
		if !format.Structured() {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.Path())
			format = cli.FormatYAML
		}
		return cli.Output(ctx, cli.OutputOptions{Format: format})
	},
}

func init() {
	configAddContextCmd.Flags().StringVar(&addImages, "images", "", "face image directory")
	configAddContextCmd.Flags().StringVar(&addLabels, "labels", "", "face label table (CSV)")
	configAddContextCmd.Flags().StringVar(&addVoiceDir, "voice-dir", "", "voice set directory")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
	rootCmd.AddCommand(configCmd)
}
