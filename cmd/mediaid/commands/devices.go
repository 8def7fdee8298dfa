package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mediaid/mediaid/pkg/audio/portaudio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	Long: `List the audio devices PortAudio can see. The default input device,
marked with *, is the one 'mediaid voice record' captures from.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize audio: %w", err)
		}
		defer portaudio.Terminate()

		devices, err := portaudio.Devices()
		if err != nil {
			return err
		}
		if outputFormat().Structured() {
			return outputResult(devices)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DEFAULT\tINDEX\tNAME\tIN\tOUT\tRATE")
		for _, d := range devices {
			def := ""
			if d.IsDefaultInput {
				def = "*"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%g\n", def, d.Index, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
