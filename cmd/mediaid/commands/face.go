package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediaid/mediaid/pkg/cli"
	"github.com/mediaid/mediaid/pkg/face"
)

var faceCmd = &cobra.Command{
	Use:   "face",
	Short: "Face histogram classification",
	Long: `Classify face images with grayscale histograms and K-nearest-neighbours.

Images are read as {image_dir}/0.jpg .. {image_dir}/{count-1}.jpg and
labelled by the columns of a CSV table, one row per image.`,
}

var (
	faceImages    string
	faceLabels    string
	facePattern   string
	faceCount     int
	faceNames     []string
	faceTrainSize int
	faceK         int
	faceSeed      uint64
)

var faceRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Train and score one classifier per name",
	Long: `Split the images into a training and a test part, fit a K-NN classifier
for each name column and report its predictions on the test part.

Flags override the current context's face settings.

Examples:
  mediaid face run
  mediaid face run --names Emma --train-size 70 -k 3
  mediaid face run --json`,
	Args: cobra.NoArgs,
	RunE: runFace,
}

func init() {
	f := faceRunCmd.Flags()
	f.StringVar(&faceImages, "images", "", "image directory")
	f.StringVar(&faceLabels, "labels", "", "label table (CSV)")
	f.StringVar(&facePattern, "pattern", "", "image file name pattern, e.g. %d.jpg")
	f.IntVar(&faceCount, "count", 0, "number of images")
	f.StringSliceVar(&faceNames, "names", nil, "label columns to classify")
	f.IntVar(&faceTrainSize, "train-size", 0, "number of training images")
	f.IntVarP(&faceK, "neighbors", "k", 0, "number of neighbours")
	f.Uint64Var(&faceSeed, "seed", 0, "shuffle seed")

	faceCmd.AddCommand(faceRunCmd)
	rootCmd.AddCommand(faceCmd)
}

// faceConfig builds a run config from the context, overridden by the flags
// the user set.
func faceConfig(cmd *cobra.Command, s cli.FaceSettings) face.Config {
	cfg := face.Config{
		ImageDir:  s.ImageDir,
		Labels:    s.Labels,
		Pattern:   s.Pattern,
		Count:     s.Count,
		Names:     s.Names,
		TrainSize: s.TrainSize,
		K:         s.K,
		Seed:      s.Seed,
	}
	flags := cmd.Flags()
	if flags.Changed("images") {
		cfg.ImageDir = faceImages
	}
	if flags.Changed("labels") {
		cfg.Labels = faceLabels
	}
	if flags.Changed("pattern") {
		cfg.Pattern = facePattern
	}
	if flags.Changed("count") {
		cfg.Count = faceCount
	}
	if flags.Changed("names") {
		cfg.Names = faceNames
	}
	if flags.Changed("train-size") {
		cfg.TrainSize = faceTrainSize
	}
	if flags.Changed("neighbors") {
		cfg.K = faceK
	}
	if flags.Changed("seed") {
		cfg.Seed = faceSeed
	}
	return cfg
}

func runFace(cmd *cobra.Command, args []string) error {
	ctx, err := getContext()
	if err != nil {
		return err
	}
	cfg := faceConfig(cmd, ctx.Face)

	sigCtx, cancel := signalContext()
	defer cancel()

	bar := cli.NewProgress(progressWriter(), "loading images", "images", cfg.Count)
	results, err := face.Run(sigCtx, cfg, face.RunOptions{Progress: bar.Update})
	bar.Finish()
	if err != nil {
		return err
	}

	if outputFormat().Structured() {
		return outputResult(results)
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styles.Title.Render(r.Name))
		fmt.Fprintln(out, r.Predicted)
		fmt.Fprintln(out, r.Actual)
		fmt.Fprintln(out, r.Accuracy)
	}
	return nil
}
