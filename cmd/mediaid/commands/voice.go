package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mediaid/mediaid/pkg/audio/pcm"
	"github.com/mediaid/mediaid/pkg/audio/portaudio"
	"github.com/mediaid/mediaid/pkg/audio/wavsplit"
	"github.com/mediaid/mediaid/pkg/cli"
	"github.com/mediaid/mediaid/pkg/ml/dataset"
	"github.com/mediaid/mediaid/pkg/ml/svm"
	"github.com/mediaid/mediaid/pkg/voice"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Voice capture and speaker identification",
	Long: `Record voices, cut recordings into clips and identify speakers.

A voice set is a folder of {speaker}_{n}.wav clips. Speakers and their
labels come from the current context.

Typical workflow:
  mediaid voice record --name kana --seconds 30
  mediaid voice split --name kana --number 0 --start 0 --cut 1
  mediaid voice eval
  mediaid voice identify`,
}

func init() {
	voiceCmd.AddCommand(voiceRecordCmd)
	voiceCmd.AddCommand(voiceSplitCmd)
	voiceCmd.AddCommand(voiceEvalCmd)
	voiceCmd.AddCommand(voiceIdentifyCmd)
	rootCmd.AddCommand(voiceCmd)
}

// ============================================================================
// record
// ============================================================================

var (
	recordName    string
	recordSeconds int
	recordDir     string
)

var voiceRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a voice from the default input device",
	Long: `Record from the default input device and save {name}_0.wav.

Missing flags are asked for interactively.

Examples:
  mediaid voice record
  mediaid voice record --name kana --seconds 10 --dir raw`,
	Args: cobra.NoArgs,
	RunE: runVoiceRecord,
}

func init() {
	voiceRecordCmd.Flags().StringVar(&recordName, "name", "", "speaker name")
	voiceRecordCmd.Flags().IntVar(&recordSeconds, "seconds", 0, "recording length in seconds")
	voiceRecordCmd.Flags().StringVar(&recordDir, "dir", ".", "output directory")
}

func runVoiceRecord(cmd *cobra.Command, args []string) error {
	ctx, err := getContext()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	prompt := cli.NewPrompter(cmd.InOrStdin(), out)
	if recordName == "" {
		if recordName, err = prompt.String("Whose voice do you want to record? "); err != nil {
			return err
		}
	}
	if recordSeconds == 0 {
		if recordSeconds, err = prompt.Int("How long do you want to record? "); err != nil {
			return err
		}
	}
	if recordName == "" {
		return errors.New("speaker name is required")
	}
	if recordSeconds <= 0 {
		return fmt.Errorf("recording length must be positive, got %d", recordSeconds)
	}

	format, err := pcm.Lookup(ctx.Record.SampleRate, ctx.Record.Channels)
	if err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}
	defer portaudio.Terminate()

	in, err := portaudio.NewInputStream(format, time.Duration(ctx.Record.BufferMS)*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	defer in.Close()

	sigCtx, cancel := signalContext()
	defer cancel()

	fmt.Fprintln(out, "recording...")
	data, err := voice.Record(sigCtx, in, format, time.Duration(recordSeconds)*time.Second)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "stop recording...")

	if err := os.MkdirAll(recordDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(recordDir, wavsplit.OutputName(recordName, 0))
	if err := voice.SaveRecording(path, format, data); err != nil {
		return err
	}
	if outputFormat().Structured() {
		return outputResult(map[string]any{
			"file":     path,
			"format":   format.String(),
			"duration": format.Duration(int64(len(data))).String(),
		})
	}
	cli.PrintSuccess("Saved %s (%s)", path, cli.FormatDuration(format.Duration(int64(len(data)))))
	return nil
}

// ============================================================================
// split
// ============================================================================

var (
	splitName  string
	splitNum   int
	splitStart int
	splitCut   int
	splitSrc   string
	splitOut   string
)

var voiceSplitCmd = &cobra.Command{
	Use:   "split",
	Short: "Cut a recording into fixed-length clips",
	Long: `Cut {src}/{name}_{number}.wav into clips of --cut seconds, written to
the voice set as {name}_{start}.wav, {name}_{start+1}.wav, ...

Missing flags are asked for interactively. The trailing remainder
shorter than one cut is dropped.

Examples:
  mediaid voice split
  mediaid voice split --name kana --number 0 --start 0 --cut 1`,
	Args: cobra.NoArgs,
	RunE: runVoiceSplit,
}

func init() {
	f := voiceSplitCmd.Flags()
	f.StringVar(&splitName, "name", "", "speaker name")
	f.IntVar(&splitNum, "number", 0, "recording number")
	f.IntVar(&splitStart, "start", 0, "first output clip number")
	f.IntVar(&splitCut, "cut", 0, "clip length in seconds")
	f.StringVar(&splitSrc, "src", ".", "directory holding the recording")
	f.StringVar(&splitOut, "out", "", "output directory (default: the context's voice set)")
}

func runVoiceSplit(cmd *cobra.Command, args []string) error {
	ctx, err := getContext()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	flags := cmd.Flags()
	prompt := cli.NewPrompter(cmd.InOrStdin(), out)
	if splitName == "" {
		if splitName, err = prompt.String("input name = \n"); err != nil {
			return err
		}
	}
	if !flags.Changed("number") {
		if splitNum, err = prompt.Int("input number = \n"); err != nil {
			return err
		}
	}
	if !flags.Changed("start") {
		if splitStart, err = prompt.Int("start of output number = \n"); err != nil {
			return err
		}
	}
	if !flags.Changed("cut") {
		s, err := prompt.String("cut time = \n")
		if err != nil {
			return err
		}
		if splitCut, err = wavsplit.ParseCutTime(s); err != nil {
			return err
		}
	}

	outDir := splitOut
	if outDir == "" {
		outDir = ctx.Voice.Dir
	}
	src := filepath.Join(splitSrc, fmt.Sprintf("%s_%d.wav", splitName, splitNum))
	res, err := wavsplit.SplitFile(src, outDir, splitName, splitStart, splitCut)
	if err != nil {
		return err
	}

	if outputFormat().Structured() {
		return outputResult(res)
	}
	p := res.Plan
	fmt.Fprintln(out, "Channel: ", p.Channels)
	fmt.Fprintln(out, "Sample width: ", p.SampleWidth())
	fmt.Fprintln(out, "Frame Rate: ", p.SampleRate)
	fmt.Fprintln(out, "Frame num: ", p.Frames)
	fmt.Fprintln(out, "Total time: ", p.TotalTime)
	fmt.Fprintln(out, "Total time(integer)", p.WholeSeconds)
	fmt.Fprintln(out, "Time: ", p.CutTime)
	fmt.Fprintln(out, "Frames: ", p.SamplesPerCut)
	fmt.Fprintln(out, "Number of cut: ", p.NumCuts)
	for _, f := range res.Files {
		fmt.Fprintln(out, styles.Help.Render(f))
	}
	return nil
}

// ============================================================================
// eval / identify
// ============================================================================

var (
	voiceDir      string
	voiceTestSize int
	voiceSeed     uint64
	voiceFeatures string
)

var voiceEvalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score the speaker identifier on held-out clips",
	Long: `Load the voice set, hold out --test-size clips, train an MFCC + SVM
identifier on the rest and identify each held-out clip.

Examples:
  mediaid voice eval
  mediaid voice eval --test-size 10 --seed 3
  mediaid voice eval --json`,
	Args: cobra.NoArgs,
	RunE: runVoiceEval,
}

var voiceIdentifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Identify speakers of clips typed at a prompt",
	Long: `Train the identifier on the voice set, then repeatedly ask for a clip
name (without .wav, relative to the voice set) and print its speaker.

Answer "n" to stop.`,
	Args: cobra.NoArgs,
	RunE: runVoiceIdentify,
}

func init() {
	voiceEvalCmd.Flags().StringVar(&voiceDir, "dir", "", "voice set directory (default: from context)")
	voiceEvalCmd.Flags().IntVar(&voiceTestSize, "test-size", 0, "number of held-out clips (default: from context)")
	voiceEvalCmd.Flags().Uint64Var(&voiceSeed, "seed", 0, "shuffle seed (default: from context)")

	voiceIdentifyCmd.Flags().StringVar(&voiceDir, "dir", "", "voice set directory (default: from context)")
	voiceIdentifyCmd.Flags().Uint64Var(&voiceSeed, "seed", 0, "shuffle seed (default: from context)")

	for _, c := range []*cobra.Command{voiceEvalCmd, voiceIdentifyCmd} {
		c.Flags().StringVar(&voiceFeatures, "features", "", "frame features, mfcc or logmel (default: from context)")
	}
}

// voiceSetup holds what eval and identify share.
type voiceSetup struct {
	dir      string
	seed     uint64
	speakers *voice.Speakers
	features voice.Extractor
	svm      []svm.Option
}

func newVoiceSetup(cmd *cobra.Command, s cli.VoiceSettings) (*voiceSetup, error) {
	list := make([]voice.Speaker, len(s.Speakers))
	for i, e := range s.Speakers {
		list[i] = voice.Speaker{Name: e.Name, ID: e.ID}
	}
	speakers, err := voice.NewSpeakers(list)
	if err != nil {
		return nil, err
	}
	kind := s.Features
	if cmd.Flags().Changed("features") {
		kind = voiceFeatures
	}
	features, err := voice.NewExtractor(voice.FeatureKind(kind), voice.WithCMVN(s.CMVN))
	if err != nil {
		return nil, err
	}

	vs := &voiceSetup{
		dir:      s.Dir,
		seed:     s.Seed,
		speakers: speakers,
		features: features,
		svm:      []svm.Option{svm.WithGamma(s.Gamma), svm.WithC(s.C)},
	}
	if cmd.Flags().Changed("dir") {
		vs.dir = voiceDir
	}
	if cmd.Flags().Changed("seed") {
		vs.seed = voiceSeed
	}
	return vs, nil
}

// load extracts the features of every clip in the voice set.
func (vs *voiceSetup) load() ([]voice.Sample, error) {
	sigCtx, cancel := signalContext()
	defer cancel()

	bar := cli.NewProgress(progressWriter(), "reading clips", "clips", 0)
	samples, err := voice.LoadDir(sigCtx, vs.dir, vs.speakers, vs.features, voice.LoadOptions{Progress: bar.Update})
	bar.Finish()
	return samples, err
}

func runVoiceEval(cmd *cobra.Command, args []string) error {
	ctx, err := getContext()
	if err != nil {
		return err
	}
	vs, err := newVoiceSetup(cmd, ctx.Voice)
	if err != nil {
		return err
	}
	testSize := ctx.Voice.TestSize
	if cmd.Flags().Changed("test-size") {
		testSize = voiceTestSize
	}
	if testSize <= 0 {
		return fmt.Errorf("%w: test size %d", dataset.ErrSplitSize, testSize)
	}

	samples, err := vs.load()
	if err != nil {
		return err
	}

	sigCtx, cancel := signalContext()
	defer cancel()
	report, err := voice.Evaluate(sigCtx, samples, vs.speakers, voice.EvalOptions{
		Split: dataset.SplitOptions{TestSize: dataset.Count(testSize), Seed: vs.seed},
		SVM:   vs.svm,
	})
	if err != nil {
		return err
	}

	if outputFormat().Structured() {
		return outputResult(report)
	}
	out := cmd.OutOrStdout()
	for _, r := range report.Results {
		fmt.Fprintf(out, "%s file: %s, actual: %d, expected: %d\n", styles.Mark(r.OK), r.File, r.Predicted, r.Expected)
	}
	fmt.Fprintf(out, "\n%d/%d: %s%%\n\n", report.OK, report.Total, cli.FormatPercent(report.Percent))
	return nil
}

func runVoiceIdentify(cmd *cobra.Command, args []string) error {
	ctx, err := getContext()
	if err != nil {
		return err
	}
	vs, err := newVoiceSetup(cmd, ctx.Voice)
	if err != nil {
		return err
	}

	samples, err := vs.load()
	if err != nil {
		return err
	}
	train, _, err := dataset.Split(samples, dataset.SplitOptions{Seed: vs.seed})
	if err != nil {
		return err
	}

	sigCtx, cancel := signalContext()
	defer cancel()
	id, err := voice.Train(sigCtx, train, vs.speakers, vs.svm...)
	if err != nil {
		return err
	}

	session := &voice.Session{
		Identifier: id,
		Extractor:  vs.features,
		Dir:        vs.dir,
		In:         cmd.InOrStdin(),
		Out:        cmd.OutOrStdout(),
	}
	if err := session.Run(sigCtx); err != nil {
		return err
	}
	slog.Debug("identify session ended", "classified", session.Classified)
	return nil
}
