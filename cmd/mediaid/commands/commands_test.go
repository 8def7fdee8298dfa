package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mediaid/mediaid/pkg/audio/wavfile"
)

// setupTestEnv points the CLI at a config file in a temp dir.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(envConfig, path)
	t.Setenv(envContext, "")
	t.Setenv(envLogLevel, "")
	return path
}

func runCmd(t *testing.T, stdin io.Reader, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	cfgFile = ""
	contextName = ""
	outputJSON = false
	outputYAML = false
	verbose = false
	logFile = ""

	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	rootCmd.SetIn(nil)

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		if stderr == "" {
			stderr = err.Error()
		}
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// writeRecording writes seconds of a mono 8 kHz ramp as {dir}/{name}.
func writeRecording(t *testing.T, dir, name string, seconds float64) {
	t.Helper()
	samples := make([]int, int(seconds*8000))
	for i := range samples {
		samples[i] = i % 1000
	}
	clip, err := wavfile.NewClip(1, 8000, 16, samples)
	if err != nil {
		t.Fatal(err)
	}
	if err := wavfile.Write(filepath.Join(dir, name), clip); err != nil {
		t.Fatal(err)
	}
}

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, nil, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "mediaid") {
		t.Fatalf("expected 'mediaid', got: %s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, nil, "version", "--json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestConfigContexts(t *testing.T) {
	path := setupTestEnv(t)

	if _, stderr, code := runCmd(t, nil, "config", "add-context", "lab", "--voice-dir", "clips"); code != 0 {
		t.Fatalf("add-context: %s", stderr)
	}
	if _, stderr, code := runCmd(t, nil, "config", "use-context", "lab"); code != 0 {
		t.Fatalf("use-context: %s", stderr)
	}

	stdout, _, code := runCmd(t, nil, "config", "get-context")
	if code != 0 || strings.TrimSpace(stdout) != "lab" {
		t.Fatalf("get-context = %q (exit %d)", stdout, code)
	}

	stdout, _, _ = runCmd(t, nil, "config", "list-contexts")
	if !strings.Contains(stdout, "default") || !strings.Contains(stdout, "clips") {
		t.Fatalf("list-contexts missing rows:\n%s", stdout)
	}

	stdout, _, code = runCmd(t, nil, "config", "view", "--json")
	if code != 0 {
		t.Fatalf("view exit %d", code)
	}
	if !strings.Contains(stdout, `"dir": "clips"`) {
		t.Fatalf("view did not resolve lab:\n%s", stdout)
	}

	if _, stderr, code := runCmd(t, nil, "config", "delete-context", "lab"); code != 0 {
		t.Fatalf("delete-context: %s", stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "lab") {
		t.Fatalf("lab still saved:\n%s", data)
	}
}

func TestConfigUnknownContext(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCmd(t, nil, "config", "use-context", "nope")
	if code == 0 {
		t.Fatal("expected failure")
	}
	if !strings.Contains(stderr, "nope") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestVoiceSplit(t *testing.T) {
	setupTestEnv(t)
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "voiceset")
	writeRecording(t, src, "kana_0.wav", 2.5)

	stdout, stderr, code := runCmd(t, nil, "voice", "split",
		"--name", "kana", "--number", "0", "--start", "5", "--cut", "1",
		"--src", src, "--out", out)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"Channel:  1", "Frame Rate:  8000", "Frames:  8000", "Number of cut:  2"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	for _, name := range []string{"kana_5.wav", "kana_6.wav"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "kana_7.wav")); !os.IsNotExist(err) {
		t.Errorf("remainder was written: %v", err)
	}
}

func TestVoiceSplitPrompts(t *testing.T) {
	setupTestEnv(t)
	src := t.TempDir()
	out := t.TempDir()
	writeRecording(t, src, "miku_2.wav", 3)

	stdin := strings.NewReader("miku\n2\n0\n3\n")
	stdout, stderr, code := runCmd(t, stdin, "voice", "split", "--src", src, "--out", out)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"input name = ", "input number = ", "start of output number = ", "cut time = ", "Number of cut:  1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "miku_0.wav")); err != nil {
		t.Error(err)
	}
}

func TestVoiceSplitErrors(t *testing.T) {
	setupTestEnv(t)
	src := t.TempDir()
	writeRecording(t, src, "kana_0.wav", 1)

	tests := []struct {
		name string
		args []string
	}{
		{"zero cut", []string{"--name", "kana", "--number", "0", "--start", "0", "--cut", "0"}},
		{"missing recording", []string{"--name", "kana", "--number", "9", "--start", "0", "--cut", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"voice", "split", "--src", src, "--out", t.TempDir()}, tt.args...)
			if _, _, code := runCmd(t, nil, args...); code == 0 {
				t.Fatal("expected failure")
			}
		})
	}
}

func TestFaceRunMissingImages(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	labels := filepath.Join(dir, "labels.csv")
	if err := os.WriteFile(labels, []byte("index,Emma\n0,1\n1,0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, code := runCmd(t, nil, "face", "run",
		"--images", filepath.Join(dir, "missing"), "--labels", labels,
		"--count", "2", "--names", "Emma", "--train-size", "1", "-k", "1")
	if code == 0 {
		t.Fatal("expected failure")
	}
}

// writeTone writes a half-second 22.05 kHz sine clip.
func writeTone(t *testing.T, path string, freq float64, phase int) {
	t.Helper()
	samples := make([]int, 11025)
	for i := range samples {
		samples[i] = int(9000 * math.Sin(2*math.Pi*freq*float64(i+phase*37)/22050))
	}
	clip, err := wavfile.NewClip(1, 22050, 16, samples)
	if err != nil {
		t.Fatal(err)
	}
	if err := wavfile.Write(path, clip); err != nil {
		t.Fatal(err)
	}
}

func TestVoiceEval(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	for i := range 4 {
		writeTone(t, filepath.Join(dir, fmt.Sprintf("kana_%d.wav", i)), 300, i)
		writeTone(t, filepath.Join(dir, fmt.Sprintf("miku_%d.wav", i)), 3000, i)
	}

	stdout, stderr, code := runCmd(t, nil, "voice", "eval", "--dir", dir, "--test-size", "3")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	lines := 0
	for _, line := range strings.Split(stdout, "\n") {
		if !strings.Contains(line, " file: ") {
			continue
		}
		lines++
		if !strings.Contains(line, ", actual: ") || !strings.Contains(line, ", expected: ") {
			t.Errorf("malformed result line %q", line)
		}
	}
	if lines != 3 {
		t.Errorf("got %d result lines, want 3:\n%s", lines, stdout)
	}
	if !strings.Contains(stdout, "\n3/3: 100%\n") {
		t.Errorf("summary missing:\n%s", stdout)
	}
}

func TestVoiceEvalBadTestSize(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	writeTone(t, filepath.Join(dir, "kana_0.wav"), 300, 0)

	for _, size := range []string{"0", "-3"} {
		if _, _, code := runCmd(t, nil, "voice", "eval", "--dir", dir, "--test-size", size); code == 0 {
			t.Errorf("--test-size %s: expected failure", size)
		}
	}
}

func TestFaceRun(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	var labels strings.Builder
	labels.WriteString("index,Bright\n")
	for i := range 20 {
		bright := i % 2
		level := uint8(30)
		if bright == 1 {
			level = 220
		}
		img := image.NewGray(image.Rect(0, 0, 8, 8))
		for p := range img.Pix {
			img.Pix[p] = level
		}
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%d.png", i)))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
		fmt.Fprintf(&labels, "%d,%d\n", i, bright)
	}
	labelPath := filepath.Join(dir, "labels.csv")
	if err := os.WriteFile(labelPath, []byte(labels.String()), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCmd(t, nil, "face", "run",
		"--images", dir, "--labels", labelPath, "--pattern", "%d.png",
		"--count", "20", "--names", "Bright", "--train-size", "15", "-k", "3", "--json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{`"name": "Bright"`, `"accuracy": 1`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, code = runCmd(t, nil, "face", "run",
		"--images", dir, "--labels", labelPath, "--pattern", "%d.png",
		"--count", "20", "--names", "Bright", "--train-size", "15", "-k", "3")
	if code != 0 {
		t.Fatal("text run failed")
	}
	if !strings.Contains(stdout, "Bright") || !strings.HasSuffix(strings.TrimSpace(stdout), "\n1") {
		t.Errorf("text output:\n%s", stdout)
	}
}

func TestFaceRunNegativeCount(t *testing.T) {
	setupTestEnv(t)
	_, _, code := runCmd(t, nil, "face", "run", "--count", "-1")
	if code == 0 {
		t.Fatal("expected failure")
	}
}
