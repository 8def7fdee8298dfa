package fbank

import (
	"errors"
	"math"
	"testing"
)

func sine(n, rate int, hz, amp float64) []float32 {
	pcm := make([]float32, n)
	for i := range pcm {
		pcm[i] = float32(amp * math.Sin(2*math.Pi*hz*float64(i)/float64(rate)))
	}
	return pcm
}

func TestWindows(t *testing.T) {
	w := hammingWindow(400)
	if math.Abs(w[0]-0.08) > 0.01 {
		t.Errorf("hamming w[0] = %f, want ~0.08", w[0])
	}
	if math.Abs(w[199]-1.0) > 0.02 {
		t.Errorf("hamming w[199] = %f, want ~1.0", w[199])
	}

	h := hannWindow(2048)
	if h[0] != 0 {
		t.Errorf("hann w[0] = %f, want 0", h[0])
	}
	if math.Abs(h[1024]-1.0) > 1e-12 {
		t.Errorf("hann w[1024] = %f, want 1", h[1024])
	}
}

func TestMelConversion(t *testing.T) {
	// HTK: hzToMel(1000) = 2595 * log10(1 + 1000/700) ≈ 1000.45
	mel := hzToMel(1000)
	if math.Abs(mel-1000.45) > 1.0 {
		t.Errorf("hzToMel(1000) = %f, want ~1000.45", mel)
	}
	if hz := melToHz(mel); math.Abs(hz-1000) > 0.1 {
		t.Errorf("melToHz(hzToMel(1000)) = %f, want 1000", hz)
	}

	// Slaney: linear part, knee and round trip above the knee.
	if got := hzToSlaney(500); math.Abs(got-7.5) > 1e-9 {
		t.Errorf("hzToSlaney(500) = %f, want 7.5", got)
	}
	if got := hzToSlaney(1000); math.Abs(got-15) > 1e-9 {
		t.Errorf("hzToSlaney(1000) = %f, want 15", got)
	}
	if hz := slaneyToHz(hzToSlaney(4000)); math.Abs(hz-4000) > 1e-6 {
		t.Errorf("slaney round trip = %f, want 4000", hz)
	}
}

func TestFilterBanks(t *testing.T) {
	for name, bank := range map[string][][]float64{
		"htk":     melFilterBank(80, 512, 16000, 20, 7600),
		"slaney":  slaneyFilterBank(128, 2048, 22050, 0, 11025),
		"slaney2": slaneyFilterBank(40, 512, 16000, 0, 8000),
	} {
		for i, f := range bank {
			nonZero := false
			for _, v := range f {
				if v < 0 {
					t.Fatalf("%s: filter %d has negative weight", name, i)
				}
				if v > 0 {
					nonZero = true
				}
			}
			if !nonZero {
				t.Errorf("%s: filter %d is all zeros", name, i)
			}
		}
	}
}

func TestDCTOrthonormal(t *testing.T) {
	n := 16
	basis := dctMatrix(n, n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			dot := 0.0
			for i := 0; i < n; i++ {
				dot += basis[a][i] * basis[b][i]
			}
			want := 0.0
			if a == b {
				want = 1
			}
			if math.Abs(dot-want) > 1e-9 {
				t.Fatalf("<row %d, row %d> = %f, want %f", a, b, dot, want)
			}
		}
	}
}

func TestExtract(t *testing.T) {
	cfg := DefaultConfig()
	ext := New(cfg)

	n := 16000
	features := ext.Extract(sine(n, 16000, 440, 1))
	expectedFrames := (n-cfg.WindowSize)/cfg.HopSize + 1
	if len(features) != expectedFrames {
		t.Fatalf("expected %d frames, got %d", expectedFrames, len(features))
	}
	if len(features[0]) != 80 {
		t.Fatalf("expected 80 mels, got %d", len(features[0]))
	}
	for i, f := range features {
		for j, v := range f {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("features[%d][%d] = %f (not finite)", i, j, v)
			}
		}
	}
}

func TestExtractTooShort(t *testing.T) {
	ext := New(DefaultConfig())
	if got := ext.Extract(make([]float32, 100)); got != nil {
		t.Fatalf("expected nil for short input, got %d frames", len(got))
	}
}

func TestMFCCShape(t *testing.T) {
	cfg := MFCCConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	ext := New(cfg)

	for _, n := range []int{100, 22050, 22050*2 + 7} {
		ceps := ext.MFCC(sine(n, 22050, 220, 0.5))
		if want := 1 + n/512; len(ceps) != want {
			t.Fatalf("n=%d: %d frames, want %d", n, len(ceps), want)
		}
		for i, row := range ceps {
			if len(row) != 20 {
				t.Fatalf("frame %d has %d coefficients", i, len(row))
			}
			for _, v := range row {
				if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
					t.Fatalf("frame %d not finite", i)
				}
			}
		}
	}
}

func TestMFCCSilenceIsFlat(t *testing.T) {
	ext := New(MFCCConfig())
	ceps := ext.MFCC(make([]float32, 22050))
	// Silence is -100 dB in every band: only c0 is non-zero.
	want0 := -100 * math.Sqrt(128)
	for i, row := range ceps {
		if math.Abs(float64(row[0])-want0) > 1e-2 {
			t.Fatalf("frame %d c0 = %f, want %f", i, row[0], want0)
		}
		for k := 1; k < len(row); k++ {
			if math.Abs(float64(row[k])) > 1e-3 {
				t.Fatalf("frame %d c%d = %f, want 0", i, k, row[k])
			}
		}
	}
}

func TestMFCCSeparatesTones(t *testing.T) {
	ext := New(MFCCConfig())
	low := ext.MFCC(sine(22050, 22050, 200, 0.5))
	high := ext.MFCC(sine(22050, 22050, 3000, 0.5))

	mid := len(low) / 2
	dist := 0.0
	for k := range low[mid] {
		d := float64(low[mid][k] - high[mid][k])
		dist += d * d
	}
	if math.Sqrt(dist) < 1 {
		t.Fatalf("200Hz and 3kHz frames are too close: %f", math.Sqrt(dist))
	}
}

func TestValidate(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.FFTSize = 1000 },
		func(c *Config) { c.WindowSize = 4096 },
		func(c *Config) { c.HopSize = 0 },
		func(c *Config) { c.HighFreq = 20000 },
		func(c *Config) { c.NumCeps = 200 },
		func(c *Config) { c.SampleRate = 0 },
	}
	for i, mutate := range bad {
		cfg := MFCCConfig()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
			t.Errorf("case %d: err = %v, want ErrConfig", i, err)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig: %v", err)
	}
}

func TestDense(t *testing.T) {
	m, err := Dense([][]float32{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatal(err)
	}
	r, c := m.Dims()
	if r != 2 || c != 3 {
		t.Fatalf("dims = %dx%d, want 2x3", r, c)
	}
	if m.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %f, want 6", m.At(1, 2))
	}
	if _, err := Dense([][]float32{{1, 2}, {3}}); err == nil {
		t.Error("expected error for ragged rows")
	}
	if _, err := Dense(nil); err == nil {
		t.Error("expected error for no frames")
	}
}

func TestCMVN(t *testing.T) {
	ext := New(DefaultConfig())
	features := ext.Extract(sine(16000, 16000, 440, 0.5))
	CMVN(features)

	numMels := len(features[0])
	for m := 0; m < numMels; m++ {
		sum := float64(0)
		for _, f := range features {
			sum += float64(f[m])
		}
		mean := sum / float64(len(features))
		if math.Abs(mean) > 0.01 {
			t.Errorf("mel[%d] mean = %f, want ~0", m, mean)
		}
	}
}

func BenchmarkMFCC(b *testing.B) {
	ext := New(MFCCConfig())
	pcm := sine(22050*3, 22050, 440, 0.5)

	b.ResetTimer()
	b.ReportAllocs()
	for range b.N {
		_ = ext.MFCC(pcm)
	}
}
