package resampler

// Format describes one side of a conversion. Samples are always 16-bit
// signed little-endian.
type Format struct {
	// SampleRate is the sample rate in Hz (e.g., 22050, 44100).
	SampleRate int

	// Stereo indicates 2 interleaved channels if true, mono if false.
	Stereo bool
}

func (f Format) channels() int {
	if f.Stereo {
		return 2
	}
	return 1
}

// frameBytes is the size of one frame across all channels.
func (f Format) frameBytes() int {
	return f.channels() * 2
}
