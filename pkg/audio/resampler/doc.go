// Package resampler converts 16-bit PCM between sample rates and between mono
// and stereo.
//
// Rate conversion is done by github.com/tphakala/go-audio-resampling, a
// pure Go implementation, so no C library is required. Channel conversion
// averages (stereo to mono) or duplicates (mono to stereo) samples.
//
// Streaming use:
//
//	src := resampler.Format{SampleRate: 44100, Stereo: true}
//	dst := resampler.Format{SampleRate: 22050, Stereo: false}
//	r, err := resampler.New(audioReader, src, dst)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	io.Copy(output, r)
//
// Whole-buffer use:
//
//	mono, err := resampler.Convert(pcmBytes, src, dst)
package resampler
