// Package audio is the umbrella for the audio sub-packages:
//
//   - pcm: raw 16-bit PCM formats and chunks
//   - portaudio: microphone capture (cgo)
//   - resampler: sample rate and channel conversion
//   - wavfile: WAV decoding and encoding
//   - wavsplit: cutting recordings into fixed-length clips
//   - fbank: mel filterbank and MFCC features
//
// Example usage:
//
//	clip, err := wavfile.Read("kana_0.wav")
//	if err != nil {
//	    return err
//	}
//	pieces, plan, err := wavsplit.Split(clip, 1)
package audio
