// Package pcm provides types for 16-bit linear PCM audio buffers.
//
// A Format names one of the sample-rate / channel-count combinations used by
// the capture and feature pipelines. Chunks carry raw little-endian int16
// frames in that format.
//
//	// 44.1kHz stereo, the capture format
//	format := pcm.L16Stereo44K
//
//	// bytes needed for five seconds of audio
//	n := format.BytesInDuration(5 * time.Second)
//
//	// pad a short capture with silence
//	chunk := format.SilenceChunk(100 * time.Millisecond)
package pcm
