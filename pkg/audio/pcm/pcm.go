package pcm

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

const (
	// L16Mono16K represents audio/L16; rate=16000; channels=1
	L16Mono16K Format = iota
	// L16Mono22K represents audio/L16; rate=22050; channels=1
	L16Mono22K
	// L16Mono44K represents audio/L16; rate=44100; channels=1
	L16Mono44K
	// L16Stereo44K represents audio/L16; rate=44100; channels=2
	L16Stereo44K
)

// Chunk is a chunk of audio data.
type Chunk interface {
	Len() int64
	Format() Format
	WriteTo(w io.Writer) (int64, error)
}

// Format represents an audio format configuration.
type Format int

// Lookup returns the format with the given sample rate and channel count.
func Lookup(sampleRate, channels int) (Format, error) {
	for _, f := range []Format{L16Mono16K, L16Mono22K, L16Mono44K, L16Stereo44K} {
		if f.SampleRate() == sampleRate && f.Channels() == channels {
			return f, nil
		}
	}
	return 0, fmt.Errorf("pcm: unsupported format rate=%d channels=%d", sampleRate, channels)
}

// SampleRate returns the sample rate in Hz for this format.
func (f Format) SampleRate() int {
	switch f {
	case L16Mono16K:
		return 16000
	case L16Mono22K:
		return 22050
	case L16Mono44K, L16Stereo44K:
		return 44100
	}
	panic("pcm: invalid audio type")
}

// Channels returns the number of audio channels for this format.
func (f Format) Channels() int {
	switch f {
	case L16Mono16K, L16Mono22K, L16Mono44K:
		return 1
	case L16Stereo44K:
		return 2
	}
	panic("pcm: invalid audio type")
}

// Depth returns the bit depth for this format.
func (f Format) Depth() int {
	switch f {
	case L16Mono16K, L16Mono22K, L16Mono44K, L16Stereo44K:
		return 16
	}
	panic("pcm: invalid audio type")
}

// FrameBytes returns the size in bytes of one frame (one sample per channel).
func (f Format) FrameBytes() int {
	return f.Channels() * f.Depth() / 8
}

// Frames returns the number of frames in the given number of bytes.
func (f Format) Frames(bytes int64) int64 {
	return bytes / int64(f.FrameBytes())
}

// FramesInDuration returns the number of frames in the given duration.
func (f Format) FramesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate()) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.FramesInDuration(d) * int64(f.FrameBytes())
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Frames(bytes)) * time.Second / time.Duration(f.SampleRate())
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.SampleRate() * f.FrameBytes()
}

// SilenceChunk returns a silence chunk of the given duration.
func (f Format) SilenceChunk(duration time.Duration) Chunk {
	return &SilenceChunk{
		Duration: duration,
		len:      f.BytesInDuration(duration),
		fmt:      f,
	}
}

// DataChunk returns a chunk of audio data.
func (f Format) DataChunk(data []byte) Chunk {
	return &DataChunk{
		Data: data,
		fmt:  f,
	}
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	switch f {
	case L16Mono16K, L16Mono22K, L16Mono44K, L16Stereo44K:
		return fmt.Sprintf("audio/L16; rate=%d; channels=%d", f.SampleRate(), f.Channels())
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Samples decodes little-endian int16 bytes into interleaved samples.
// A trailing odd byte is ignored.
func Samples(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// Bytes encodes interleaved int16 samples as little-endian bytes.
func Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// DataChunk is a chunk of audio data.
type DataChunk struct {
	Data []byte
	fmt  Format
}

// Len returns the length of the audio data in bytes.
func (c *DataChunk) Len() int64 {
	return int64(len(c.Data))
}

// Format returns the audio format of this chunk.
func (c *DataChunk) Format() Format {
	return c.fmt
}

// WriteTo writes the audio data to the writer.
func (c *DataChunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Data)
	return int64(n), err
}

// SilenceChunk is a chunk of silence.
type SilenceChunk struct {
	Duration time.Duration
	len      int64
	fmt      Format
}

// Len returns the length of the silence in bytes.
func (c *SilenceChunk) Len() int64 {
	return c.len
}

// Format returns the audio format of this chunk.
func (c *SilenceChunk) Format() Format {
	return c.fmt
}

var emptyBytes [32000]byte

// WriteTo writes silence (zero bytes) to the writer.
func (c *SilenceChunk) WriteTo(w io.Writer) (int64, error) {
	tw := c.len
	wn := int64(0)
	for tw > 0 {
		var silence []byte
		if tw > int64(len(emptyBytes)) {
			silence = emptyBytes[:]
			tw -= int64(len(silence))
		} else {
			silence = emptyBytes[:tw]
			tw = 0
		}
		n, err := w.Write(silence)
		if err != nil {
			return wn, err
		}
		wn += int64(n)
	}
	return wn, nil
}
