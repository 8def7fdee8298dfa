package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mediaid/mediaid/pkg/audio/pcm"
	"github.com/mediaid/mediaid/pkg/audio/wavfile"
)

// ChunkSource yields captured audio one chunk at a time.
// portaudio.InputStream implements it.
type ChunkSource interface {
	ReadChunk() (pcm.Chunk, error)
}

// Record reads chunks from src until exactly d of audio in format has been
// captured. Bytes past the requested length are dropped. A source that
// ends early is padded with silence.
func Record(ctx context.Context, src ChunkSource, format pcm.Format, d time.Duration) ([]byte, error) {
	want := format.BytesInDuration(d)
	if want <= 0 {
		return nil, fmt.Errorf("voice: record duration %v too short", d)
	}

	var buf bytes.Buffer
	buf.Grow(int(want))
	for int64(buf.Len()) < want {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := src.ReadChunk()
		if errors.Is(err, io.EOF) {
			missing := want - int64(buf.Len())
			slog.Warn("voice: source ended early, padding with silence", "missing", format.Duration(missing))
			if _, err := format.SilenceChunk(format.Duration(missing)).WriteTo(&buf); err != nil {
				return nil, err
			}
			buf.Write(make([]byte, max(0, want-int64(buf.Len()))))
			break
		}
		if err != nil {
			return nil, fmt.Errorf("voice: capture: %w", err)
		}
		if chunk.Format() != format {
			return nil, fmt.Errorf("voice: captured %v, want %v", chunk.Format(), format)
		}
		if _, err := chunk.WriteTo(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes()[:want], nil
}

// SaveRecording writes 16-bit PCM bytes in format to a WAV file at path,
// replacing any existing file.
func SaveRecording(path string, format pcm.Format, data []byte) error {
	s16 := pcm.Samples(data)
	samples := make([]int, len(s16))
	for i, v := range s16 {
		samples[i] = int(v)
	}
	clip, err := wavfile.NewClip(format.Channels(), format.SampleRate(), format.Depth(), samples)
	if err != nil {
		return err
	}
	return wavfile.Write(path, clip)
}
