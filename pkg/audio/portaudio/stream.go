package portaudio

import (
	"io"
	"sync"
	"time"

	"github.com/mediaid/mediaid/pkg/audio/pcm"
)

// InputStream captures audio from the default input device.
type InputStream struct {
	stream *stream
	format pcm.Format
	mu     sync.Mutex
	closed bool
}

// NewInputStream creates a new input stream for recording.
// format: PCM format (e.g., pcm.L16Stereo44K)
// bufferDuration: duration of each read buffer (e.g., 20ms)
func NewInputStream(format pcm.Format, bufferDuration time.Duration) (*InputStream, error) {
	framesPerBuffer := int(format.FramesInDuration(bufferDuration))

	s, err := openInputStream(format.Channels(), float64(format.SampleRate()), framesPerBuffer)
	if err != nil {
		return nil, err
	}

	if err := s.start(); err != nil {
		s.close()
		return nil, err
	}

	return &InputStream{
		stream: s,
		format: format,
	}, nil
}

// ReadChunk blocks until one buffer of audio has been captured.
func (is *InputStream) ReadChunk() (pcm.Chunk, error) {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.closed {
		return nil, io.EOF
	}

	data, err := is.stream.read()
	if err != nil {
		return nil, err
	}
	return is.format.DataChunk(data), nil
}

// Format returns the PCM format.
func (is *InputStream) Format() pcm.Format {
	return is.format
}

// Close stops and closes the stream.
func (is *InputStream) Close() error {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.closed {
		return nil
	}
	is.closed = true

	return is.stream.close()
}
