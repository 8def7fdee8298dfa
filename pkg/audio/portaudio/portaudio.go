// Package portaudio provides Go bindings for capturing audio with the
// PortAudio library.
//
// This package uses CGO to interface with the PortAudio C library.
// It requires portaudio installed via pkg-config (brew install portaudio,
// apt install portaudio19-dev).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_input_stream(void **stream,
                                    const PaStreamParameters *inputParams,
                                    double sampleRate,
                                    unsigned long framesPerBuffer,
                                    PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, inputParams, NULL, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"log/slog"
	"sync"
	"unsafe"
)

var (
	initOnce sync.Once
	initErr  error
)

const (
	paNoError         = int(C.paNoError)
	paInputOverflowed = int(C.paInputOverflowed)
)

// checkRead interprets a Pa_ReadStream result. An input overflow means the
// caller fell behind and older input was dropped, but the returned frames
// are valid, so it is reported as overflow rather than an error.
func checkRead(code int, text func(int) string) (overflow bool, err error) {
	switch code {
	case paNoError:
		return false, nil
	case paInputOverflowed:
		return true, nil
	}
	return false, errors.New(text(code))
}

func errorText(code int) string {
	return C.GoString(C.Pa_GetErrorText(C.PaError(code)))
}

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New(C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library.
// It is safe to call multiple times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate terminates the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo contains information about an audio device.
type DeviceInfo struct {
	Index             int     `json:"index" yaml:"index"`
	Name              string  `json:"name" yaml:"name"`
	MaxInputChannels  int     `json:"max_input_channels" yaml:"max_input_channels"`
	MaxOutputChannels int     `json:"max_output_channels" yaml:"max_output_channels"`
	DefaultSampleRate float64 `json:"default_sample_rate" yaml:"default_sample_rate"`
	IsDefaultInput    bool    `json:"default_input,omitempty" yaml:"default_input,omitempty"`
}

// Devices returns a list of available audio devices.
func Devices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}

	defaultInput := int(C.Pa_GetDefaultInputDevice())

	devices := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:             i,
			Name:              C.GoString(info.name),
			MaxInputChannels:  int(info.maxInputChannels),
			MaxOutputChannels: int(info.maxOutputChannels),
			DefaultSampleRate: float64(info.defaultSampleRate),
			IsDefaultInput:    i == defaultInput,
		})
	}
	return devices, nil
}

// stream is an open PortAudio input stream.
type stream struct {
	stream   unsafe.Pointer
	buffer   unsafe.Pointer
	channels int
	frames   int
	closed   bool
	mu       sync.Mutex
}

// openInputStream opens a 16-bit input stream on the default input device.
func openInputStream(channels int, sampleRate float64, framesPerBuffer int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	device := C.Pa_GetDefaultInputDevice()
	if device == C.paNoDevice {
		return nil, errors.New("no default input device")
	}
	info := C.Pa_GetDeviceInfo(device)
	if info == nil {
		return nil, errors.New("failed to get device info")
	}
	params := &C.PaStreamParameters{
		device:                    device,
		channelCount:              C.int(channels),
		sampleFormat:              C.paInt16,
		suggestedLatency:          info.defaultLowInputLatency,
		hostApiSpecificStreamInfo: nil,
	}

	var paStream unsafe.Pointer
	err := paError(C.pa_open_input_stream(
		&paStream,
		params,
		C.double(sampleRate),
		C.ulong(framesPerBuffer),
		C.paClipOff,
	))
	if err != nil {
		return nil, err
	}

	// frames * channels * sizeof(int16)
	bufferSize := framesPerBuffer * channels * 2

	return &stream{
		stream:   paStream,
		buffer:   C.malloc(C.size_t(bufferSize)),
		channels: channels,
		frames:   framesPerBuffer,
	}, nil
}

func (s *stream) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("stream closed")
	}
	return paError(C.pa_start_stream(s.stream))
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	C.pa_stop_stream(s.stream)
	err := paError(C.pa_close_stream(s.stream))
	C.free(s.buffer)
	return err
}

// read blocks until one buffer of interleaved frames has been captured and
// returns it as little-endian int16 bytes.
func (s *stream) read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("stream closed")
	}

	code := C.pa_read_stream(s.stream, s.buffer, C.ulong(s.frames))
	overflow, err := checkRead(int(code), errorText)
	if err != nil {
		return nil, err
	}
	if overflow {
		// The buffer still holds valid frames; only older input was lost.
		slog.Warn("portaudio: input overflowed", "frames", s.frames)
	}

	n := s.frames * s.channels * 2
	data := make([]byte, n)
	C.memcpy(unsafe.Pointer(&data[0]), s.buffer, C.size_t(n))
	return data, nil
}
