// Package voice identifies speakers from short WAV clips.
//
// # Architecture
//
// The pipeline processes clips in four stages:
//
//  1. LoadDir: {speaker}_{n}.wav files → labelled Samples
//  2. Extractor.Features: clip → T×C MFCC matrix, one row per frame
//  3. Train: every frame of every training clip becomes one SVM row
//  4. Identifier.Identify: each frame votes, the clip gets the majority
//
// Evaluate scores an Identifier on held-out clips and Session wraps
// Identify in an interactive prompt loop. Record captures new clips from a
// ChunkSource such as a portaudio.InputStream.
//
// # Speakers
//
// Labels are small integers mapped to names by an explicit Speakers
// registry. The file name prefix before the first underscore selects the
// speaker, so "miku_12.wav" is a clip of "miku".
package voice

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrBadFileName is returned for clip names without a "{speaker}_"
	// prefix.
	ErrBadFileName = errors.New("voice: file name has no speaker prefix")

	// ErrUnknownSpeaker is returned when a name or id is not registered.
	ErrUnknownSpeaker = errors.New("voice: unknown speaker")
)

// Speaker is one registry entry.
type Speaker struct {
	Name string `json:"name" yaml:"name"`
	ID   int    `json:"id" yaml:"id"`
}

// Speakers is an ordered, immutable name↔id registry.
type Speakers struct {
	list   []Speaker
	byName map[string]int
	byID   map[int]string
}

// DefaultSpeakers returns the registry of the reference voice set.
func DefaultSpeakers() *Speakers {
	s, _ := NewSpeakers([]Speaker{
		{Name: "kana", ID: 0},
		{Name: "ayana", ID: 1},
		{Name: "miku", ID: 2},
		{Name: "ayane", ID: 3},
		{Name: "inori", ID: 4},
	})
	return s
}

// NewSpeakers builds a registry. Names and ids must be unique and names
// must not contain an underscore.
func NewSpeakers(list []Speaker) (*Speakers, error) {
	if len(list) == 0 {
		return nil, errors.New("voice: empty speaker registry")
	}
	s := &Speakers{
		list:   slices.Clone(list),
		byName: make(map[string]int, len(list)),
		byID:   make(map[int]string, len(list)),
	}
	for _, sp := range list {
		if sp.Name == "" || strings.Contains(sp.Name, "_") {
			return nil, fmt.Errorf("voice: invalid speaker name %q", sp.Name)
		}
		if _, dup := s.byName[sp.Name]; dup {
			return nil, fmt.Errorf("voice: duplicate speaker name %q", sp.Name)
		}
		if _, dup := s.byID[sp.ID]; dup {
			return nil, fmt.Errorf("voice: duplicate speaker id %d", sp.ID)
		}
		s.byName[sp.Name] = sp.ID
		s.byID[sp.ID] = sp.Name
	}
	return s, nil
}

// List returns the entries in registration order.
func (s *Speakers) List() []Speaker { return slices.Clone(s.list) }

// Len returns the number of speakers.
func (s *Speakers) Len() int { return len(s.list) }

// ID returns the id registered for name.
func (s *Speakers) ID(name string) (int, error) {
	id, ok := s.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSpeaker, name)
	}
	return id, nil
}

// Name returns the name registered for id.
func (s *Speakers) Name(id int) (string, error) {
	name, ok := s.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: id %d", ErrUnknownSpeaker, id)
	}
	return name, nil
}

// ParseSpeaker returns the id of the speaker named by the file name prefix
// before the first underscore.
func (s *Speakers) ParseSpeaker(filename string) (int, error) {
	prefix, err := SpeakerPrefix(filename)
	if err != nil {
		return 0, err
	}
	return s.ID(prefix)
}

// SpeakerPrefix returns the part of the base name before the first
// underscore.
func SpeakerPrefix(filename string) (string, error) {
	base := filepath.Base(filename)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok || prefix == "" {
		return "", fmt.Errorf("%w: %q", ErrBadFileName, base)
	}
	return prefix, nil
}
