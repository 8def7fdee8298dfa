package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// State is a step of the interactive identification loop.
type State int

const (
	// StatePrompt asks for a clip name.
	StatePrompt State = iota
	// StateClassify identifies the clip and prints the speaker.
	StateClassify
	// StateContinue asks whether to go on.
	StateContinue
	// StateDone ends the loop.
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePrompt:
		return "prompt"
	case StateClassify:
		return "classify"
	case StateContinue:
		return "continue"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session runs the interactive loop
//
//	prompt → classify → continue → (prompt | done)
//
// reading answers from In and writing prompts to Out. A bare clip name
// typed at the prompt resolves to {Dir}/{name}.wav. Answering "n" to the
// continue question ends the loop, any other answer (" n " included) goes
// on. Only the line terminator is stripped from answers. End of input
// ends the loop without error.
type Session struct {
	Identifier *Identifier
	Extractor  Extractor
	Dir        string
	In         io.Reader
	Out        io.Writer

	// Classified counts the clips identified so far.
	Classified int

	state   State
	scanner *bufio.Scanner
	file    string
}

// State returns the current state.
func (s *Session) State() State { return s.state }

func (s *Session) readLine() (string, bool, error) {
	if s.scanner == nil {
		s.scanner = bufio.NewScanner(s.In)
	}
	if !s.scanner.Scan() {
		return "", false, s.scanner.Err()
	}
	return strings.TrimRight(s.scanner.Text(), "\r"), true, nil
}

// Step performs the work of the current state and moves to the next one.
func (s *Session) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch s.state {
	case StatePrompt:
		fmt.Fprintln(s.Out, "input filename = ")
		line, ok, err := s.readLine()
		if err != nil {
			return err
		}
		if !ok {
			s.state = StateDone
			return nil
		}
		s.file = line
		s.state = StateClassify

	case StateClassify:
		path := filepath.Join(s.Dir, s.file+".wav")
		x, err := LoadFeatures(s.Extractor, path)
		if err != nil {
			s.state = StateDone
			return err
		}
		name, err := s.Identifier.IdentifyName(x)
		if err != nil {
			s.state = StateDone
			return err
		}
		s.Classified++
		fmt.Fprintf(s.Out, "speaker = %s\n", name)
		s.state = StateContinue

	case StateContinue:
		fmt.Fprintln(s.Out, "Do you want to continue speaker identification? [y/n]")
		line, ok, err := s.readLine()
		if err != nil {
			return err
		}
		if !ok || line == "n" {
			s.state = StateDone
			return nil
		}
		s.state = StatePrompt

	case StateDone:
	}
	return nil
}

// Run steps until the session is done or a step fails.
func (s *Session) Run(ctx context.Context) error {
	for s.state != StateDone {
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}
