// Package speech provides recognition and synthesis backed by external
// commands, such as a whisper wrapper for input and espeak or say for
// output.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/iksnae/genie/internal"
)

// Command is an external program and its arguments. A "{lang}" argument is
// replaced with the configured language tag.
type Command []string

func (c Command) expand(lang string) Command {
	out := make(Command, len(c))
	for i, arg := range c {
		out[i] = strings.ReplaceAll(arg, "{lang}", lang)
	}
	return out
}

// Available reports whether the command's program can be found on PATH
func (c Command) Available() bool {
	if len(c) == 0 {
		return false
	}
	_, err := exec.LookPath(c[0])
	return err == nil
}

// Recognizer runs a command that records one utterance and prints the
// transcript on stdout
type Recognizer struct {
	cmd  Command
	lang string
}

// NewRecognizer creates a recognizer for cmd
func NewRecognizer(cmd []string, lang string) *Recognizer {
	return &Recognizer{cmd: Command(cmd).expand(lang), lang: lang}
}

// Recognize blocks until the command exits. Empty output is ErrNoSpeech.
func (r *Recognizer) Recognize(ctx context.Context) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.cmd[0], r.cmd[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	internal.LogDebug("Starting recognizer: %s", strings.Join(r.cmd, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("recognizer %s: %w: %s", r.cmd[0], err, strings.TrimSpace(stderr.String()))
	}

	transcript := strings.TrimSpace(stdout.String())
	if transcript == "" {
		return "", internal.ErrNoSpeech
	}
	return transcript, nil
}

// Synthesizer runs a command that speaks the text given on stdin
type Synthesizer struct {
	cmd Command
}

// NewSynthesizer creates a synthesizer for cmd
func NewSynthesizer(cmd []string, lang string) *Synthesizer {
	return &Synthesizer{cmd: Command(cmd).expand(lang)}
}

// Speak blocks until the command exits or ctx is cancelled
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, s.cmd[0], s.cmd[1:]...)
	cmd.Stdin = strings.NewReader(text)
	err := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("synthesizer %s exited with %d", s.cmd[0], exitErr.ExitCode())
		}
		return fmt.Errorf("synthesizer %s: %w", s.cmd[0], err)
	}
	return nil
}

// Capabilities holds whichever speech capabilities the host provides
type Capabilities struct {
	Recognizer  *Recognizer
	Synthesizer *Synthesizer
}

// Detect resolves the configured commands against PATH. A capability whose
// command is unset or missing stays nil.
func Detect(cfg internal.VoiceConfig) Capabilities {
	var caps Capabilities
	if rec := Command(cfg.RecognizeCommand); rec.Available() {
		caps.Recognizer = NewRecognizer(rec, cfg.Lang)
	} else if len(rec) > 0 {
		internal.LogWarn("Recognizer %q not found on PATH", rec[0])
	}
	if syn := Command(cfg.SynthesizeCommand); syn.Available() {
		caps.Synthesizer = NewSynthesizer(syn, cfg.Lang)
	} else if len(syn) > 0 {
		internal.LogWarn("Synthesizer %q not found on PATH", syn[0])
	}
	return caps
}
