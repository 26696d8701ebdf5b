package speech

import (
	"context"
	"testing"
	"time"

	"github.com/iksnae/genie/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_Expand(t *testing.T) {
	cmd := Command{"whisper", "--language", "{lang}"}.expand("en-IN")
	assert.Equal(t, Command{"whisper", "--language", "en-IN"}, cmd)
}

func TestCommand_Available(t *testing.T) {
	assert.False(t, Command(nil).Available())
	assert.False(t, Command{"definitely-not-a-real-binary-xyz"}.Available())
	assert.True(t, Command{"sh"}.Available())
}

func TestRecognizer_Transcript(t *testing.T) {
	rec := NewRecognizer([]string{"sh", "-c", "echo '  add dune to cart  '"}, "en")
	got, err := rec.Recognize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "add dune to cart", got)
}

func TestRecognizer_EmptyIsNoSpeech(t *testing.T) {
	rec := NewRecognizer([]string{"sh", "-c", "true"}, "en")
	_, err := rec.Recognize(context.Background())
	assert.ErrorIs(t, err, internal.ErrNoSpeech)
}

func TestRecognizer_Failure(t *testing.T) {
	rec := NewRecognizer([]string{"sh", "-c", "echo mic busy >&2; exit 3"}, "en")
	_, err := rec.Recognize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mic busy")
}

func TestRecognizer_Cancel(t *testing.T) {
	rec := NewRecognizer([]string{"sleep", "5"}, "en")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := rec.Recognize(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestSynthesizer_ReadsStdin(t *testing.T) {
	syn := NewSynthesizer([]string{"sh", "-c", "grep -q hello"}, "en")
	assert.NoError(t, syn.Speak(context.Background(), "hello there"))
	assert.Error(t, syn.Speak(context.Background(), "goodbye"))
}

func TestSynthesizer_Cancel(t *testing.T) {
	syn := NewSynthesizer([]string{"sleep", "5"}, "en")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	assert.ErrorIs(t, syn.Speak(ctx, "long"), context.Canceled)
}

func TestDetect(t *testing.T) {
	caps := Detect(internal.VoiceConfig{
		Lang:              "en",
		RecognizeCommand:  []string{"no-such-recognizer-xyz"},
		SynthesizeCommand: []string{"sh", "-c", "cat >/dev/null"},
	})
	assert.Nil(t, caps.Recognizer)
	assert.NotNil(t, caps.Synthesizer)

	assert.Equal(t, Capabilities{}, Detect(internal.VoiceConfig{}))
}
