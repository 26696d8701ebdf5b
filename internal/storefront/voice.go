package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/iksnae/genie/internal"
)

const msgVoiceUnsupported = "Voice input is not supported here 🎤"

// VoiceState is the voice channel's position in its state machine
type VoiceState int

const (
	VoiceIdle VoiceState = iota
	VoiceListening
	VoiceSpeaking
)

func (s VoiceState) String() string {
	switch s {
	case VoiceListening:
		return "listening"
	case VoiceSpeaking:
		return "speaking"
	default:
		return "idle"
	}
}

// Voice wraps the recognition and synthesis capabilities behind an
// Idle/Listening/Speaking state machine. At most one recognition session
// and one utterance are active; a new utterance supersedes the old one.
type Voice struct {
	recognizer  Recognizer
	synthesizer Synthesizer
	surface     Surface
	notifier    *Notifier
	onHeard     func(ctx context.Context, transcript string)

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	state        VoiceState
	stopListen   context.CancelFunc
	stopSpeaking context.CancelFunc
	speaking     chan struct{} // closed when the current utterance goroutine exits
	utterance    uint64
}

// NewVoice creates a voice channel. Either capability may be nil.
func NewVoice(rec Recognizer, syn Synthesizer, s Surface, n *Notifier) *Voice {
	base, cancel := context.WithCancel(context.Background())
	return &Voice{
		recognizer:  rec,
		synthesizer: syn,
		surface:     s,
		notifier:    n,
		base:        base,
		cancel:      cancel,
	}
}

// OnHeard sets the consumer of recognized transcripts
func (v *Voice) OnHeard(fn func(ctx context.Context, transcript string)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onHeard = fn
}

// State returns the current state
func (v *Voice) State() VoiceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// CanListen reports whether a recognizer is available
func (v *Voice) CanListen() bool {
	return v.recognizer != nil
}

// CanSpeak reports whether a synthesizer is available
func (v *Voice) CanSpeak() bool {
	return v.synthesizer != nil
}

// Listen runs one recognition session. The recognized transcript is written
// to the chat input and handed to the OnHeard consumer before Listen
// returns it. A session already in progress is never joined or duplicated.
func (v *Voice) Listen(ctx context.Context) (string, error) {
	if v.recognizer == nil {
		v.notifier.Error(msgVoiceUnsupported)
		return "", &internal.UnsupportedCapabilityError{Capability: "speech recognition"}
	}

	v.mu.Lock()
	if v.state == VoiceListening {
		v.mu.Unlock()
		return "", internal.ErrAlreadyListening
	}
	var interrupted <-chan struct{}
	if v.state == VoiceSpeaking {
		interrupted = v.speaking
		v.stopSpeakingLocked()
	}
	lctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.base, cancel)
	v.state = VoiceListening
	v.stopListen = cancel
	v.surface.SetListening(true)
	onHeard := v.onHeard
	v.mu.Unlock()

	// the recognizer must not hear the tail of the interrupted utterance
	if interrupted != nil {
		select {
		case <-interrupted:
		case <-lctx.Done():
		}
	}
	transcript, err := v.recognizer.Recognize(lctx)
	stop()
	cancel()

	v.mu.Lock()
	v.state = VoiceIdle
	v.stopListen = nil
	v.surface.SetListening(false)
	v.mu.Unlock()

	if err != nil {
		if !errors.Is(err, internal.ErrNoSpeech) {
			internal.LogDebug("Recognition ended with error: %v", err)
		}
		return "", err
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", internal.ErrNoSpeech
	}

	v.surface.SetChatInput(transcript)
	if onHeard != nil {
		onHeard(ctx, transcript)
	}
	return transcript, nil
}

// StopListening ends the active recognition session, if any
func (v *Voice) StopListening() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stopListen != nil {
		v.stopListen()
	}
}

// Speak starts an utterance of text in the background, cancelling the one
// in progress. The new utterance waits for the old one to stop so they
// never overlap. Without a synthesizer, or while listening, it does nothing.
func (v *Voice) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" || v.synthesizer == nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.base.Err() != nil {
		return
	}
	if v.state == VoiceListening {
		internal.LogDebug("Dropping utterance while listening")
		return
	}

	previous := v.speaking
	v.stopSpeakingLocked()

	ctx, cancel := context.WithCancel(v.base)
	done := make(chan struct{})
	v.utterance++
	id := v.utterance
	v.state = VoiceSpeaking
	v.stopSpeaking = cancel
	v.speaking = done

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer close(done)
		defer cancel()

		if previous != nil {
			<-previous
		}
		if ctx.Err() == nil {
			if err := v.synthesizer.Speak(ctx, text); err != nil && ctx.Err() == nil {
				internal.LogWarn("Speech synthesis failed: %v", err)
			}
		}

		v.mu.Lock()
		defer v.mu.Unlock()
		if v.utterance == id && v.state == VoiceSpeaking {
			v.state = VoiceIdle
			v.stopSpeaking = nil
			v.speaking = nil
		}
	}()
}

// StopSpeaking cancels the utterance in progress
func (v *Voice) StopSpeaking() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopSpeakingLocked()
}

func (v *Voice) stopSpeakingLocked() {
	if v.stopSpeaking != nil {
		v.stopSpeaking()
		v.stopSpeaking = nil
	}
	if v.state == VoiceSpeaking {
		v.state = VoiceIdle
	}
}

// Wait blocks until every started utterance has finished
func (v *Voice) Wait() {
	v.wg.Wait()
}

// Close cancels recognition and speech and waits for utterances to stop
func (v *Voice) Close() {
	v.cancel()
	v.wg.Wait()
}
