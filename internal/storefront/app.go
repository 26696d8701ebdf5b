package storefront

import (
	"context"
	"fmt"

	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/internal/journal"
	"github.com/iksnae/genie/internal/remote"
	"github.com/iksnae/genie/internal/speech"
	"github.com/iksnae/genie/internal/surface"
)

// App wires the controllers to one document and one remote client
type App struct {
	Config   internal.Config
	Document *surface.Document
	Remote   *remote.Client
	Notifier *Notifier
	Cart     *Cart
	Chat     *Chat
	Voice    *Voice
	Journal  *journal.Store
}

// Option customizes App construction
type Option func(*options)

type options struct {
	schedule    Scheduler
	recognizer  Recognizer
	synthesizer Synthesizer
	detect      bool
	journal     *journal.Store
}

// WithScheduler replaces the runtime timer used for toasts and delays
func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.schedule = s }
}

// WithSpeech supplies the speech capabilities instead of detecting them.
// Either may be nil.
func WithSpeech(rec Recognizer, syn Synthesizer) Option {
	return func(o *options) {
		o.recognizer, o.synthesizer = rec, syn
		o.detect = false
	}
}

// WithJournal records turns to an already open store
func WithJournal(s *journal.Store) Option {
	return func(o *options) { o.journal = s }
}

// NewApp builds the controllers from cfg. Speech commands are resolved on
// PATH and the journal is opened when enabled, unless options say otherwise.
func NewApp(cfg internal.Config, opts ...Option) (*App, error) {
	o := options{schedule: RealScheduler, detect: true}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := remote.New(cfg.Remote)
	if err != nil {
		return nil, err
	}

	doc := surface.NewDocument(cfg.UI.CurrencySymbol)
	notifier := NewNotifier(doc, o.schedule, cfg.UI.ToastVisible, cfg.UI.ToastFade)
	cart := NewCart(client, doc, notifier, o.schedule, CartDelays{
		Login:       cfg.UI.LoginDelay,
		BuyReload:   cfg.UI.BuyReloadDelay,
		ClearReload: cfg.UI.ClearReloadDelay,
	}, cfg.UI.LoginPath)
	chat := NewChat(client, doc, notifier)

	if o.detect {
		caps := speech.Detect(cfg.Voice)
		// a nil *Recognizer must stay a nil interface
		if caps.Recognizer != nil {
			o.recognizer = caps.Recognizer
		}
		if caps.Synthesizer != nil {
			o.synthesizer = caps.Synthesizer
		}
	}
	voice := NewVoice(o.recognizer, o.synthesizer, doc, notifier)
	chat.SetSpeaker(voice)
	voice.OnHeard(func(ctx context.Context, transcript string) {
		if _, err := chat.Send(ctx, transcript); err != nil {
			internal.LogDebug("Voice message not sent: %v", err)
		}
	})

	app := &App{
		Config:   cfg,
		Document: doc,
		Remote:   client,
		Notifier: notifier,
		Cart:     cart,
		Chat:     chat,
		Voice:    voice,
		Journal:  o.journal,
	}

	if app.Journal == nil && cfg.Journal.Enabled && cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			internal.LogWarn("Journal disabled: %v", err)
		} else {
			app.Journal = store
		}
	}
	if app.Journal != nil {
		chat.SetRecorder(app.Journal)
	}

	internal.LogDebug("App ready against %s (voice in=%t out=%t)", client.BaseURL(), voice.CanListen(), voice.CanSpeak())
	return app, nil
}

// Start renders the cart and badge from the service
func (a *App) Start(ctx context.Context) error {
	if err := a.Cart.Sync(ctx); err != nil {
		return fmt.Errorf("initial cart sync: %w", err)
	}
	return nil
}

// Close stops pending timers, speech and the journal
func (a *App) Close() error {
	a.Voice.Close()
	a.Cart.Close()
	a.Notifier.Close()
	if a.Journal != nil {
		return a.Journal.Close()
	}
	return nil
}
