package testutil

import (
	"time"

	"github.com/iksnae/genie/internal"
)

// Price returns a pointer to a decimal price in minor units
func Price(v float64) *internal.Amount {
	a := internal.AmountFromFloat(v)
	return &a
}

// FastConfig returns a configuration pointed at baseURL with every UI
// delay shortened so timer-driven behavior settles quickly in tests
func FastConfig(baseURL string) internal.Config {
	return internal.Config{
		Remote: internal.RemoteConfig{
			BaseURL:    baseURL,
			CookieName: "session",
			Breaker:    internal.BreakerConfig{MaxFailures: 5},
		},
		UI: internal.UIConfig{
			ToastVisible:     20 * time.Millisecond,
			ToastFade:        5 * time.Millisecond,
			LoginDelay:       10 * time.Millisecond,
			BuyReloadDelay:   10 * time.Millisecond,
			ClearReloadDelay: 10 * time.Millisecond,
			LoginPath:        "/login",
			CurrencySymbol:   "₹",
		},
		Voice: internal.VoiceConfig{Lang: "en-IN"},
	}
}

// SampleSession returns a settled two-turn conversation
func SampleSession() *internal.ChatSession {
	s := internal.NewChatSession()
	s.Append(internal.NewTurn(internal.RoleUser, "hello", internal.TurnComplete))
	s.Append(internal.NewTurn(internal.RoleAssistant, "hi", internal.TurnComplete))
	return s
}
