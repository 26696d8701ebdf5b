package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds client configuration
type Config struct {
	Remote  RemoteConfig  `mapstructure:"remote"`
	UI      UIConfig      `mapstructure:"ui"`
	Voice   VoiceConfig   `mapstructure:"voice"`
	Journal JournalConfig `mapstructure:"journal"`
}

// RemoteConfig describes the storefront service
type RemoteConfig struct {
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	SessionCookie string        `mapstructure:"session_cookie"`
	CookieName    string        `mapstructure:"cookie_name" validate:"required"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"` // 0 waits indefinitely
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the optional circuit breaker
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures" validate:"gte=1"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" validate:"gte=0"`
}

// UIConfig holds presentation timings
type UIConfig struct {
	ToastVisible     time.Duration `mapstructure:"toast_visible" validate:"gte=0"`
	ToastFade        time.Duration `mapstructure:"toast_fade" validate:"gte=0"`
	LoginDelay       time.Duration `mapstructure:"login_delay" validate:"gte=0"`
	BuyReloadDelay   time.Duration `mapstructure:"buy_reload_delay" validate:"gte=0"`
	ClearReloadDelay time.Duration `mapstructure:"clear_reload_delay" validate:"gte=0"`
	LoginPath        string        `mapstructure:"login_path" validate:"required"`
	CurrencySymbol   string        `mapstructure:"currency_symbol"`
}

// VoiceConfig names the speech commands. An empty command means the
// capability is absent.
type VoiceConfig struct {
	Lang              string   `mapstructure:"lang"`
	RecognizeCommand  []string `mapstructure:"recognize_command"`
	SynthesizeCommand []string `mapstructure:"synthesize_command"`
}

// JournalConfig locates the local transcript database
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DefaultConfigPath returns ~/.config/genie/config.yaml
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "genie", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("remote.base_url", "http://localhost:3000")
	v.SetDefault("remote.session_cookie", "")
	v.SetDefault("remote.cookie_name", "session")
	v.SetDefault("remote.timeout", time.Duration(0))
	v.SetDefault("remote.breaker.enabled", false)
	v.SetDefault("remote.breaker.max_failures", 5)
	v.SetDefault("remote.breaker.open_timeout", 30*time.Second)

	v.SetDefault("ui.toast_visible", 2500*time.Millisecond)
	v.SetDefault("ui.toast_fade", 300*time.Millisecond)
	v.SetDefault("ui.login_delay", 1500*time.Millisecond)
	v.SetDefault("ui.buy_reload_delay", 1500*time.Millisecond)
	v.SetDefault("ui.clear_reload_delay", 1200*time.Millisecond)
	v.SetDefault("ui.login_path", "/login")
	v.SetDefault("ui.currency_symbol", "₹")

	v.SetDefault("voice.lang", "en-IN")
	v.SetDefault("voice.recognize_command", []string{})
	v.SetDefault("voice.synthesize_command", []string{})

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", filepath.Join(home, ".local", "share", "genie", "journal.db"))
}

// LoadConfig reads configuration from path (or $GENIE_CONFIG, or the
// default location) and the environment. Env var overrides use prefix GENIE_.
// A missing config file is not an error.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path == "" {
		path = os.Getenv("GENIE_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultConfigPath()))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GENIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		LogDebug("No config file found, using defaults")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration for missing or out-of-range values
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", toValidationError(err))
	}
	return nil
}
