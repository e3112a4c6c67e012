package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/edupulse/conversion-relay/internal/capi"
)

// Config contains everything the service reads from its environment. Loaded
// once at boot and injected; handlers never consult the environment directly.
type Config struct {
	HTTP         HTTP         `yaml:"http"`
	Log          Log          `yaml:"log"`
	Meta         Meta         `yaml:"meta"`
	Subscription Subscription `yaml:"subscription"`
	Consent      Consent      `yaml:"consent"`
	DB           DB           `yaml:"db"`
}

type HTTP struct {
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type Log struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Environment string `yaml:"environment" env:"APP_ENV" env-default:"development"`
}

// Meta holds the Conversions API credentials. Absence of pixel id or access
// token is not a boot failure: the dispatch gate fails closed instead, so a
// misconfigured deploy serves the site without tracking rather than crashing.
type Meta struct {
	PixelID       string `yaml:"pixel_id" env:"META_PIXEL_ID"`
	AccessToken   string `yaml:"access_token" env:"META_ACCESS_TOKEN"`
	TestEventCode string `yaml:"test_event_code" env:"META_TEST_EVENT_CODE"`
	APIVersion    string `yaml:"api_version" env:"META_API_VERSION" env-default:"v21.0"`
	BaseURL       string `yaml:"base_url" env:"META_BASE_URL" env-default:"https://graph.facebook.com"`
}

type Subscription struct {
	BaseURL      string `yaml:"base_url" env:"SUBSCRIPTION_API_URL"`
	ClientID     string `yaml:"client_id" env:"SUBSCRIPTION_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"SUBSCRIPTION_CLIENT_SECRET"`
	EnterpriseID int    `yaml:"enterprise_id" env:"ENTERPRISE_ID" env-default:"3"`
}

type Consent struct {
	// CookieName is the consent cookie written by the site's banner; its
	// value must equal "accepted" for tracking to proceed.
	CookieName string `yaml:"cookie_name" env:"CONSENT_COOKIE" env-default:"cookie_consent"`
}

type DB struct {
	// URL is optional: without it the dispatch log is disabled and the
	// service runs stateless.
	URL string `yaml:"url" env:"DB_URL"`
}

// Load reads config.yaml when present, with environment variables taking
// precedence either way (ReadConfig applies env overrides itself).
func Load() (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	return cfg, nil
}

// SanitizedPixelID returns the first digit run of the configured pixel id,
// or "" when it contains none. Pixel ids are numeric; pasted values
// sometimes arrive with stray quotes or whitespace.
func (m Meta) SanitizedPixelID() string {
	s := strings.TrimSpace(m.PixelID)
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[start:end]
}

// ClientConfig maps the Meta section onto the relay client's view of it.
func (m Meta) ClientConfig() capi.ClientConfig {
	return capi.ClientConfig{
		BaseURL:       strings.TrimRight(m.BaseURL, "/"),
		APIVersion:    m.APIVersion,
		PixelID:       m.SanitizedPixelID(),
		AccessToken:   strings.TrimSpace(m.AccessToken),
		TestEventCode: strings.TrimSpace(m.TestEventCode),
	}
}
