package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/cognicore/triage/pkg/triage/internalerr"
	"github.com/cognicore/triage/pkg/triage/labels"
)

// EnvPrefix prefixes environment overrides: TRIAGE_SERVER__ADDR sets server.addr.
const EnvPrefix = "TRIAGE_"

// Classifier kinds.
const (
	ClassifierRemote  = "remote"
	ClassifierKeyword = "keyword"
)

// Service is the runtime configuration shared by the binaries.
type Service struct {
	Server     ServerConfig     `koanf:"server"`
	Store      StoreConfig      `koanf:"store"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Tokenizer  TokenizerConfig  `koanf:"tokenizer"`
	ETL        ETLConfig        `koanf:"etl"`
	Log        LogConfig        `koanf:"log"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `koanf:"mode"`
}

type StoreConfig struct {
	// DSN is a SQLite file path or a postgres:// URL.
	DSN   string `koanf:"dsn"`
	Table string `koanf:"table"`
}

type ClassifierConfig struct {
	Kind         string        `koanf:"kind"`
	BaseURL      string        `koanf:"base_url"`
	APIKey       string        `koanf:"api_key"`
	Timeout      time.Duration `koanf:"timeout"`
	KeywordsPath string        `koanf:"keywords_path"`
	Umbrella     string        `koanf:"umbrella"`
}

type TokenizerConfig struct {
	Language    string `koanf:"language"`
	LemmasPath  string `koanf:"lemmas_path"`
	StripMarkup bool   `koanf:"strip_markup"`
}

type ETLConfig struct {
	// Policy is the category layout policy: positional, quarantine or strict.
	Policy string `koanf:"policy"`
}

type LogConfig struct {
	Development bool   `koanf:"development"`
	Level       string `koanf:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Service {
	return Service{
		Server: ServerConfig{Addr: ":3001", Mode: "release"},
		Store:  StoreConfig{DSN: "DisasterResponse.db", Table: "disaster_messages"},
		Classifier: ClassifierConfig{
			Kind:     ClassifierKeyword,
			Timeout:  15 * time.Second,
			Umbrella: "related",
		},
		Tokenizer: TokenizerConfig{Language: "en", StripMarkup: true},
		ETL:       ETLConfig{Policy: string(labels.PolicyQuarantine)},
		Log:       LogConfig{Level: "info"},
	}
}

// Load layers the defaults, an optional YAML file, a .env file in the
// working directory and TRIAGE_* environment variables, in that order.
// An empty path skips the file layer; a named file that is missing is an error.
func Load(path string) (*Service, error) {
	// .env is optional
	_ = godotenv.Load()

	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %v", internalerr.ErrInvalidConfig, err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks cross-field constraints.
func (s Service) Validate() error {
	if s.Store.DSN == "" {
		return fmt.Errorf("%w: store.dsn is required", internalerr.ErrInvalidConfig)
	}
	if s.Store.Table == "" {
		return fmt.Errorf("%w: store.table is required", internalerr.ErrInvalidConfig)
	}
	switch s.Classifier.Kind {
	case ClassifierRemote:
		if s.Classifier.BaseURL == "" {
			return fmt.Errorf("%w: classifier.base_url is required for the remote classifier", internalerr.ErrInvalidConfig)
		}
	case ClassifierKeyword:
	default:
		return fmt.Errorf("%w: unknown classifier kind %q", internalerr.ErrInvalidConfig, s.Classifier.Kind)
	}
	if _, err := labels.ParsePolicy(s.ETL.Policy); err != nil {
		return err
	}
	return nil
}

// Loader returns the data-file loader described by this configuration.
func (s Service) Loader() Loader {
	return Loader{
		LemmasPath:     s.Tokenizer.LemmasPath,
		KeywordsPath:   s.Classifier.KeywordsPath,
		Language:       s.Tokenizer.Language,
		StripMarkup:    s.Tokenizer.StripMarkup,
		ClassifierKind: s.Classifier.Kind,
		ClassifierURL:  s.Classifier.BaseURL,
		APIKey:         s.Classifier.APIKey,
		Timeout:        s.Classifier.Timeout,
		Umbrella:       s.Classifier.Umbrella,
	}
}
