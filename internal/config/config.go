// Package config provides Viper-based configuration loading for the battle
// simulator and server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/monbattle/internal/game/battle"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxSessions caps concurrently connected trainers; 0 means no cap.
	MaxSessions int `mapstructure:"max_sessions"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Rolls keeps the per-draw dice audit trail in debug logs.
	Rolls bool `mapstructure:"rolls"`
}

// BattleConfig holds the rules knobs every battle session starts with.
type BattleConfig struct {
	// TieBreak resolves equal effective speed: "random" or "first".
	TieBreak string `mapstructure:"tie_break"`
	// BasePayout is the prize money per opponent level when a team sets none.
	BasePayout int `mapstructure:"base_payout"`
	// StartingMoney is the money a new player bag holds.
	StartingMoney int `mapstructure:"starting_money"`
	// MaxMoney caps a bag's money; 0 means no cap.
	MaxMoney int `mapstructure:"max_money"`
	// ContentDir overrides the embedded data tree when non-empty.
	ContentDir string `mapstructure:"content_dir"`
	// ScriptInstructionLimit bounds each Lua AI hook call.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
	// ActionTimeout bounds how long a linked peer may take per choice; 0 disables it.
	ActionTimeout time.Duration `mapstructure:"action_timeout"`
	// Language is the BCP 47 tag used to format prize money in narration.
	Language string `mapstructure:"language"`
}

// Tag returns the parsed narration language, English when unset.
func (b BattleConfig) Tag() language.Tag {
	if b.Language == "" {
		return language.English
	}
	tag, err := language.Parse(b.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// NetplayConfig holds the linked battle endpoint settings.
type NetplayConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// Path is the HTTP path upgraded to a websocket.
	Path string `mapstructure:"path"`
	// HandshakeTimeout bounds the Hello exchange.
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (n NetplayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// StorageConfig selects whether finished battles are recorded.
type StorageConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TracingConfig holds OpenTelemetry export settings.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `mapstructure:"service_name"`
	// Endpoint is the OTLP/HTTP collector host:port; empty uses the exporter default.
	Endpoint string `mapstructure:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure"`
	// SampleRatio is the fraction of root spans sampled.
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Telnet   TelnetConfig   `mapstructure:"telnet"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Netplay  NetplayConfig  `mapstructure:"netplay"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Storage.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateTelnet(c.Telnet); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateNetplay(c.Netplay); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTracing(c.Tracing); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 1 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 1-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	if t.MaxSessions < 0 {
		errs = append(errs, fmt.Sprintf("telnet.max_sessions must be >= 0, got %d", t.MaxSessions))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if _, err := battle.ParseTieBreak(b.TieBreak); err != nil {
		errs = append(errs, fmt.Sprintf("battle.tie_break must be one of [random, first], got %q", b.TieBreak))
	}
	if b.BasePayout < 0 {
		errs = append(errs, fmt.Sprintf("battle.base_payout must be >= 0, got %d", b.BasePayout))
	}
	if b.StartingMoney < 0 {
		errs = append(errs, fmt.Sprintf("battle.starting_money must be >= 0, got %d", b.StartingMoney))
	}
	if b.MaxMoney < 0 {
		errs = append(errs, fmt.Sprintf("battle.max_money must be >= 0, got %d", b.MaxMoney))
	}
	if b.MaxMoney > 0 && b.StartingMoney > b.MaxMoney {
		errs = append(errs, "battle.starting_money must not exceed battle.max_money")
	}
	if b.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("battle.script_instruction_limit must be >= 0, got %d", b.ScriptInstructionLimit))
	}
	if b.ActionTimeout < 0 {
		errs = append(errs, "battle.action_timeout must not be negative")
	}
	if b.Language != "" {
		if _, err := language.Parse(b.Language); err != nil {
			errs = append(errs, fmt.Sprintf("battle.language must be a BCP 47 tag, got %q", b.Language))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateNetplay(n NetplayConfig) error {
	var errs []string
	if n.Port < 1 || n.Port > 65535 {
		errs = append(errs, fmt.Sprintf("netplay.port must be 1-65535, got %d", n.Port))
	}
	if !strings.HasPrefix(n.Path, "/") {
		errs = append(errs, fmt.Sprintf("netplay.path must start with /, got %q", n.Path))
	}
	if n.HandshakeTimeout <= 0 {
		errs = append(errs, "netplay.handshake_timeout must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTracing(t TracingConfig) error {
	if !t.Enabled {
		return nil
	}
	if t.ServiceName == "" {
		return errors.New("tracing.service_name must not be empty")
	}
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be in [0,1], got %g", t.SampleRatio)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MONBATTLE_ prefix
	v.SetEnvPrefix("MONBATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "monbattle")
	v.SetDefault("database.password", "monbattle")
	v.SetDefault("database.name", "monbattle")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "5m")
	v.SetDefault("telnet.write_timeout", "30s")
	v.SetDefault("telnet.max_sessions", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.rolls", false)

	v.SetDefault("battle.tie_break", "random")
	v.SetDefault("battle.base_payout", 20)
	v.SetDefault("battle.starting_money", 3000)
	v.SetDefault("battle.max_money", 999999)
	v.SetDefault("battle.content_dir", "")
	v.SetDefault("battle.script_instruction_limit", 100000)
	v.SetDefault("battle.action_timeout", "0s")
	v.SetDefault("battle.language", "en")

	v.SetDefault("netplay.host", "0.0.0.0")
	v.SetDefault("netplay.port", 4080)
	v.SetDefault("netplay.path", "/link")
	v.SetDefault("netplay.handshake_timeout", "10s")

	v.SetDefault("storage.enabled", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "monbattle")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)
}
