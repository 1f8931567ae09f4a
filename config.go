package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwsl/ft8skimmer/ft8"
)

// Config represents the application configuration
type Config struct {
	Station   StationConfig   `yaml:"station"`
	Source    SourceConfig    `yaml:"source"`
	Decoder   DecoderConfig   `yaml:"decoder"`
	Server    ServerConfig    `yaml:"server"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Recording RecordingConfig `yaml:"recording"`
}

// StationConfig identifies the receiving station.
type StationConfig struct {
	Callsign string `yaml:"callsign"`
	Locator  string `yaml:"locator"` // Maidenhead, used for distance/bearing enrichment
}

// SourceConfig selects and configures the audio source.
type SourceConfig struct {
	// Multicast RTP stream (ka9q-radio radiod style).
	DataGroup  string `yaml:"data_group"` // host:port of the multicast PCM stream
	Interface  string `yaml:"interface"`  // Network interface to join on (empty = default)
	SSRC       uint32 `yaml:"ssrc"`       // RTP stream selector, 0 accepts any
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	Channel    int    `yaml:"channel"` // Channel to decode, -1 = mix down

	// Dial frequency in Hz, added to audio offsets in published spots.
	DialFrequency uint64 `yaml:"dial_frequency"`
	Band          string `yaml:"band"`
}

// DecoderConfig maps onto the core pipeline configuration.
type DecoderConfig struct {
	RecordSeconds  float64 `yaml:"record_seconds"`
	AdvanceSeconds float64 `yaml:"advance_seconds"`
	MinFreq        float64 `yaml:"min_freq"`
	MaxFreq        float64 `yaml:"max_freq"`
	ThresholdDB    float64 `yaml:"threshold_db"`
	MaxCandidates  int     `yaml:"max_candidates"`
	LDPCIterations int     `yaml:"ldpc_iterations"`
	Workers        int     `yaml:"workers"`
}

// ServerConfig contains the HTTP listener serving WebSocket result streams
// and the Prometheus scrape endpoint.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// MQTTConfig contains MQTT publishing settings
type MQTTConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Broker          string `yaml:"broker"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	TopicPrefix     string `yaml:"topic_prefix"`
	PublishInterval int    `yaml:"publish_interval"` // Metrics interval in seconds
}

// RecordingConfig enables saving each cycle's capture as a WAV file.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// LoadConfig reads and validates the YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	core := ft8.DefaultConfig()
	return &Config{
		Source: SourceConfig{
			SampleRate: core.SampleRate,
			Channels:   1,
			Channel:    -1,
		},
		Decoder: DecoderConfig{
			RecordSeconds:  core.RecordSeconds,
			AdvanceSeconds: core.AdvanceSeconds,
			MinFreq:        core.MinFreq,
			MaxFreq:        core.MaxFreq,
			ThresholdDB:    core.ThresholdDB,
			MaxCandidates:  core.MaxCandidates,
			LDPCIterations: core.LDPCIterations,
			Workers:        core.Workers,
		},
		Server: ServerConfig{
			Listen: ":8790",
		},
		MQTT: MQTTConfig{
			TopicPrefix:     "ft8skimmer",
			PublishInterval: 60,
		},
		Recording: RecordingConfig{
			Directory: "recordings",
		},
	}
}

// Validate checks the configuration for values the skimmer cannot run with.
func (c *Config) Validate() error {
	if c.Source.SampleRate <= 0 {
		return fmt.Errorf("source sample_rate must be positive")
	}
	if c.Source.Channels < 1 || c.Source.Channels > 2 {
		return fmt.Errorf("source channels must be 1 or 2")
	}
	if c.Source.Channel >= c.Source.Channels {
		return fmt.Errorf("source channel %d out of range for %d channels", c.Source.Channel, c.Source.Channels)
	}
	if c.Station.Locator != "" {
		if _, _, err := LocatorToLatLon(c.Station.Locator); err != nil {
			return fmt.Errorf("station locator: %w", err)
		}
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt enabled without a broker")
	}
	return c.CoreConfig().Validate()
}

// CoreConfig builds the decode pipeline configuration.
func (c *Config) CoreConfig() ft8.Config {
	core := ft8.DefaultConfig()
	core.RecordSeconds = c.Decoder.RecordSeconds
	core.AdvanceSeconds = c.Decoder.AdvanceSeconds
	core.MinFreq = c.Decoder.MinFreq
	core.MaxFreq = c.Decoder.MaxFreq
	core.ThresholdDB = c.Decoder.ThresholdDB
	core.MaxCandidates = c.Decoder.MaxCandidates
	core.LDPCIterations = c.Decoder.LDPCIterations
	if c.Decoder.Workers > 0 {
		core.Workers = c.Decoder.Workers
	}
	return core
}
