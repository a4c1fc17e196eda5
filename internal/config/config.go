package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the push-to-talk transcriber.
type Config struct {
	Hotkey struct {
		// Key or key combination held to record, e.g. "f8" or "ctrl+space".
		PushToTalk string `yaml:"push_to_talk"`
		// Key or key combination that starts/stops a hands-free session.
		// "none" disables toggle mode; empty falls back to the default.
		Toggle string `yaml:"toggle"`
	} `yaml:"hotkey"`

	Audio struct {
		SampleRate      int    `yaml:"sample_rate"`
		FramesPerBuffer int    `yaml:"frames_per_buffer"`
		MaxSession      string `yaml:"max_session"`
	} `yaml:"audio"`

	Transcriber struct {
		Provider      string `yaml:"provider"` // "assemblyai" or "vosk"
		APIKey        string `yaml:"api_key"`
		VoskServerURL string `yaml:"vosk_server_url"`
	} `yaml:"transcriber"`

	Output struct {
		Dir        string `yaml:"dir"`
		SessionLog bool   `yaml:"session_log"`
	} `yaml:"output"`

	Notify struct {
		Desktop bool `yaml:"desktop"`
		Paste   bool `yaml:"paste"`
	} `yaml:"notify"`

	Events struct {
		RedisAddr    string `yaml:"redis_addr"`
		RedisChannel string `yaml:"redis_channel"`
	} `yaml:"events"`
}

// Load reads the YAML config at path. A missing file is not an error; the
// defaults are returned instead. ${VAR} references inside the file are
// expanded from the environment.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	if cfg.Transcriber.APIKey == "" {
		cfg.Transcriber.APIKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Hotkey.PushToTalk == "" {
		c.Hotkey.PushToTalk = "f8"
	}
	if c.Hotkey.Toggle == "" {
		c.Hotkey.Toggle = "ctrl+f8"
	} else if strings.EqualFold(c.Hotkey.Toggle, "none") {
		c.Hotkey.Toggle = ""
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = 1024
	}
	if c.Audio.MaxSession == "" {
		c.Audio.MaxSession = "5m"
	}
	if c.Transcriber.Provider == "" {
		c.Transcriber.Provider = "assemblyai"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "pushtotalk_records"
	}
	if c.Events.RedisChannel == "" {
		c.Events.RedisChannel = "pushtotalk:events"
	}
}

// Validate checks settings that would only fail at session start otherwise.
func (c *Config) Validate() error {
	switch c.Transcriber.Provider {
	case "assemblyai":
		if c.Transcriber.APIKey == "" {
			return fmt.Errorf("AssemblyAI API key is required: set transcriber.api_key or ASSEMBLYAI_API_KEY")
		}
	case "vosk":
		if c.Transcriber.VoskServerURL == "" {
			return fmt.Errorf("vosk_server_url is required for the vosk provider")
		}
	default:
		return fmt.Errorf("unknown transcriber provider: %s", c.Transcriber.Provider)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.Audio.SampleRate)
	}
	return nil
}

// OutputDir resolves the configured output directory. Relative paths live
// under the user's home directory.
func (c *Config) OutputDir() (string, error) {
	if filepath.IsAbs(c.Output.Dir) {
		return c.Output.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, c.Output.Dir), nil
}

// MaxSession returns the auto-stop duration for a recording session.
// An unparseable value falls back to 5 minutes.
func (c *Config) MaxSession() time.Duration {
	d, err := time.ParseDuration(c.Audio.MaxSession)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}
