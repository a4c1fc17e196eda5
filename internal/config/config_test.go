package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Hotkey.PushToTalk != "f8" {
		t.Errorf("expected default push-to-talk f8, got %q", cfg.Hotkey.PushToTalk)
	}
	if cfg.Hotkey.Toggle != "ctrl+f8" {
		t.Errorf("expected default toggle ctrl+f8, got %q", cfg.Hotkey.Toggle)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Transcriber.Provider != "assemblyai" {
		t.Errorf("expected default provider assemblyai, got %q", cfg.Transcriber.Provider)
	}
	if cfg.Output.Dir != "pushtotalk_records" {
		t.Errorf("expected default output dir, got %q", cfg.Output.Dir)
	}
	if cfg.Events.RedisChannel != "pushtotalk:events" {
		t.Errorf("expected default redis channel, got %q", cfg.Events.RedisChannel)
	}
}

func TestLoadFileWithEnvExpansion(t *testing.T) {
	t.Setenv("PTT_TEST_KEY", "secret-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
hotkey:
  push_to_talk: "ctrl+space"
audio:
  sample_rate: 8000
transcriber:
  api_key: "${PTT_TEST_KEY}"
output:
  dir: "/tmp/recordings"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Hotkey.PushToTalk != "ctrl+space" {
		t.Errorf("push_to_talk not applied, got %q", cfg.Hotkey.PushToTalk)
	}
	if cfg.Audio.SampleRate != 8000 {
		t.Errorf("sample_rate not applied, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Transcriber.APIKey != "secret-from-env" {
		t.Errorf("env expansion failed, got %q", cfg.Transcriber.APIKey)
	}
	if cfg.Hotkey.Toggle != "ctrl+f8" {
		t.Errorf("unset fields should keep defaults, got %q", cfg.Hotkey.Toggle)
	}
}

func TestToggleNoneDisablesToggleMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
hotkey:
  toggle: "none"
transcriber:
  api_key: "k"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Hotkey.Toggle != "" {
		t.Errorf("toggle: none should disable toggle mode, got %q", cfg.Hotkey.Toggle)
	}
	if cfg.Hotkey.PushToTalk != "f8" {
		t.Errorf("push-to-talk default lost, got %q", cfg.Hotkey.PushToTalk)
	}
}

func TestAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Transcriber.APIKey != "env-key" {
		t.Errorf("expected API key from environment, got %q", cfg.Transcriber.APIKey)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		var c Config
		c.setDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "assemblyai without key",
			mutate:  func(c *Config) {},
			wantErr: true,
		},
		{
			name:    "assemblyai with key",
			mutate:  func(c *Config) { c.Transcriber.APIKey = "k" },
			wantErr: false,
		},
		{
			name: "vosk without server",
			mutate: func(c *Config) {
				c.Transcriber.Provider = "vosk"
			},
			wantErr: true,
		},
		{
			name: "vosk with server",
			mutate: func(c *Config) {
				c.Transcriber.Provider = "vosk"
				c.Transcriber.VoskServerURL = "ws://localhost:2700"
			},
			wantErr: false,
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.Transcriber.Provider = "whisper"
			},
			wantErr: true,
		},
		{
			name: "bad sample rate",
			mutate: func(c *Config) {
				c.Transcriber.APIKey = "k"
				c.Audio.SampleRate = -1
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestOutputDir(t *testing.T) {
	var cfg Config
	cfg.setDefaults()

	cfg.Output.Dir = "/var/recordings"
	dir, err := cfg.OutputDir()
	if err != nil {
		t.Fatalf("OutputDir failed: %v", err)
	}
	if dir != "/var/recordings" {
		t.Errorf("absolute path should pass through, got %q", dir)
	}

	cfg.Output.Dir = "my_records"
	dir, err = cfg.OutputDir()
	if err != nil {
		t.Fatalf("OutputDir failed: %v", err)
	}
	home, _ := os.UserHomeDir()
	if dir != filepath.Join(home, "my_records") {
		t.Errorf("relative path should resolve under home, got %q", dir)
	}
}

func TestMaxSession(t *testing.T) {
	var cfg Config
	cfg.setDefaults()

	if got := cfg.MaxSession(); got != 5*time.Minute {
		t.Errorf("default max session should be 5m, got %v", got)
	}

	cfg.Audio.MaxSession = "90s"
	if got := cfg.MaxSession(); got != 90*time.Second {
		t.Errorf("expected 90s, got %v", got)
	}

	cfg.Audio.MaxSession = "bogus"
	if got := cfg.MaxSession(); got != 5*time.Minute {
		t.Errorf("unparseable value should fall back to 5m, got %v", got)
	}
}
