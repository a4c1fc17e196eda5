package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/amanullahtanweer/pushtotalk/internal/app"
	"github.com/amanullahtanweer/pushtotalk/internal/config"
	"github.com/amanullahtanweer/pushtotalk/internal/hotkey"
)

func main() {
	var (
		configFile = flag.String("config", "config.yaml", "Configuration file path")
		outputDir  = flag.String("output", "", "Output directory (overrides config)")
		pttKey     = flag.String("hotkey", "", "Push-to-talk key binding (overrides config)")
		sampleRate = flag.Int("sample-rate", 0, "Capture sample rate in Hz (overrides config)")
	)
	flag.Parse()

	// Matches the common workflow of keeping ASSEMBLYAI_API_KEY in a .env
	// file next to the binary.
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *pttKey != "" {
		cfg.Hotkey.PushToTalk = *pttKey
	}
	if *sampleRate != 0 {
		cfg.Audio.SampleRate = *sampleRate
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ptt, err := hotkey.ParseBinding(cfg.Hotkey.PushToTalk)
	if err != nil {
		log.Fatalf("Invalid push-to-talk binding: %v", err)
	}
	var toggle hotkey.Binding
	if cfg.Hotkey.Toggle != "" {
		toggle, err = hotkey.ParseBinding(cfg.Hotkey.Toggle)
		if err != nil {
			log.Fatalf("Invalid toggle binding: %v", err)
		}
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	log.Printf("Saving recordings to %s", a.OutDir())

	listener := hotkey.NewListener(ptt, toggle)
	listener.Start()
	defer listener.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx, listener.Events()); err != nil {
		log.Fatalf("Control loop error: %v", err)
	}
}
