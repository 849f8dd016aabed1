package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	tiktok "github.com/TarekZSh/tiktok-virality-prediction"
	"github.com/TarekZSh/tiktok-virality-prediction/harvest"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	envPath := flag.String("env", ".env", "Path to .env file (missing file is fine)")
	count := flag.Int("count", 0, "Target number of captured videos (overrides COUNT)")
	proxyURL := flag.String("proxy", "", "Proxy URL (http/https/socks5)")
	cookies := flag.String("cookies", "", "Path to cookies JSON file")
	flag.Parse()

	// Layering: defaults <- yaml file <- .env/environment <- flags.
	_ = godotenv.Load(*envPath)

	cfg := harvest.Default()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.LoadEnv()
	if *count > 0 {
		cfg.TargetCount = *count
	}
	if *proxyURL != "" {
		cfg.Proxy = *proxyURL
	}
	if *cookies != "" {
		cfg.CookiesPath = *cookies
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	client := tiktok.New().
		WithMSToken(cfg.MSToken).
		WithBrowser(cfg.Browser).
		WithHeadless(cfg.Headless)
	defer client.Close()

	if cfg.Proxy != "" {
		if err := client.SetProxy(cfg.Proxy); err != nil {
			log.Fatal().Err(err).Msg("set proxy")
		}
	}
	if cfg.CookiesPath != "" {
		if err := client.LoadCookies(cfg.CookiesPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.CookiesPath).Msg("cookies not loaded, starting cold")
		}
	}

	sink, err := harvest.OpenSink(cfg.CSVPath, cfg.JSONLPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open outputs")
	}
	defer sink.Close()

	h := harvest.New(cfg, client, sink, log)

	// Resume marker: ids already present in the JSONL output are never
	// recorded again.
	if ids, err := harvest.ReplayIDs(cfg.JSONLPath); err != nil {
		log.Warn().Err(err).Msg("replay of previous output incomplete")
	} else if len(ids) > 0 {
		log.Info().Int("ids", len(ids)).Msg("preloaded seen ids from previous output")
		h.PreloadSeen(ids)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := h.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		log.Info().Msg("interrupted, stopping cleanly")
	default:
		log.Fatal().Err(err).Msg("harvest failed to start")
	}

	if cfg.CookiesPath != "" {
		if err := client.SaveCookies(cfg.CookiesPath); err != nil {
			log.Warn().Err(err).Msg("cookies not saved")
		}
	}

	// Partial completion is a normal exit: the summary says how far we got.
	log.Info().
		Int("captured", summary.Captured).
		Int("target", summary.Target).
		Int("pages", summary.Loops).
		Str("csv", summary.CSVPath).
		Str("jsonl", summary.JSONLPath).
		Str("videos", cfg.DownloadDir).
		Msg("done")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	}).Level(lvl).With().Timestamp().Logger()
}
