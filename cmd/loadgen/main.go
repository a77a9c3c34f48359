package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quizops/quizops-api/internal/loadgen"
)

func main() {
	profileName := flag.String("profile", "steady", "load profile: "+strings.Join(loadgen.ProfileNames(), "|"))
	duplicates := flag.Bool("duplicates", false, "run the duplicate-delivery scenario instead of a profile")
	baseURL := flag.String("base-url", envOr("QUIZOPS_API_URL", "http://127.0.0.1:8080"), "webhook base URL")
	secret := flag.String("secret", os.Getenv("WEBHOOK_SECRET_TOKEN"), "webhook secret token")
	workers := flag.Int("workers", 40, "worker pool size")
	pairs := flag.Int("pairs", 25, "duplicate pairs per worker (duplicates mode)")
	updateIDBase := flag.Int64("update-id-base", 800_000_000, "first update_id")
	userIDBase := flag.Int64("user-id-base", 90_000_000_000, "first synthetic telegram user id")
	maxFailRate := flag.Float64("max-fail-rate", 0, "override fail-rate threshold (0 keeps the profile default)")
	maxP95 := flag.Duration("max-p95", 0, "override p95 threshold (0 keeps the profile default)")
	timeout := flag.Duration("timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "webhook secret is required (-secret or WEBHOOK_SECRET_TOKEN)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := loadgen.NewDriver(loadgen.Target{
		BaseURL:      strings.TrimRight(*baseURL, "/"),
		Secret:       *secret,
		UpdateIDBase: *updateIDBase,
		UserIDBase:   *userIDBase,
	}, *workers, *timeout)

	if *duplicates {
		failRate := 0.01
		if *maxFailRate > 0 {
			failRate = *maxFailRate
		}
		report, err := driver.RunDuplicates(ctx, *workers, *pairs, failRate)
		if err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "duplicate run error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(report.Summary())
		if !report.Passed {
			os.Exit(1)
		}
		return
	}

	profile, err := loadgen.LookupProfile(*profileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *maxFailRate > 0 {
		profile.Thresholds.MaxFailRate = *maxFailRate
	}
	if *maxP95 > 0 {
		profile.Thresholds.MaxP95 = *maxP95
	}

	log.Info().
		Str("profile", profile.Name).
		Dur("duration", profile.TotalDuration()).
		Int("workers", *workers).
		Msg("starting load run")

	report, err := driver.Run(ctx, profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load run error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(report.Summary())
	if !report.Passed {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
