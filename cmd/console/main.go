package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quizops/quizops-api/internal/console"
	"github.com/quizops/quizops-api/internal/pkg/metrics"
)

const usage = `Usage: console [flags] <command> [command flags]

Commands:
  promo-dashboard     promo campaign health snapshot
  campaigns           list campaigns
  transition          pause or resume one campaign
  rollback            revert a refunded purchase's promo redemption
  referral-dashboard  referral fraud snapshot
  queue               referral review queue
  review              apply one review decision
  events              notification events feed

Flags:
`

func main() {
	baseURL := flag.String("base-url", envOr("QUIZOPS_API_URL", "http://127.0.0.1:8080"), "ops API base URL")
	token := flag.String("token", os.Getenv("QUIZOPS_API_TOKEN"), "internal API token or session JWT")
	username := flag.String("username", "", "operator username (logs in instead of using -token)")
	password := flag.String("password", "", "operator password")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	client := console.NewClient(*baseURL, *token, *timeout, "quizops-console/1.0")
	guard := console.NewGuard(client)

	if *username != "" {
		if err := client.Login(ctx, *username, *password); err != nil {
			fail(err)
		}
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "promo-dashboard":
		err = runPromoDashboard(ctx, client, args)
	case "campaigns":
		err = runCampaigns(ctx, client, args)
	case "transition":
		err = runTransition(ctx, client, guard, args)
	case "rollback":
		err = runRollback(ctx, client, args)
	case "referral-dashboard":
		err = runReferralDashboard(ctx, client, args)
	case "queue":
		err = runQueue(ctx, client, guard, args)
	case "review":
		err = runReview(ctx, client, guard, args)
	case "events":
		err = runEvents(ctx, client, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func runPromoDashboard(ctx context.Context, client *console.Client, args []string) error {
	fs := flag.NewFlagSet("promo-dashboard", flag.ExitOnError)
	window := fs.Int("window", 24, "window in hours")
	fs.Parse(args)

	snapshot, err := client.PromoDashboard(ctx, *window)
	if err != nil {
		return err
	}
	fmt.Printf("window=%dh attempts=%d acceptance=%s discount_conversion=%s\n",
		snapshot.WindowHours, snapshot.AttemptsTotal,
		metrics.Percent(snapshot.AcceptanceRate), metrics.Percent(snapshot.DiscountConversionRate))
	return render(snapshot)
}

func runCampaigns(ctx context.Context, client *console.Client, args []string) error {
	fs := flag.NewFlagSet("campaigns", flag.ExitOnError)
	status := fs.String("status", "", "filter by status")
	name := fs.String("name", "", "filter by campaign name substring")
	limit := fs.Int("limit", 50, "max results")
	fs.Parse(args)

	list, err := client.ListCampaigns(ctx, *status, *name, *limit)
	if err != nil {
		return err
	}
	return render(list)
}

func runTransition(ctx context.Context, client *console.Client, guard *console.Guard, args []string) error {
	fs := flag.NewFlagSet("transition", flag.ExitOnError)
	id := fs.Int64("id", 0, "campaign id")
	target := fs.String("to", "", "target status (ACTIVE or PAUSED)")
	expected := fs.String("expected", "", "status last observed")
	reason := fs.String("reason", "", "free-text reason")
	window := fs.Int("window", 24, "window in hours for the refreshed snapshot")
	fs.Parse(args)

	campaign, err := guard.TransitionCampaign(ctx, *id, *target, *reason, *expected)
	if err != nil {
		return err
	}
	if err := render(campaign); err != nil {
		return err
	}

	// Re-fetch after the write, same as the review path.
	snapshot, err := client.PromoDashboard(ctx, *window)
	if err != nil {
		return err
	}
	fmt.Printf("dashboard refreshed: active=%d paused=%d\n",
		snapshot.ActiveCampaignsTotal, snapshot.PausedCampaignsTotal)
	return nil
}

func runRollback(ctx context.Context, client *console.Client, args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	purchaseID := fs.String("purchase-id", "", "refunded purchase id (UUID)")
	fs.Parse(args)

	result, err := client.RollbackRefund(ctx, *purchaseID)
	if err != nil {
		return err
	}
	return render(result)
}

func runReferralDashboard(ctx context.Context, client *console.Client, args []string) error {
	fs := flag.NewFlagSet("referral-dashboard", flag.ExitOnError)
	window := fs.Int("window", 24, "window in hours")
	fs.Parse(args)

	snapshot, err := client.ReferralDashboard(ctx, *window)
	if err != nil {
		return err
	}
	if snapshot.Alerts.FraudSpikeDetected {
		fmt.Println("!! fraud spike detected")
	}
	fmt.Printf("window=%dh started=%d qualification=%s fraud_rejected=%s\n",
		snapshot.WindowHours, snapshot.StartedTotal,
		metrics.Percent(snapshot.QualificationRate), metrics.Percent(snapshot.FraudRejectedRate))
	return render(snapshot)
}

func runQueue(ctx context.Context, client *console.Client, guard *console.Guard, args []string) error {
	fs := flag.NewFlagSet("queue", flag.ExitOnError)
	window := fs.Int("window", 72, "window in hours")
	status := fs.String("status", "", "filter by status")
	limit := fs.Int("limit", 50, "max results")
	fs.Parse(args)

	controller := console.NewReviewController(client, guard)
	controller.SetFilter(*window, *status, *limit)
	view, err := controller.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("cases=%d window=%dh\n", len(view.Queue.Cases), view.Queue.WindowHours)
	return render(view.Queue)
}

func runReview(ctx context.Context, client *console.Client, guard *console.Guard, args []string) error {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	id := fs.Int64("id", 0, "referral id")
	decision := fs.String("decision", "", "CONFIRM_FRAUD, REOPEN or CANCEL")
	expected := fs.String("expected", "", "status last observed")
	reason := fs.String("reason", "", "free-text reason")
	fs.Parse(args)

	controller := console.NewReviewController(client, guard)
	result, view, err := controller.Decide(ctx, *id, *decision, *reason, *expected)
	if err != nil {
		return err
	}
	if result.IdempotentReplay {
		fmt.Println("decision was already applied (idempotent replay)")
	}
	if err := render(result); err != nil {
		return err
	}
	if view != nil {
		fmt.Printf("queue refreshed: %d cases remaining\n", len(view.Queue.Cases))
	}
	return nil
}

func runEvents(ctx context.Context, client *console.Client, args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	window := fs.Int("window", 24, "window in hours")
	eventType := fs.String("type", "", "filter by event type")
	limit := fs.Int("limit", 50, "max results")
	fs.Parse(args)

	feed, err := client.EventsFeed(ctx, *window, *eventType, *limit)
	if err != nil {
		return err
	}
	return render(feed)
}

func render(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// fail prints the error the way the taxonomy intends: auth failures tell
// the operator to log in again, conflicts tell them to re-read first.
func fail(err error) {
	switch {
	case console.IsKind(err, console.KindAuthFailed):
		fmt.Fprintf(os.Stderr, "session invalid: %v\nlog in again with -username/-password\n", err)
	case console.IsKind(err, console.KindPreconditionFailed):
		fmt.Fprintf(os.Stderr, "state changed underneath you: %v\nre-fetch and decide again\n", err)
	case console.IsKind(err, console.KindValidation):
		fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
