package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sourcewatch/sourcewatch"
	"github.com/sourcewatch/sourcewatch/config"
)

var (
	watchConfigPath string
	watchBaseURL    string
	watchID         string
	watchSecret     string
	watchVerbose    bool
)

// watchCmd polls a single resource until it reaches a terminal state.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll a resource until it reaches a terminal state",
	Long: `Poll the status of a remote resource until it becomes terminal,
the attempt cap is exhausted, or the process is interrupted.

The terminal resource is printed to stdout as JSON. The exit code is 0
when the resource reached a terminal state and 1 otherwise.

The client secret can also be supplied via the SOURCEWATCH_SECRET
environment variable.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchID, "id", "", "identifier of the resource to poll (required)")
	watchCmd.Flags().StringVar(&watchSecret, "secret", "", "client secret authorizing the lookup (or SOURCEWATCH_SECRET)")
	watchCmd.Flags().StringVarP(&watchConfigPath, "config", "c", "", "path to YAML configuration file")
	watchCmd.Flags().StringVar(&watchBaseURL, "base-url", "", "API base URL (overrides config)")
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "enable debug logging")
	_ = watchCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Don't show usage on runtime errors, only on flag errors
	cmd.SilenceUsage = true

	logger := newLogger(watchVerbose)

	secret := watchSecret
	if secret == "" {
		secret = os.Getenv("SOURCEWATCH_SECRET")
	}
	if secret == "" {
		return fmt.Errorf("a client secret is required: pass --secret or set SOURCEWATCH_SECRET")
	}

	fetcher, opts, err := buildFromConfig()
	if err != nil {
		return err
	}
	defer fetcher.Close()

	// Stop polling cleanly on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts = append(opts,
		sourcewatch.WithLogger(logger),
		sourcewatch.WithContext(ctx),
	)

	poller, err := sourcewatch.New(fetcher, watchID, secret, func(res sourcewatch.Result) {}, opts...)
	if err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}

	logger.Info("polling started", "resource_id", watchID, "base_url", fetcher.BaseURL())

	res, delivered := <-poller.Done()
	if !delivered {
		// Interrupted before any outcome was reached.
		logger.Info("polling interrupted", "resource_id", watchID, "attempts", poller.Attempts())
		return fmt.Errorf("interrupted after %d attempts", poller.Attempts())
	}

	if res.Err != nil {
		logger.Error("polling failed", "resource_id", watchID, "attempts", res.Attempts, "error", res.Err)
		return res.Err
	}

	logger.Info("resource reached terminal state",
		"resource_id", res.Resource.ID,
		"status", res.Resource.Status,
		"attempts", res.Attempts)

	out, err := json.MarshalIndent(res.Resource, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode resource: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// buildFromConfig assembles the fetcher and poller options from the config
// file and flags. The --base-url flag wins over the config file.
func buildFromConfig() (*sourcewatch.HTTPFetcher, []sourcewatch.Option, error) {
	if watchConfigPath == "" {
		if watchBaseURL == "" {
			return nil, nil, fmt.Errorf("a base URL is required: pass --base-url or a config file with -c")
		}
		fetcher, err := sourcewatch.NewHTTPFetcher(watchBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return fetcher, nil, nil
	}

	cfg, err := config.Load(watchConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if watchBaseURL != "" {
		cfg.BaseURL = watchBaseURL
	}

	fetcher, err := config.BuildFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	return fetcher, config.BuildOptions(cfg), nil
}

// newLogger creates a structured JSON logger writing to stderr, keeping
// stdout free for the terminal resource.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
