package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"issuepilot/internal/api"
	"issuepilot/internal/notify"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook and API server",
	Long: `Serve starts the HTTP server that receives GitHub issue webhooks and
exposes the processing API. New issues are analyzed as they arrive and
results are delivered to configured notification channels.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c, err := initComponents(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if n := notify.NewNotifier(cfg.Notify.SlackWebhook, cfg.Notify.DiscordWebhook); n != nil {
		results := c.Broker.Subscribe(ctx)
		go notify.Run(ctx, n, cfg.GitHub.FullName(), results, logger)
		logger.Info("notifications enabled",
			"slack", cfg.Notify.SlackWebhook != "",
			"discord", cfg.Notify.DiscordWebhook != "")
	}

	server := api.New(api.Config{
		Addr:          cfg.Server.Addr(),
		WebhookSecret: cfg.GitHub.WebhookSecret,
		Processor:     c.Processor,
		Repo:          c.Repo,
		Logger:        logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
