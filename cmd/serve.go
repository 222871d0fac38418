package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	httpapi "waste-collector.com/waste-collector/internal/http"
)

const maxImageBytes = 10 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the collection task HTTP API with AI-assisted verification",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		e := echo.New()
		e.HideBanner = true

		handler := httpapi.NewHandler(a.taskService, a.verifyService, a.rewardService, maxImageBytes)
		httpapi.Register(e, handler, httpapi.RouteConfig{
			RateLimitPerMinute:  cfg.RateLimit,
			IdentityEmailHeader: cfg.IdentityEmailHeader,
			IdentityNameHeader:  cfg.IdentityNameHeader,
			MaxImageBytes:       maxImageBytes,
		})

		go func() {
			log.Printf("HTTP server listening on %s", cfg.AppURL())
			if err := e.Start(cfg.AppURL()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("server stopped: %v", err)
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		_ = e.Shutdown(shutdownCtx)

		log.Println("HTTP server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
