package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/rollwatch/pkg/api"
	"github.com/cuemby/rollwatch/pkg/argocd"
	"github.com/cuemby/rollwatch/pkg/config"
	"github.com/cuemby/rollwatch/pkg/log"
	"github.com/cuemby/rollwatch/pkg/state"
	"github.com/cuemby/rollwatch/pkg/watcher"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rollwatch",
	Short: "Rollwatch - ArgoCD rollout verification for CI pipelines",
	Long: `Rollwatch bridges the eventually-consistent rollout model of ArgoCD
to the synchronous "did my deploy succeed?" question a CI job asks.

A pipeline submits the image tags it just pushed; rollwatch polls ArgoCD
until the images are observed running and the application reports healthy
and in sync, or a deadline expires. Pipelines poll back for the verdict.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Rollwatch version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serverCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the rollwatch server",
	Long: `Run the rollwatch HTTP server on port 8080.

All settings are resolved from the environment. ARGO_URL, ARGO_USER and
ARGO_PASSWORD are required; STATE_TYPE selects the task store backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		log.Init(log.Config{
			Level:      cfg.LogLevel,
			JSONOutput: true,
			Output:     os.Stdout,
		})

		store, err := state.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize state store: %w", err)
		}
		defer store.Close()

		argo, err := argocd.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize ArgoCD client: %w", err)
		}

		if err := argo.Authenticate(); err != nil {
			switch {
			case errors.Is(err, argocd.ErrUnauthorized):
				log.Fatal("Unauthorized, please check credentials")
			case errors.Is(err, argocd.ErrForbidden):
				log.Fatal("Forbidden, please check the firewall")
			default:
				return fmt.Errorf("authentication error: %w", err)
			}
		}

		w := watcher.New(argo, store, cfg.ArgoTimeout)
		server := api.NewServer(store, w, argo, Version)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("Rollwatch starting")
		if err := server.Start(ctx, cfg.BindIP); err != nil {
			return fmt.Errorf("server error: %w", err)
		}

		log.Info("Rollwatch stopped")
		return nil
	},
}
