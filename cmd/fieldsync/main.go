package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/totegamma/carelog/internal/config"
	"github.com/totegamma/carelog/internal/infrastructure/providers"
	"github.com/totegamma/carelog/internal/infrastructure/tracing"
)

const version = "1.0.0"

var (
	configPath string
	conf       config.Agent
	cleanup    = func() {}
)

var rootCmd = &cobra.Command{
	Use:           "fieldsync",
	Short:         "Offline-first visit log agent",
	Long:          "Records antenatal and immunization visits on the device, signs them and syncs them to the document store when connectivity allows.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			conf, err = config.LoadAgent(configPath)
		} else {
			conf = config.DefaultAgent()
			err = conf.Validate()
		}
		if err != nil {
			return err
		}

		level, _ := config.ParseLevel(conf.Log.Level)
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		if conf.Trace.Enable {
			c, err := tracing.Setup(conf.Trace.Endpoint, "fieldsync", version)
			if err != nil {
				return err
			}
			cleanup = c
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "fieldsync.yaml", "path to config file")
}

// withAgent opens a device session for the duration of fn.
func withAgent(cmd *cobra.Command, fn func(ctx context.Context, agent *providers.Agent) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, err := providers.NewAgent(conf)
	if err != nil {
		return err
	}
	defer agent.Close()

	agent.Open(ctx)
	return fn(ctx, agent)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
