package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradingiq/gmocoin-client/internal/app"
	"github.com/tradingiq/gmocoin-client/internal/config"
	"github.com/tradingiq/gmocoin-client/internal/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "gmocoin-stream",
		Short:         "Stream GMO Coin ticker and order book data into log, Kafka or Redis sinks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.Run(ctx, cfg, log); err != nil {
				log.Error("Collector failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
	config.RegisterFlags(root.Flags())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
