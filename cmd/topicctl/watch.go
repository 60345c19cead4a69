package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"newsbox-topics/internal/config"
	"newsbox-topics/pkg/events"
	pktNats "newsbox-topics/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchDurable string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print rebuild events from NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = sub.Subscribe(ctx, events.TopicsRebuiltType, watchDurable, func(_ context.Context, ev events.Event) error {
			p := ev.Payload()
			color.Cyan("%s user=%v created=%v updated=%v cleared=%v",
				ev.Timestamp().Format("2006-01-02 15:04:05"), p["user_id"], p["created"], p["updated"], p["cleared"])
			return nil
		})
		if err != nil {
			return err
		}
		color.Green("Watching %s on %s", events.TopicsRebuiltType, cfg.App.NatsURL)
		<-ctx.Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchDurable, "durable", "topicctl-watch", "durable consumer name")
}
