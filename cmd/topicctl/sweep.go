package main

import (
	"context"

	"newsbox-topics/internal/bootstrap"
	"newsbox-topics/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one scheduler pass synchronously",
	Long: `Find owners with recent notes and rebuild each of them in turn, the way the
background scheduler does, but without the queue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, _ *config.Config, c *bootstrap.Container) error {
			jobs, err := c.SchedulerService.Jobs(ctx)
			if err != nil {
				return err
			}
			color.Cyan("%d owners due for a rebuild", len(jobs))

			failed := 0
			for _, job := range jobs {
				if err := c.ConsumerService.Handle(ctx, job); err != nil {
					failed++
					color.Red("  %s: %v", job.UserId, err)
					continue
				}
				color.Green("  %s: done", job.UserId)
			}
			if failed > 0 {
				color.Yellow("%d of %d rebuilds failed", failed, len(jobs))
			}
			return nil
		})
	},
}
