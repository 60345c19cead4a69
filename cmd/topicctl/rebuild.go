package main

import (
	"context"
	"fmt"
	"time"

	"newsbox-topics/internal/bootstrap"
	"newsbox-topics/internal/config"
	"newsbox-topics/internal/dto"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var rebuildFlags struct {
	user       string
	days       int
	k          int
	algorithm  string
	eps        float64
	minSamples int
	since      string
	json       bool
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild topics for one user",
	Long: `Rebuild topics for one user and print the affected topics.

Examples:
  topicctl rebuild --user 6f1c... --days 7
  topicctl rebuild --user 6f1c... --algorithm kmeans --k 5 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, err := uuid.Parse(rebuildFlags.user)
		if err != nil {
			return fmt.Errorf("--user must be a UUID: %w", err)
		}
		opts, err := rebuildOptions(cmd)
		if err != nil {
			return err
		}

		return withContainer(func(ctx context.Context, _ *config.Config, c *bootstrap.Container) error {
			res, err := c.RebuildService.RebuildTopics(ctx, userId, opts)
			if err != nil {
				return err
			}
			if rebuildFlags.json {
				return printJSON(res)
			}
			printRebuild(res)
			return nil
		})
	},
}

func init() {
	f := rebuildCmd.Flags()
	f.StringVar(&rebuildFlags.user, "user", "", "owner id")
	f.IntVar(&rebuildFlags.days, "days", 0, "only cluster notes from the last N days")
	f.IntVar(&rebuildFlags.k, "k", 0, "cluster count for k-means")
	f.StringVar(&rebuildFlags.algorithm, "algorithm", "auto", "auto, dbscan or kmeans")
	f.Float64Var(&rebuildFlags.eps, "eps", 0, "DBSCAN epsilon (cosine distance)")
	f.IntVar(&rebuildFlags.minSamples, "min-samples", 0, "DBSCAN core point threshold")
	f.StringVar(&rebuildFlags.since, "since", "", "RFC3339 time; mark topics that gained notes after it")
	f.BoolVar(&rebuildFlags.json, "json", false, "print the raw result")
	_ = rebuildCmd.MarkFlagRequired("user")
}

// rebuildOptions only sets the fields whose flags were given, so service defaults apply otherwise.
func rebuildOptions(cmd *cobra.Command) (dto.RebuildOptions, error) {
	opts := dto.RebuildOptions{Algorithm: rebuildFlags.algorithm}
	flags := cmd.Flags()
	if flags.Changed("days") {
		opts.RecencyDays = &rebuildFlags.days
	}
	if flags.Changed("k") {
		opts.K = &rebuildFlags.k
	}
	if flags.Changed("eps") {
		opts.Epsilon = &rebuildFlags.eps
	}
	if flags.Changed("min-samples") {
		opts.MinSamples = &rebuildFlags.minSamples
	}
	if rebuildFlags.since != "" {
		since, err := time.Parse(time.RFC3339, rebuildFlags.since)
		if err != nil {
			return opts, fmt.Errorf("--since must be RFC3339: %w", err)
		}
		opts.MarkRefreshedSince = &since
	}
	return opts, nil
}

func printRebuild(res *dto.RebuildResult) {
	run := res.Run
	color.Cyan("Run: %s over %d notes (%d embedded, %d cached, %d noise)",
		run.Algorithm, run.Notes, run.Embedded, run.Cached, run.Noise)
	color.Cyan("Clusters %d: matched %d, created %d, updated %d, cleared %d",
		res.Stats.ClustersFound, res.Stats.Matched, res.Stats.Created, res.Stats.Updated, res.Stats.Cleared)
	for _, t := range res.Topics {
		line := fmt.Sprintf("  %s  %-40s %3d notes", t.Id, t.Title, t.MemberCount)
		if t.Created {
			color.Green("%s  (new)", line)
			continue
		}
		fmt.Println(line)
	}
}
