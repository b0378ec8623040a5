package main

import (
	"context"
	"strings"

	"github.com/desertthunder/ytplaylists/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CacheWarm requests details for every video in the user's playlists. With a Redis cache
// configured the results are stored for later lookups; without one the run only reports
// which videos the provider knows.
func (r *Runner) CacheWarm(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.openEngine(ctx)
	if err != nil {
		return err
	}

	if r.config.Cache.RedisURL == "" {
		r.logger.Warn("no redis_url configured; results will not be cached")
	}

	progress := make(chan tasks.ProgressUpdate, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	result, err := engine.WarmCache(ctx, progress, cmd.String("user"))
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Scanned %d playlists\n", result.Playlists)
	r.writePlain("  Videos: %d requested, %d found\n", result.Videos, result.Found)
	if len(result.Missing) > 0 {
		r.writePlain("  Missing: %s\n", strings.Join(result.Missing, ", "))
	}
	return nil
}
