package main

import (
	"context"

	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/services"
	"github.com/urfave/cli/v3"
)

// Search queries the video provider and prints one line per result.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query, err := requireArg(cmd, "query")
	if err != nil {
		return err
	}

	limit := int(cmd.Int("max"))
	if limit <= 0 {
		limit = r.config.YouTube.SearchMaxResults
	}

	r.logger.Debug("searching videos", "query", query, "max", limit)
	videos, err := r.openProvider(ctx).Search(ctx, query, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if videos == nil {
			videos = []models.VideoMetadata{}
		}
		return r.writeJSON(videos, cmd.Bool("pretty"))
	}

	if len(videos) == 0 {
		r.writePlain("No results for %q\n", query)
		return nil
	}

	for i, v := range videos {
		r.writePlain("%2d. %s\n", i+1, v.Title)
		r.writePlain("    %s  %s\n", v.ChannelTitle, services.WatchURL(v.ID))
	}
	return nil
}
