package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytplaylists/internal/formatter"
	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/desertthunder/ytplaylists/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistList prints the playlists owned by --user.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}

	playlists, err := st.ListPlaylistsForUser(ctx, cmd.String("user"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if playlists == nil {
			playlists = []*models.Playlist{}
		}
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	if len(playlists) == 0 {
		r.writePlain("No playlists\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Playlists for %s (%d)", cmd.String("user"), len(playlists)))
	for _, p := range playlists {
		r.writePlain("%s  %-30s %d songs\n", p.ID, p.Name, len(p.Songs))
	}
	return nil
}

// PlaylistCreate creates an empty playlist for --user.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}

	playlist, err := st.CreatePlaylist(ctx, cmd.String("name"), cmd.String("user"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Playlist created: %s (%s)\n", playlist.Name, playlist.ID)
	return nil
}

// PlaylistRename renames a playlist.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}

	playlist, err := st.RenamePlaylist(ctx, cmd.String("id"), cmd.String("name"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Playlist renamed: %s\n", playlist.Name)
	return nil
}

// PlaylistDelete deletes a playlist and its entries.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}

	if err := st.DeletePlaylist(ctx, cmd.String("id")); err != nil {
		return err
	}
	r.writePlain("✓ Playlist deleted: %s\n", cmd.String("id"))
	return nil
}

// PlaylistAdd appends a video to a playlist.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}

	playlist, err := st.AddSong(ctx, cmd.String("id"), cmd.String("video"))
	if err != nil {
		return err
	}
	added := playlist.Songs[len(playlist.Songs)-1]
	r.writePlain("✓ Added %s as entry %s (%d songs)\n", added.YouTubeID, added.EntryID, len(playlist.Songs))
	return nil
}

// PlaylistRemove removes one entry from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}

	playlist, err := st.RemoveSong(ctx, cmd.String("id"), cmd.String("entry"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Removed entry %s (%d songs left)\n", cmd.String("entry"), len(playlist.Songs))
	return nil
}

// PlaylistRate sets an entry's rating. The rating must be a whole number from 1 to 10.
func (r *Runner) PlaylistRate(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}

	entry, err := st.RateSong(ctx, cmd.String("id"), cmd.String("entry"), cmd.String("rating"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Rated entry %s: %d/10\n", entry.EntryID, entry.Rating)
	return nil
}

// PlaylistShow prints a playlist joined with video details. Missing details are shown
// with placeholder titles rather than failing the command.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.openEngine(ctx)
	if err != nil {
		return err
	}

	export, err := engine.Export(ctx, cmd.String("id"), "")
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(export, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d songs)", export.Playlist.Name, len(export.Songs)))
	if export.Degraded {
		r.writePlain("! Video details unavailable\n")
	}
	for i, song := range export.Songs {
		rating := "-"
		if song.Rated() {
			rating = fmt.Sprintf("%d/10", song.Rating)
		}
		r.writePlain("%3d. %-50s %-6s %s\n", i+1, song.Title(), rating, song.EntryID)
	}
	return nil
}

// PlaylistExport writes one playlist (--id) or all of a user's playlists (--all) to disk.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	id, all, user := cmd.String("id"), cmd.Bool("all"), cmd.String("user")
	switch {
	case all && user == "":
		return fmt.Errorf("%w: --all requires --user", shared.ErrMissingArgument)
	case all && id != "":
		return fmt.Errorf("%w: cannot specify both --id and --all", shared.ErrInvalidArgument)
	case !all && id == "":
		return fmt.Errorf("%w: either --id or --all must be provided", shared.ErrMissingArgument)
	}

	engine, err := r.openEngine(ctx)
	if err != nil {
		return err
	}

	if all {
		return r.bulkExport(ctx, engine, format, cmd)
	}

	if user != "" {
		if err := r.checkOwner(ctx, user, id); err != nil {
			return err
		}
	}

	export, err := engine.Export(ctx, id, user)
	if err != nil {
		return err
	}

	var result *formatter.Result
	if format == formatter.FormatMarkdown {
		result, err = formatter.WriteMarkdownExport(export, cmd.String("output"), cmd.Bool("covers"))
	} else {
		result, err = formatter.Write(export, format, cmd.String("output"))
	}
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		r.logger.Warn(w, "playlist", id)
	}
	if export.Degraded {
		r.logger.Warn("exported without video details", "playlist", id)
	}
	for _, f := range result.Files {
		r.writePlain("✓ Exported %s\n", f)
	}
	return nil
}

func (r *Runner) bulkExport(ctx context.Context, engine *tasks.PlaylistEngine, format formatter.Format, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}

	user := cmd.String("user")
	playlists, err := st.ListPlaylistsForUser(ctx, user)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		r.writePlain("No playlists to export\n")
		return nil
	}

	ids := make([]string, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := engine.BulkExport(ctx, progress, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		Owner:      user,
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float64("rate"),
		Covers:     cmd.Bool("covers"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Exported %d/%d playlists", result.SuccessfulExports, result.TotalPlaylists))
	for _, res := range result.Results {
		if res.Success {
			r.writePlain("✓ %s\n", res.PlaylistName)
		} else {
			r.writePlain("✗ %s: %s\n", res.PlaylistName, res.ErrorMessage)
		}
	}
	r.writePlainln("Output directory: %s", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

// checkOwner reports ErrForbidden when user does not own the playlist.
func (r *Runner) checkOwner(ctx context.Context, user, playlistID string) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}

	owns, err := st.OwnsPlaylist(ctx, user, playlistID)
	if err != nil {
		return err
	}
	if !owns {
		return fmt.Errorf("%w: %s does not own playlist %s", shared.ErrForbidden, user, playlistID)
	}
	return nil
}
