// package formatter exports enriched playlists to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/services"
	"github.com/desertthunder/ytplaylists/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats in the order help text shows them.
var Formats = []Format{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// ParseFormat accepts a format name or its usual extension ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

func ratingString(e models.EnrichedSongEntry) string {
	if !e.Rated() {
		return ""
	}
	return strconv.Itoa(e.Rating)
}

func metadataField(e models.EnrichedSongEntry, field func(*models.VideoMetadata) string) string {
	if e.Metadata == nil {
		return ""
	}
	return field(e.Metadata)
}

// ExportToCSV writes one row per song with columns: Position, Entry ID, YouTube ID, Title,
// Channel, Duration, Views, Rating, URL
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Entry ID", "YouTube ID", "Title", "Channel", "Duration", "Views", "Rating", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range export.Songs {
		record := []string{
			strconv.Itoa(i + 1),
			song.EntryID,
			song.YouTubeID,
			song.Title(),
			metadataField(song, func(m *models.VideoMetadata) string { return m.ChannelTitle }),
			metadataField(song, func(m *models.VideoMetadata) string { return m.Duration }),
			metadataField(song, func(m *models.VideoMetadata) string { return m.ViewCount }),
			ratingString(song),
			services.WatchURL(song.YouTubeID),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the playlist as a numbered list of linked videos with an optional cover image
func ExportToMarkdown(export *models.PlaylistExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Playlist.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if export.Owner != "" {
		fmt.Fprintf(&buf, "**Owner**: %s\n", export.Owner)
	}
	fmt.Fprintf(&buf, "**Songs**: %d\n", len(export.Songs))
	if !export.ExportedAt.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", export.ExportedAt.UTC().Format(time.RFC3339))
	}
	if export.Degraded {
		buf.WriteString("\n> Video details were unavailable for this export.\n")
	}

	buf.WriteString("\n## Songs\n\n")
	for i, song := range export.Songs {
		fmt.Fprintf(&buf, "%d. [%s](%s)", i+1, song.Title(), services.WatchURL(song.YouTubeID))
		if song.Metadata != nil && song.Metadata.ChannelTitle != "" {
			fmt.Fprintf(&buf, " - %s", song.Metadata.ChannelTitle)
		}
		if song.Metadata != nil && song.Metadata.Duration != "" {
			fmt.Fprintf(&buf, " [%s]", song.Metadata.Duration)
		}
		if song.Rated() {
			fmt.Fprintf(&buf, " (%d/%d)", song.Rating, models.MaxRating)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name)
	if export.Owner != "" {
		fmt.Fprintf(&buf, "Owner: %s\n", export.Owner)
	}
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(export.Songs))

	for i, song := range export.Songs {
		fmt.Fprintf(&buf, "%d. %s", i+1, song.Title())
		if r := ratingString(song); r != "" {
			fmt.Fprintf(&buf, " [%s]", r)
		}
		fmt.Fprintf(&buf, " %s\n", services.WatchURL(song.YouTubeID))
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the full export, metadata included.
func ExportToJSON(export *models.PlaylistExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return append(data, '\n'), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" || url == models.PlaceholderThumbnail {
		return nil, fmt.Errorf("%w: no image URL", shared.ErrMissingArgument)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// Result lists the files an export wrote. Warnings carries non-fatal problems such as a
// cover image that could not be fetched.
type Result struct {
	Format   Format
	Files    []string
	Warnings []string
}

// Write exports to dest in the given format. An empty dest defaults to a name derived from
// the playlist ID: {id}.csv, {id}.txt, {id}.json, or the directory {id}/ for Markdown.
func Write(export *models.PlaylistExport, format Format, dest string) (*Result, error) {
	switch format {
	case FormatCSV:
		return writeFile(export, format, dest, ".csv", ExportToCSV)
	case FormatText:
		return writeFile(export, format, dest, ".txt", ExportToText)
	case FormatJSON:
		return writeFile(export, format, dest, ".json", ExportToJSON)
	case FormatMarkdown:
		return WriteMarkdownExport(export, dest, true)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

func writeFile(export *models.PlaylistExport, format Format, dest, ext string, render func(*models.PlaylistExport) ([]byte, error)) (*Result, error) {
	if dest == "" {
		dest = export.Playlist.ID + ext
	}

	data, err := render(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return &Result{Format: format, Files: []string{dest}}, nil
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the playlist ID. With withCover set, the first song's thumbnail
// is downloaded as cover.jpg; a failed download is reported in [Result.Warnings].
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *models.PlaylistExport, outputDir string, withCover bool) (*Result, error) {
	if outputDir == "" {
		outputDir = export.Playlist.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &Result{Format: FormatMarkdown}

	var coverImageFilename string
	if withCover && len(export.Songs) > 0 && export.Songs[0].Metadata != nil {
		imageData, err := DownloadImage(export.Songs[0].Metadata.ThumbnailURL)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to download cover image: %v", err))
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save cover image: %v", err))
				coverImageFilename = ""
			} else {
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}
