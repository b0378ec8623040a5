package formatter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytplaylists/internal/models"
	th "github.com/desertthunder/ytplaylists/internal/testing"
)

func sampleExport(thumbnail string) *models.PlaylistExport {
	songs := []models.SongEntry{
		{EntryID: "e1", YouTubeID: "dQw4w9WgXcQ", Rating: 9},
		{EntryID: "e2", YouTubeID: "9bZkp7q19f0"},
		{EntryID: "e3", YouTubeID: "gone0000000"},
	}
	metadata := map[string]models.VideoMetadata{
		"dQw4w9WgXcQ": {
			ID:           "dQw4w9WgXcQ",
			Title:        "Never Gonna Give You Up",
			ThumbnailURL: thumbnail,
			ChannelTitle: "Rick Astley",
			Duration:     "3:33",
			ViewCount:    "1,500,000,000",
		},
		"9bZkp7q19f0": {ID: "9bZkp7q19f0", Title: "Gangnam Style, Official", ChannelTitle: "officialpsy"},
	}

	return &models.PlaylistExport{
		Playlist:   models.Playlist{ID: "pl1", Name: "Road Trip", Songs: songs},
		Owner:      "listener",
		Songs:      models.Enrich(songs, metadata),
		ExportedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport(""))
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Position,Entry ID,YouTube ID,Title,Channel,Duration,Views,Rating,URL\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `1,e1,dQw4w9WgXcQ,Never Gonna Give You Up,Rick Astley,3:33,"1,500,000,000",9,https://www.youtube.com/watch?v=dQw4w9WgXcQ`) {
			t.Errorf("CSV row 1 wrong, got: %s", output)
		}
		if !strings.Contains(output, `"Gangnam Style, Official"`) {
			t.Errorf("CSV should quote titles containing commas")
		}
		if !strings.Contains(output, "3,e3,gone0000000,"+models.UnknownTitle+",,,,,") {
			t.Errorf("CSV should fall back for missing metadata, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(""), "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Road Trip\n",
				"**Owner**: listener",
				"**Songs**: 3",
				"**Exported**: 2024-05-01T10:00:00Z",
				"1. [Never Gonna Give You Up](https://www.youtube.com/watch?v=dQw4w9WgXcQ) - Rick Astley [3:33] (9/10)",
				"3. [" + models.UnknownTitle + "](https://www.youtube.com/watch?v=gone0000000)\n",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got:\n%s", want, output)
				}
			}
			if strings.Contains(output, "![Cover]") {
				t.Error("Markdown should not reference a cover image")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(""), "cover.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Error("Markdown missing cover image reference")
			}
		})

		t.Run("degraded", func(t *testing.T) {
			export := sampleExport("")
			export.Degraded = true
			data, _ := ExportToMarkdown(export, "")
			if !strings.Contains(string(data), "Video details were unavailable") {
				t.Error("Markdown should note degraded exports")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport(""))
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Playlist: Road Trip\nOwner: listener\nSongs: 3\n\n") {
			t.Errorf("unexpected header, got:\n%s", output)
		}
		if !strings.Contains(output, "1. Never Gonna Give You Up [9] https://www.youtube.com/watch?v=dQw4w9WgXcQ\n") {
			t.Errorf("unexpected rated line, got:\n%s", output)
		}
		if !strings.Contains(output, "2. Gangnam Style, Official https://www.youtube.com/watch?v=9bZkp7q19f0\n") {
			t.Errorf("unexpected unrated line, got:\n%s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport(""))
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded struct {
			Owner string `json:"owner"`
			Songs []struct {
				EntryID string `json:"entryId"`
				Title   string `json:"title"`
				Rating  *int   `json:"rating"`
			} `json:"songs"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Owner != "listener" || len(decoded.Songs) != 3 {
			t.Fatalf("unexpected export: %+v", decoded)
		}
		if decoded.Songs[0].Rating == nil || *decoded.Songs[0].Rating != 9 {
			t.Error("rated song should carry its rating")
		}
		if decoded.Songs[1].Rating != nil {
			t.Error("unrated song should have a null rating")
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{"MD", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"txt", FormatText},
		{" json ", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDownloadImage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpegdata"))
		}))
		defer srv.Close()

		data, err := DownloadImage(srv.URL)
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "jpegdata" {
			t.Errorf("got %q", data)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		if _, err := DownloadImage(srv.URL); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("expected error for empty URL")
		}
		if _, err := DownloadImage(models.PlaceholderThumbnail); err == nil {
			t.Error("expected error for placeholder thumbnail")
		}
	})
}

func TestWrite(t *testing.T) {
	t.Run("WithDefaultPath", func(t *testing.T) {
		tempDir := t.TempDir()
		t.Chdir(tempDir)

		for format, name := range map[Format]string{FormatCSV: "pl1.csv", FormatText: "pl1.txt", FormatJSON: "pl1.json"} {
			result, err := Write(sampleExport(""), format, "")
			if err != nil {
				t.Fatalf("Write(%s) failed: %v", format, err)
			}
			if len(result.Files) != 1 || result.Files[0] != name {
				t.Errorf("Write(%s) files = %v, want [%s]", format, result.Files, name)
			}
			th.AssertFileExists(t, name)
		}
	})

	t.Run("WithCustomPath", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "nested", "out.csv")
		if _, err := Write(sampleExport(""), FormatCSV, dest); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.Contains(th.MustReadFile(t, dest), "dQw4w9WgXcQ") {
			t.Error("CSV content missing")
		}
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		if _, err := Write(sampleExport(""), Format("xml"), ""); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestWriteMarkdownExport(t *testing.T) {
	t.Run("WithCover", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpegdata"))
		}))
		defer srv.Close()

		dir := filepath.Join(t.TempDir(), "export")
		result, err := WriteMarkdownExport(sampleExport(srv.URL), dir, true)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		th.AssertDirExists(t, dir)
		th.AssertFileExists(t, filepath.Join(dir, "cover.jpg"))
		if len(result.Files) != 2 || len(result.Warnings) != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		if !strings.Contains(th.MustReadFile(t, filepath.Join(dir, "README.md")), "![Cover](cover.jpg)") {
			t.Error("README should reference the cover")
		}
	})

	t.Run("CoverFailureIsAWarning", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		dir := filepath.Join(t.TempDir(), "export")
		result, err := WriteMarkdownExport(sampleExport(srv.URL), dir, true)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if len(result.Warnings) != 1 {
			t.Errorf("expected one warning, got %v", result.Warnings)
		}
		th.AssertFileExists(t, filepath.Join(dir, "README.md"))
	})

	t.Run("WithDefaultDirectory", func(t *testing.T) {
		tempDir := t.TempDir()
		t.Chdir(tempDir)

		result, err := WriteMarkdownExport(sampleExport(""), "", false)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if result.Files[0] != filepath.Join("pl1", "README.md") {
			t.Errorf("unexpected files: %v", result.Files)
		}
	})
}
