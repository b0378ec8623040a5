package models

import (
	"encoding/json"
	"testing"
)

func TestSongEntryJSON(t *testing.T) {
	t.Run("unrated entries encode rating as null", func(t *testing.T) {
		data, err := json.Marshal(SongEntry{EntryID: "e1", YouTubeID: "abc"})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(data) != `{"entryId":"e1","youtubeId":"abc","rating":null}` {
			t.Errorf("unexpected json: %s", data)
		}
	})

	t.Run("null rating decodes as unrated", func(t *testing.T) {
		var s SongEntry
		if err := json.Unmarshal([]byte(`{"entryId":"e1","youtubeId":"abc","rating":null}`), &s); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if s.Rated() {
			t.Errorf("expected unrated entry, got rating %d", s.Rating)
		}
	})

	t.Run("playlist round trip", func(t *testing.T) {
		in := Playlist{
			ID:      "p1",
			OwnerID: "u1",
			Name:    "Focus",
			Songs: []SongEntry{
				{EntryID: "e1", YouTubeID: "abc", Rating: 7},
				{EntryID: "e2", YouTubeID: "abc"},
			},
		}

		data, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var out Playlist
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if out.ID != in.ID || out.OwnerID != in.OwnerID || out.Name != in.Name || len(out.Songs) != 2 {
			t.Fatalf("round trip mismatch: %+v", out)
		}
		for i := range in.Songs {
			if out.Songs[i] != in.Songs[i] {
				t.Errorf("song %d: expected %+v, got %+v", i, in.Songs[i], out.Songs[i])
			}
		}
	})
}

func TestEnrich(t *testing.T) {
	songs := []SongEntry{
		{EntryID: "e1", YouTubeID: "known"},
		{EntryID: "e2", YouTubeID: "missing"},
		{EntryID: "e3", YouTubeID: "known", Rating: 3},
	}
	meta := map[string]VideoMetadata{
		"known": {ID: "known", Title: "Known Song", ThumbnailURL: "https://i.ytimg.com/vi/known/mqdefault.jpg"},
	}

	enriched := Enrich(songs, meta)

	if len(enriched) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(enriched))
	}
	if enriched[0].Title() != "Known Song" || enriched[2].Title() != "Known Song" {
		t.Errorf("expected known title for duplicate ids, got %q and %q", enriched[0].Title(), enriched[2].Title())
	}
	if enriched[1].Metadata != nil {
		t.Error("expected missing metadata for unknown id")
	}
	if enriched[1].Title() != UnknownTitle || enriched[1].Thumbnail() != PlaceholderThumbnail {
		t.Errorf("expected sentinel title and thumbnail, got %q %q", enriched[1].Title(), enriched[1].Thumbnail())
	}
	if enriched[2].Rating != 3 {
		t.Errorf("expected rating carried over, got %d", enriched[2].Rating)
	}
}

func TestPlaylistHelpers(t *testing.T) {
	p := Playlist{Songs: []SongEntry{
		{EntryID: "e1", YouTubeID: "a"},
		{EntryID: "e2", YouTubeID: "b"},
		{EntryID: "e3", YouTubeID: "a"},
	}}

	if ids := p.YouTubeIDs(); len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("expected [a b], got %v", ids)
	}
	if _, ok := p.Entry("e2"); !ok {
		t.Error("expected to find e2")
	}
	if _, ok := p.Entry("nope"); ok {
		t.Error("did not expect to find nope")
	}
}
