package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spotilists/internal/csvutil"
	"spotilists/internal/playlist"
)

type fakeLibrary struct {
	playlists    []playlist.Playlist
	entries      map[string][]playlist.Entry
	liked        []playlist.Entry
	features     map[string]playlist.AudioFeatures
	failFor      map[string]error
	featureCalls int
	featureIDs   []string
}

func (f *fakeLibrary) Playlists(ctx context.Context) ([]playlist.Playlist, error) {
	return f.playlists, nil
}

func (f *fakeLibrary) PlaylistEntries(ctx context.Context, id string) ([]playlist.Entry, error) {
	if err := f.failFor[id]; err != nil {
		return nil, err
	}
	return f.entries[id], nil
}

func (f *fakeLibrary) LikedEntries(ctx context.Context) ([]playlist.Entry, error) {
	return f.liked, nil
}

func (f *fakeLibrary) LikedTotal(ctx context.Context) (int, error) {
	return len(f.liked), nil
}

func (f *fakeLibrary) AudioFeatures(ctx context.Context, ids []string) (map[string]playlist.AudioFeatures, error) {
	f.featureCalls++
	f.featureIDs = append(f.featureIDs, ids...)
	out := make(map[string]playlist.AudioFeatures)
	for _, id := range ids {
		if feat, ok := f.features[id]; ok {
			out[id] = feat
		}
	}
	return out, nil
}

func trackEntry(id, name string) playlist.Entry {
	return playlist.Entry{
		AddedAt: "2024-01-15T08:30:00Z",
		AddedBy: "owner1",
		Track: &playlist.Track{
			ID:         id,
			Name:       name,
			Artists:    []string{"Artist"},
			Album:      "Album",
			DurationMS: 200000,
		},
	}
}

func newTestExporter(t *testing.T, library Library, withFeatures bool) *Exporter {
	t.Helper()
	e := NewExporter(library, withFeatures)
	e.outDir = t.TempDir()
	return e
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	records, err := csvutil.ReadCsvFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return records
}

// Column indices in the fixed export schema.
const (
	colTrackName    = 0
	colDanceability = 16
)

func TestExportNamedWritesCSV(t *testing.T) {
	lib := &fakeLibrary{
		playlists: []playlist.Playlist{{ID: "p1", Name: "Road Trip", TrackCount: 2}},
		entries: map[string][]playlist.Entry{
			"p1": {trackEntry("t1", "First"), trackEntry("t2", "Second")},
		},
		features: map[string]playlist.AudioFeatures{
			"t1": {Danceability: 0.5, Tempo: 120, Key: 5, TimeSignature: 4},
		},
	}
	e := newTestExporter(t, lib, true)

	if err := e.ExportNamed(context.Background(), "road trip", ""); err != nil {
		t.Fatalf("ExportNamed: %v", err)
	}

	records := readCSV(t, filepath.Join(e.outDir, "Road Trip.csv"))
	if len(records) != 3 {
		t.Fatalf("got %d records, want header plus 2 rows", len(records))
	}
	if len(records[0]) != 28 {
		t.Errorf("got %d columns, want 28", len(records[0]))
	}
	if records[0][0] != "track_name" || records[0][27] != "time_signature" {
		t.Errorf("unexpected header boundaries: %q ... %q", records[0][0], records[0][27])
	}
	if records[1][colDanceability] != "0.5" {
		t.Errorf("danceability = %q, want %q", records[1][colDanceability], "0.5")
	}
	if records[2][colDanceability] != "" {
		t.Errorf("track without features should have empty feature columns, got %q", records[2][colDanceability])
	}
}

func TestRepeatedExportIsIdentical(t *testing.T) {
	lib := &fakeLibrary{
		playlists: []playlist.Playlist{{ID: "p1", Name: "Road Trip", TrackCount: 2}},
		entries: map[string][]playlist.Entry{
			"p1": {trackEntry("t1", "First"), trackEntry("t2", "Second")},
		},
		features: map[string]playlist.AudioFeatures{
			"t1": {Danceability: 0.735, Energy: 0.578, Key: 10, Tempo: 98.002, TimeSignature: 4},
		},
	}
	e := newTestExporter(t, lib, true)
	path := filepath.Join(e.outDir, "Road Trip.csv")

	if err := e.ExportNamed(context.Background(), "Road Trip", ""); err != nil {
		t.Fatalf("first export: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.ExportNamed(context.Background(), "Road Trip", ""); err != nil {
		t.Fatalf("second export: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Error("exporting the same playlist twice should produce identical files")
	}
}

func TestExportNamedNotFound(t *testing.T) {
	lib := &fakeLibrary{playlists: []playlist.Playlist{{ID: "p1", Name: "Road Trip"}}}
	e := newTestExporter(t, lib, false)

	err := e.ExportNamed(context.Background(), "Missing", "")
	if err == nil {
		t.Fatal("expected an error for an unknown playlist")
	}
	if !strings.Contains(err.Error(), "Missing") {
		t.Errorf("error %q should name the playlist", err)
	}
	files, _ := os.ReadDir(e.outDir)
	if len(files) != 0 {
		t.Errorf("no files should be written, found %d", len(files))
	}
}

func TestExportNamedLikedAlias(t *testing.T) {
	lib := &fakeLibrary{liked: []playlist.Entry{trackEntry("t1", "Fav")}}
	e := newTestExporter(t, lib, false)

	if err := e.ExportNamed(context.Background(), "saved songs", ""); err != nil {
		t.Fatalf("ExportNamed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.outDir, "Liked Songs.csv")); err != nil {
		t.Errorf("Liked Songs.csv not written: %v", err)
	}
}

func TestExportSkipsUnavailableTracks(t *testing.T) {
	lib := &fakeLibrary{
		playlists: []playlist.Playlist{{ID: "p1", Name: "Mixed"}},
		entries: map[string][]playlist.Entry{
			"p1": {
				trackEntry("t1", "Kept"),
				{AddedAt: "2024-01-01T00:00:00Z", AddedBy: "owner1"},
				{AddedBy: "owner1", Track: &playlist.Track{Name: "Local Only"}},
			},
		},
	}
	e := newTestExporter(t, lib, true)

	if err := e.ExportNamed(context.Background(), "Mixed", ""); err != nil {
		t.Fatalf("ExportNamed: %v", err)
	}

	records := readCSV(t, filepath.Join(e.outDir, "Mixed.csv"))
	if len(records) != 3 {
		t.Fatalf("got %d records, want header plus kept and local rows", len(records))
	}
	if records[2][colTrackName] != "Local Only" {
		t.Errorf("ID-less track should keep its row, got %q", records[2][colTrackName])
	}
	if records[2][colDanceability] != "" {
		t.Errorf("ID-less track should have empty feature columns")
	}
	if len(lib.featureIDs) != 1 || lib.featureIDs[0] != "t1" {
		t.Errorf("only catalog tracks should be sent to the features endpoint, got %v", lib.featureIDs)
	}
}

func TestNoFeaturesSkipsLookups(t *testing.T) {
	lib := &fakeLibrary{
		playlists: []playlist.Playlist{{ID: "p1", Name: "Quiet"}},
		entries:   map[string][]playlist.Entry{"p1": {trackEntry("t1", "Song")}},
	}
	e := newTestExporter(t, lib, false)

	if err := e.ExportNamed(context.Background(), "Quiet", ""); err != nil {
		t.Fatalf("ExportNamed: %v", err)
	}
	if lib.featureCalls != 0 {
		t.Errorf("audio features were fetched %d times with features disabled", lib.featureCalls)
	}

	records := readCSV(t, filepath.Join(e.outDir, "Quiet.csv"))
	if len(records[0]) != 28 {
		t.Errorf("feature columns must stay in the header, got %d columns", len(records[0]))
	}
}

func TestExportNamedEmptyPlaylist(t *testing.T) {
	lib := &fakeLibrary{
		playlists: []playlist.Playlist{{ID: "p1", Name: "Empty"}},
		entries:   map[string][]playlist.Entry{"p1": {}},
	}
	e := newTestExporter(t, lib, false)

	if err := e.ExportNamed(context.Background(), "Empty", ""); err == nil {
		t.Fatal("expected an error for a playlist with no exportable tracks")
	}
	files, _ := os.ReadDir(e.outDir)
	if len(files) != 0 {
		t.Errorf("empty playlist should not produce a file")
	}
}

func TestExportOutfileOverride(t *testing.T) {
	lib := &fakeLibrary{
		playlists: []playlist.Playlist{{ID: "p1", Name: "Road Trip"}},
		entries:   map[string][]playlist.Entry{"p1": {trackEntry("t1", "Song")}},
	}
	e := newTestExporter(t, lib, false)

	if err := e.ExportNamed(context.Background(), "Road Trip", "custom"); err != nil {
		t.Fatalf("ExportNamed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.outDir, "custom.csv")); err != nil {
		t.Errorf("custom.csv not written: %v", err)
	}
}

func TestExportAllContinuesOnFailure(t *testing.T) {
	lib := &fakeLibrary{
		playlists: []playlist.Playlist{
			{ID: "p1", Name: "Good"},
			{ID: "p2", Name: "Bad"},
		},
		entries: map[string][]playlist.Entry{
			"p1": {trackEntry("t1", "Song")},
		},
		liked:   []playlist.Entry{trackEntry("t9", "Fav")},
		failFor: map[string]error{"p2": errors.New("boom")},
	}
	e := newTestExporter(t, lib, false)

	if err := e.ExportAll(context.Background(), true); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	for _, name := range []string{"Liked Songs.csv", "Good.csv"} {
		if _, err := os.Stat(filepath.Join(e.outDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(e.outDir, "Bad.csv")); err == nil {
		t.Errorf("the failing playlist should not produce a file")
	}
}

func TestExportAllNoLiked(t *testing.T) {
	lib := &fakeLibrary{
		playlists: []playlist.Playlist{{ID: "p1", Name: "Only"}},
		entries:   map[string][]playlist.Entry{"p1": {trackEntry("t1", "Song")}},
		liked:     []playlist.Entry{trackEntry("t9", "Fav")},
	}
	e := newTestExporter(t, lib, false)

	if err := e.ExportAll(context.Background(), false); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.outDir, "Liked Songs.csv")); err == nil {
		t.Errorf("liked songs should not be exported when excluded")
	}
}

func TestExportAllAllFailed(t *testing.T) {
	lib := &fakeLibrary{
		playlists: []playlist.Playlist{{ID: "p1", Name: "Bad"}},
		failFor:   map[string]error{"p1": errors.New("boom")},
	}
	e := newTestExporter(t, lib, false)

	if err := e.ExportAll(context.Background(), false); err == nil {
		t.Fatal("expected an error when every export fails")
	}
}

func TestIsLikedAlias(t *testing.T) {
	for _, name := range []string{"Liked Songs", "liked", "SAVED SONGS", "Saved"} {
		if !isLikedAlias(name) {
			t.Errorf("%q should be a liked songs alias", name)
		}
	}
	for _, name := range []string{"Road Trip", "likedsongs", ""} {
		if isLikedAlias(name) {
			t.Errorf("%q should not be a liked songs alias", name)
		}
	}
}
