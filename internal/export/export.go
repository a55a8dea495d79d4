package export

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	log "github.com/sirupsen/logrus"

	"spotilists/internal/csvutil"
	"spotilists/internal/playlist"
)

const (
	// OutputDir is where every exported CSV file lands.
	OutputDir = "data"
	// MergedFileName is the combined file produced by the merger.
	MergedFileName = "total_list.csv"
	// LikedPlaylistName labels the saved-tracks collection, which is not
	// a real playlist on the API side.
	LikedPlaylistName = "Liked Songs"
)

// likedAliases are the playlist names that select the liked songs
// collection.
var likedAliases = []string{"liked songs", "liked", "saved songs", "saved"}

// Library is the read surface of the music service the exporter works
// against.
type Library interface {
	Playlists(ctx context.Context) ([]playlist.Playlist, error)
	PlaylistEntries(ctx context.Context, id string) ([]playlist.Entry, error)
	LikedEntries(ctx context.Context) ([]playlist.Entry, error)
	LikedTotal(ctx context.Context) (int, error)
	AudioFeatures(ctx context.Context, ids []string) (map[string]playlist.AudioFeatures, error)
}

// Exporter turns playlists into CSV files under the output directory.
type Exporter struct {
	library  Library
	outDir   string
	features bool
}

// NewExporter creates an Exporter backed by the given library.
// withFeatures controls whether audio features are fetched for exported
// tracks.
func NewExporter(library Library, withFeatures bool) *Exporter {
	return &Exporter{
		library:  library,
		outDir:   OutputDir,
		features: withFeatures,
	}
}

// ListPlaylists prints the user's playlists, counting the liked songs
// collection as the first entry.
func (e *Exporter) ListPlaylists(ctx context.Context) error {
	playlists, err := e.library.Playlists(ctx)
	if err != nil {
		return err
	}
	likedTotal, err := e.library.LikedTotal(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d playlists:\n", len(playlists)+1)
	fmt.Printf(" 1. %s (%d tracks) [Special Collection]\n", LikedPlaylistName, likedTotal)
	for i, p := range playlists {
		fmt.Printf("%2d. %s (%d tracks)\n", i+2, p.Name, p.TrackCount)
	}
	return nil
}

// ExportNamed exports the playlist with the given name into a CSV file.
// A few aliases select the liked songs collection; any other name must
// match a playlist case-insensitively.
func (e *Exporter) ExportNamed(ctx context.Context, name, outFile string) error {
	if isLikedAlias(name) {
		return e.ExportLiked(ctx, outFile)
	}

	playlists, err := e.library.Playlists(ctx)
	if err != nil {
		return err
	}
	for _, p := range playlists {
		if !strings.EqualFold(p.Name, name) {
			continue
		}
		fmt.Printf("Found playlist: %s (%d tracks)\n", p.Name, p.TrackCount)
		fmt.Println("Fetching track data...")
		entries, err := e.library.PlaylistEntries(ctx, p.ID)
		if err != nil {
			return err
		}
		return e.exportEntries(ctx, p.Name, entries, outFile)
	}

	fmt.Printf("Playlist '%s' not found!\n", name)
	fmt.Println("Available playlists:")
	fmt.Printf("  - %s\n", LikedPlaylistName)
	for _, p := range playlists {
		fmt.Printf("  - %s\n", p.Name)
	}
	return fmt.Errorf("playlist %q not found", name)
}

// ExportLiked exports the liked songs collection into a CSV file.
func (e *Exporter) ExportLiked(ctx context.Context, outFile string) error {
	fmt.Println("Found special collection:", LikedPlaylistName)
	fmt.Println("Fetching liked songs data...")
	entries, err := e.library.LikedEntries(ctx)
	if err != nil {
		return err
	}
	return e.exportEntries(ctx, LikedPlaylistName, entries, outFile)
}

// ExportAll exports every playlist, liked songs first when included.
// Individual failures are logged and skipped; at least one playlist has
// to make it through.
func (e *Exporter) ExportAll(ctx context.Context, includeLiked bool) error {
	playlists, err := e.library.Playlists(ctx)
	if err != nil {
		return err
	}

	type target struct {
		name    string
		entries func(context.Context) ([]playlist.Entry, error)
	}
	var targets []target
	if includeLiked {
		targets = append(targets, target{LikedPlaylistName, e.library.LikedEntries})
	}
	for _, p := range playlists {
		targets = append(targets, target{p.Name, func(ctx context.Context) ([]playlist.Entry, error) {
			return e.library.PlaylistEntries(ctx, p.ID)
		}})
	}
	if len(targets) == 0 {
		return fmt.Errorf("no playlists found in your account")
	}

	fmt.Printf("Found %d playlists. Exporting all...\n", len(targets))
	exported := 0
	for i, t := range targets {
		fmt.Printf("\n[%d/%d] Exporting '%s'...\n", i+1, len(targets), t.name)
		entries, err := t.entries(ctx)
		if err != nil {
			log.Warnf("failed to export playlist %q: %v", t.name, err)
			continue
		}
		if err := e.exportEntries(ctx, t.name, entries, ""); err != nil {
			log.Warnf("failed to export playlist %q: %v", t.name, err)
			continue
		}
		exported++
	}

	fmt.Printf("\nExport completed! Successfully exported %d/%d playlists.\n", exported, len(targets))
	if exported == 0 {
		return fmt.Errorf("no playlists could be exported")
	}
	return nil
}

// exportEntries flattens the entries into rows, optionally fills in the
// audio features, and writes the CSV file. Entries whose track is gone
// are dropped; tracks without a catalog ID keep their row and simply
// stay without features.
func (e *Exporter) exportEntries(ctx context.Context, name string, entries []playlist.Entry, outFile string) error {
	rows := make([]playlist.Row, 0, len(entries))
	for _, entry := range entries {
		if entry.Track == nil {
			continue
		}
		rows = append(rows, playlist.NewRow(entry))
	}
	if len(rows) == 0 {
		return fmt.Errorf("playlist %q has no exportable tracks", name)
	}

	if e.features {
		if err := e.applyFeatures(ctx, rows); err != nil {
			return err
		}
	}

	fileName := outFile
	if fileName == "" {
		fileName = csvutil.SafeFileName(name)
	} else if !strings.HasSuffix(fileName, ".csv") {
		fileName += ".csv"
	}
	path := filepath.Join(e.outDir, fileName)

	fmt.Printf("Writing %d tracks to %s...\n", len(rows), path)
	headers := csvutil.StructToCsvHeader(reflect.TypeOf(playlist.Row{}))
	if err := csvutil.WriteToCsvFile(path, headers, rows); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	fmt.Printf("Successfully exported playlist to %s\n", path)
	return nil
}

func (e *Exporter) applyFeatures(ctx context.Context, rows []playlist.Row) error {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.SpotifyID != "" {
			ids = append(ids, row.SpotifyID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	fmt.Printf("Fetching audio features for %d tracks...\n", len(ids))
	features, err := e.library.AudioFeatures(ctx, ids)
	if err != nil {
		return err
	}
	for i := range rows {
		if f, ok := features[rows[i].SpotifyID]; ok {
			rows[i].ApplyFeatures(f)
		}
	}
	return nil
}

func isLikedAlias(name string) bool {
	lower := strings.ToLower(name)
	for _, alias := range likedAliases {
		if lower == alias {
			return true
		}
	}
	return false
}
