package playlist

import (
	"fmt"
	"strconv"
)

// Playlist identifies one of the user's playlists.
type Playlist struct {
	ID         string
	Name       string
	Owner      string
	TrackCount int
}

// Entry is a single playlist or library item: a track plus the
// membership metadata Spotify attaches to it. Track is nil when the
// underlying track is no longer available.
type Entry struct {
	AddedAt string
	AddedBy string
	Track   *Track
}

// Track holds the catalog metadata of a track. Local files and
// otherwise unavailable tracks may lack an ID.
type Track struct {
	ID          string
	Name        string
	Artists     []string
	Album       string
	AlbumType   string
	ReleaseDate string
	DurationMS  int
	Popularity  int
	TrackNumber int
	DiscNumber  int
	Explicit    bool
	URL         string
	PreviewURL  string
}

// AudioFeatures holds the audio analysis values Spotify computes per
// track.
type AudioFeatures struct {
	Danceability     float32
	Energy           float32
	Key              int
	Loudness         float32
	Mode             int
	Speechiness      float32
	Acousticness     float32
	Instrumentalness float32
	Liveness         float32
	Valence          float32
	Tempo            float32
	TimeSignature    int
}

// Row is one line of an exported CSV file. Field order defines the
// column order of every produced file. The audio feature columns are
// strings so that tracks without features export as empty cells.
type Row struct {
	TrackName        string   `csv:"track_name"`
	ArtistNames      []string `csv:"artist_names"`
	AlbumName        string   `csv:"album_name"`
	AlbumType        string   `csv:"album_type"`
	ReleaseDate      string   `csv:"release_date"`
	DurationMS       int      `csv:"duration_ms"`
	DurationMinSec   string   `csv:"duration_min_sec"`
	Popularity       int      `csv:"popularity"`
	Explicit         bool     `csv:"explicit"`
	TrackNumber      int      `csv:"track_number"`
	DiscNumber       int      `csv:"disc_number"`
	SpotifyID        string   `csv:"spotify_id"`
	SpotifyURL       string   `csv:"spotify_url"`
	PreviewURL       string   `csv:"preview_url"`
	AddedAt          string   `csv:"added_at"`
	AddedBy          string   `csv:"added_by"`
	Danceability     string   `csv:"danceability"`
	Energy           string   `csv:"energy"`
	Key              string   `csv:"key"`
	Loudness         string   `csv:"loudness"`
	Mode             string   `csv:"mode"`
	Speechiness      string   `csv:"speechiness"`
	Acousticness     string   `csv:"acousticness"`
	Instrumentalness string   `csv:"instrumentalness"`
	Liveness         string   `csv:"liveness"`
	Valence          string   `csv:"valence"`
	Tempo            string   `csv:"tempo"`
	TimeSignature    string   `csv:"time_signature"`
}

// NewRow flattens an entry into an export row. The entry's track must
// not be nil. Audio feature columns start empty; ApplyFeatures fills
// them in.
func NewRow(entry Entry) Row {
	track := entry.Track
	return Row{
		TrackName:      track.Name,
		ArtistNames:    track.Artists,
		AlbumName:      track.Album,
		AlbumType:      track.AlbumType,
		ReleaseDate:    track.ReleaseDate,
		DurationMS:     track.DurationMS,
		DurationMinSec: formatDuration(track.DurationMS),
		Popularity:     track.Popularity,
		Explicit:       track.Explicit,
		TrackNumber:    track.TrackNumber,
		DiscNumber:     track.DiscNumber,
		SpotifyID:      track.ID,
		SpotifyURL:     track.URL,
		PreviewURL:     track.PreviewURL,
		AddedAt:        entry.AddedAt,
		AddedBy:        entry.AddedBy,
	}
}

// ApplyFeatures fills the audio feature columns of the row.
func (r *Row) ApplyFeatures(f AudioFeatures) {
	r.Danceability = formatFloat(f.Danceability)
	r.Energy = formatFloat(f.Energy)
	r.Key = strconv.Itoa(f.Key)
	r.Loudness = formatFloat(f.Loudness)
	r.Mode = strconv.Itoa(f.Mode)
	r.Speechiness = formatFloat(f.Speechiness)
	r.Acousticness = formatFloat(f.Acousticness)
	r.Instrumentalness = formatFloat(f.Instrumentalness)
	r.Liveness = formatFloat(f.Liveness)
	r.Valence = formatFloat(f.Valence)
	r.Tempo = formatFloat(f.Tempo)
	r.TimeSignature = strconv.Itoa(f.TimeSignature)
}

// formatDuration renders a millisecond duration as M:SS.
func formatDuration(ms int) string {
	return fmt.Sprintf("%d:%02d", ms/60000, ms%60000/1000)
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
