package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"spotilists/internal/playlist"
)

const (
	pageLimit        = 50
	featureBatchSize = 100
)

// likedAddedBy marks liked songs, which are always added by the user.
const likedAddedBy = "me"

// Client wraps the Spotify Web API behind the read operations the
// exporter needs. API types never leak past this package.
type Client struct {
	api *spotify.Client
}

// Connect authenticates against the Spotify Web API and verifies the
// session. A cached token the API no longer accepts is dropped and the
// interactive login runs once more.
func Connect(ctx context.Context, auth *Authenticator) (*Client, error) {
	tok, cached, err := auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	api, user, err := verify(ctx, auth, tok)
	if err != nil && cached {
		log.Warnf("stored token rejected, logging in again: %v", err)
		auth.clearToken()
		if tok, err = auth.Login(ctx); err != nil {
			return nil, err
		}
		api, user, err = verify(ctx, auth, tok)
	}
	if err != nil {
		return nil, err
	}

	fmt.Println("You are logged in as:", user.ID)
	return &Client{api: api}, nil
}

func verify(ctx context.Context, auth *Authenticator, tok *oauth2.Token) (*spotify.Client, *spotify.PrivateUser, error) {
	api := spotify.New(auth.auth.Client(ctx, tok))
	user, err := api.CurrentUser(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error verifying login: %w", err)
	}
	return api, user, nil
}

// Playlists returns the user's playlists in the order the API yields
// them.
func (c *Client) Playlists(ctx context.Context) ([]playlist.Playlist, error) {
	var all []playlist.Playlist
	offset := 0

	for {
		page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(pageLimit), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("error getting playlists: %w", err)
		}

		for _, p := range page.Playlists {
			all = append(all, playlist.Playlist{
				ID:         string(p.ID),
				Name:       p.Name,
				Owner:      p.Owner.ID,
				TrackCount: int(p.Tracks.Total),
			})
		}

		if len(page.Playlists) < pageLimit {
			break
		}
		offset += pageLimit
	}

	return all, nil
}

// PlaylistEntries returns every entry of the playlist, including ones
// whose track is no longer available.
func (c *Client) PlaylistEntries(ctx context.Context, id string) ([]playlist.Entry, error) {
	var all []playlist.Entry
	offset := 0

	for {
		page, err := c.api.GetPlaylistItems(ctx, spotify.ID(id), spotify.Limit(pageLimit), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("error getting playlist items: %w", err)
		}

		for _, item := range page.Items {
			all = append(all, playlist.Entry{
				AddedAt: item.AddedAt,
				AddedBy: item.AddedBy.ID,
				Track:   convertTrack(item.Track.Track),
			})
		}

		if len(page.Items) < pageLimit {
			break
		}
		offset += pageLimit
	}

	return all, nil
}

// LikedEntries returns the user's saved tracks in the order the library
// endpoint serves them, newest first.
func (c *Client) LikedEntries(ctx context.Context) ([]playlist.Entry, error) {
	fmt.Println("Fetching liked songs...")

	var all []playlist.Entry
	offset := 0
	total := 0

	for {
		page, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(pageLimit), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("error getting liked songs: %w", err)
		}
		if offset == 0 {
			total = int(page.Total)
			fmt.Printf("Total liked songs: %d\n", total)
		}

		for _, saved := range page.Tracks {
			track := saved.FullTrack
			all = append(all, playlist.Entry{
				AddedAt: saved.AddedAt,
				AddedBy: likedAddedBy,
				Track:   convertTrack(&track),
			})
		}
		fmt.Printf("  Fetched %d/%d songs...\n", len(all), total)

		if len(page.Tracks) < pageLimit {
			break
		}
		offset += pageLimit
	}

	return all, nil
}

// LikedTotal reports how many saved tracks the library holds without
// fetching them all.
func (c *Client) LikedTotal(ctx context.Context) (int, error) {
	page, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(1))
	if err != nil {
		return 0, fmt.Errorf("error getting liked songs count: %w", err)
	}
	return int(page.Total), nil
}

// AudioFeatures fetches audio features for the given track IDs in
// batches of 100, keyed by track ID. A batch the API refuses with 403
// is logged and skipped, so those tracks simply stay without features.
func (c *Client) AudioFeatures(ctx context.Context, ids []string) (map[string]playlist.AudioFeatures, error) {
	features := make(map[string]playlist.AudioFeatures, len(ids))

	for start := 0; start < len(ids); start += featureBatchSize {
		end := start + featureBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := make([]spotify.ID, 0, end-start)
		for _, id := range ids[start:end] {
			batch = append(batch, spotify.ID(id))
		}

		result, err := c.api.GetAudioFeatures(ctx, batch...)
		if err != nil {
			var apiErr spotify.Error
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden {
				log.Warnf("audio features denied for a batch of %d tracks: %v", len(batch), err)
				continue
			}
			return nil, fmt.Errorf("error getting audio features: %w", err)
		}

		// The result is aligned to the input, with nil for unknown IDs.
		for _, f := range result {
			if f == nil {
				continue
			}
			features[string(f.ID)] = convertFeatures(f)
		}
	}

	return features, nil
}

// convertTrack maps an API track onto the domain record. A nil input
// stays nil so callers can tell removed tracks apart.
func convertTrack(t *spotify.FullTrack) *playlist.Track {
	if t == nil {
		return nil
	}

	artists := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		artists = append(artists, artist.Name)
	}

	return &playlist.Track{
		ID:          string(t.ID),
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		AlbumType:   t.Album.AlbumType,
		ReleaseDate: t.Album.ReleaseDate,
		DurationMS:  int(t.Duration),
		Popularity:  int(t.Popularity),
		TrackNumber: int(t.TrackNumber),
		DiscNumber:  int(t.DiscNumber),
		Explicit:    t.Explicit,
		URL:         t.ExternalURLs["spotify"],
		PreviewURL:  t.PreviewURL,
	}
}

// convertFeatures maps an API feature record onto the domain record.
func convertFeatures(f *spotify.AudioFeatures) playlist.AudioFeatures {
	return playlist.AudioFeatures{
		Danceability:     f.Danceability,
		Energy:           f.Energy,
		Key:              int(f.Key),
		Loudness:         f.Loudness,
		Mode:             int(f.Mode),
		Speechiness:      f.Speechiness,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Liveness:         f.Liveness,
		Valence:          f.Valence,
		Tempo:            f.Tempo,
		TimeSignature:    int(f.TimeSignature),
	}
}
