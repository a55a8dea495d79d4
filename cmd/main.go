package main

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"spotilists/internal/config"
	"spotilists/internal/export"
	"spotilists/internal/spotify"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, ForceColors: true})

	app := &cli.App{
		Name:  "spotilists",
		Usage: "Export Spotify playlists to CSV (including Liked Songs).",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "name of the playlist to export, 'Liked Songs' or 'Liked' works for your liked songs",
			},
			&cli.BoolFlag{
				Name:  "liked",
				Usage: "export only Liked Songs",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "export all playlists including Liked Songs",
			},
			&cli.BoolFlag{
				Name:  "merge",
				Usage: "merge all CSV files in the " + export.OutputDir + " directory into " + export.MergedFileName,
			},
			&cli.BoolFlag{
				Name:  "no-liked",
				Usage: "exclude Liked Songs when exporting all playlists",
			},
			&cli.BoolFlag{
				Name:  "no-features",
				Usage: "skip audio features (fewer API calls)",
			},
			&cli.StringFlag{
				Name:  "outfile",
				Usage: "CSV output file (defaults to '<playlist>.csv')",
			},
			&cli.StringFlag{
				Name:  "client-id",
				Usage: "Spotify app client ID (can also be set in " + config.SecretsFile + ")",
			},
			&cli.StringFlag{
				Name:  "client-secret",
				Usage: "Spotify app client secret (can also be set in " + config.SecretsFile + ")",
			},
			&cli.StringFlag{
				Name:  "redirect-uri",
				Value: spotify.DefaultRedirectURI,
				Usage: "redirect URI registered in your Spotify app",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type runMode int

const (
	modeList runMode = iota
	modeExport
	modeLiked
	modeAll
	modeMerge
)

// resolveMode picks the primary mode from the flag values. The primary
// flags are mutually exclusive; no primary flag means listing playlists.
func resolveMode(playlistName string, liked, all, merge bool) (runMode, error) {
	var set []string
	if playlistName != "" {
		set = append(set, "--playlist")
	}
	if liked {
		set = append(set, "--liked")
	}
	if all {
		set = append(set, "--all")
	}
	if merge {
		set = append(set, "--merge")
	}
	if len(set) > 1 {
		return 0, fmt.Errorf("flags %s are mutually exclusive", strings.Join(set, ", "))
	}

	switch {
	case merge:
		return modeMerge, nil
	case liked:
		return modeLiked, nil
	case all:
		return modeAll, nil
	case playlistName != "":
		return modeExport, nil
	default:
		return modeList, nil
	}
}

func run(c *cli.Context) error {
	mode, err := resolveMode(c.String("playlist"), c.Bool("liked"), c.Bool("all"), c.Bool("merge"))
	if err != nil {
		return err
	}

	// Merging works on already exported files and needs no API access.
	if mode == modeMerge {
		if err := export.MergeCSVFiles(export.OutputDir, export.MergedFileName); err != nil {
			return err
		}
		fmt.Println("Merge completed successfully!")
		return nil
	}

	creds, err := config.Load(config.SecretsFile, c.String("client-id"), c.String("client-secret"))
	if err != nil {
		return err
	}
	auth, err := spotify.NewAuthenticator(creds, c.String("redirect-uri"))
	if err != nil {
		return err
	}
	client, err := spotify.Connect(c.Context, auth)
	if err != nil {
		return err
	}

	exporter := export.NewExporter(client, !c.Bool("no-features"))

	switch mode {
	case modeExport:
		err = exporter.ExportNamed(c.Context, c.String("playlist"), c.String("outfile"))
	case modeLiked:
		err = exporter.ExportLiked(c.Context, c.String("outfile"))
	case modeAll:
		err = exporter.ExportAll(c.Context, !c.Bool("no-liked"))
	default:
		return exporter.ListPlaylists(c.Context)
	}
	if err != nil {
		return err
	}

	fmt.Println("Export completed successfully!")
	return nil
}
