package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"videolib/pkg/client"
	"videolib/pkg/logger"
)

const usage = `usage: libctl <command> [flags]

commands:
  list                              list videos
  upload -title T [-thumb F] FILE   upload a video
  rename -title T FILENAME          change a video title
  rm FILENAME                       delete a video
  playlists                         list playlists
  mkpl -name N [-desc D]            create a playlist
  add PLAYLIST VIDEO                add a video to a playlist
  export                            dump the library as JSON
  clear                             delete every video, image and playlist
`

var errUsage = errors.New("bad usage")

func main() {
	_ = godotenv.Load()
	log := logger.New(env("LOG_LEVEL", "warn"))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := client.New(env("VIDEOLIB_URL", "http://localhost:8080"), client.WithAPIToken(os.Getenv("ADMIN_API_TOKEN")))
	if err := run(ctx, c, os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Error().Err(err).Msg("libctl failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, args []string, out io.Writer, log zerolog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "video title")
	thumb := fs.String("thumb", "", "thumbnail image")
	name := fs.String("name", "", "playlist name")
	desc := fs.String("desc", "", "playlist description")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	rest := fs.Args()

	switch cmd {
	case "list":
		videos, err := c.ListVideos(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, videos)

	case "upload":
		if len(rest) != 1 || *title == "" {
			return errUsage
		}
		video, closeVideo, err := openFile(rest[0])
		if err != nil {
			return err
		}
		defer closeVideo()
		var thumbnail *client.File
		if *thumb != "" {
			f, closeThumb, err := openFile(*thumb)
			if err != nil {
				return err
			}
			defer closeThumb()
			thumbnail = &f
		}
		log.Debug().Str("file", rest[0]).Msg("uploading")
		v, err := c.UploadVideo(ctx, *title, video, thumbnail)
		if err != nil {
			return err
		}
		return printJSON(out, v)

	case "rename":
		if len(rest) != 1 || *title == "" {
			return errUsage
		}
		v, err := c.UpdateVideo(ctx, rest[0], *title, nil)
		if err != nil {
			return err
		}
		return printJSON(out, v)

	case "rm":
		if len(rest) != 1 {
			return errUsage
		}
		return c.DeleteVideo(ctx, rest[0])

	case "playlists":
		pls, err := c.ListPlaylists(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, pls)

	case "mkpl":
		if *name == "" {
			return errUsage
		}
		p, err := c.CreatePlaylist(ctx, *name, *desc)
		if err != nil {
			return err
		}
		return printJSON(out, p)

	case "add":
		if len(rest) != 2 {
			return errUsage
		}
		p, err := c.AddToPlaylist(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		return printJSON(out, p)

	case "export":
		data, err := c.ExportData(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, data)

	case "clear":
		if err := c.ClearAllData(ctx); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, "library cleared")
		return err
	}
	return errUsage
}

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func openFile(path string) (client.File, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return client.File{}, nil, err
	}
	return client.File{
		Name:        filepath.Base(path),
		ContentType: contentType(path),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
