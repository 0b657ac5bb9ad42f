package video

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const maxSafeTitle = 50

var (
	unsafeTitleChars = regexp.MustCompile(`[^a-zA-Z0-9]`)
	timestampPrefix  = regexp.MustCompile(`^\d+_`)
)

var videoTypes = map[string]bool{
	"video/mp4":  true,
	"video/webm": true,
	"video/ogg":  true,
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

func isVideo(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".webm", ".ogg":
		return true
	default:
		return false
	}
}

func typeForExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".ogg":
		return "video/ogg"
	default:
		return ""
	}
}

// baseName strips the last extension: "1700_clip.mp4" -> "1700_clip".
func baseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// parseTitle derives a display title from a stored file name: the leading
// "<digits>_" upload stamp is dropped and underscores become spaces.
func parseTitle(filename string) string {
	name := timestampPrefix.ReplaceAllString(baseName(filename), "")
	return strings.ReplaceAll(name, "_", " ")
}

// safeTitle keeps ASCII letters and digits, replaces everything else with '_' and truncates.
func safeTitle(title string) string {
	s := unsafeTitleChars.ReplaceAllString(title, "_")
	if len(s) > maxSafeTitle {
		s = s[:maxSafeTitle]
	}
	return s
}

func assetName(at time.Time, title, ext string) string {
	return fmt.Sprintf("%d_%s%s", at.UnixMilli(), safeTitle(title), ext)
}

func thumbPrefix(videoFilename string) string {
	return baseName(videoFilename) + "_thumb"
}

// findThumbnail returns the first image in dir whose name starts with <base>_thumb.
// A missing images directory simply means no thumbnail.
func findThumbnail(imagesDir, videoFilename string) (string, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	prefix := thumbPrefix(videoFilename)
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			return e.Name(), nil
		}
	}
	return "", nil
}

func videoURL(filename string) string {
	return "/videos/" + filename
}

func imageURL(filename string) string {
	return "/images/" + filename
}

// validFilename accepts only a bare, non-hidden file name inside the asset directory.
func validFilename(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
