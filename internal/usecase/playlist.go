package usecase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"

	"tunesphere/internal/domain"
)

var ErrPlaylistUnavailable = errors.New("playlist unavailable")

const songExtension = ".mp3"

// moodDir is the folder holding the songs for a mood.
func moodDir(songsDir string, mood domain.Mood) string {
	return filepath.Join(songsDir, string(mood))
}

// loadPlaylist lists the songs in dir in lexicographic order. The result is
// never cached; every call reads the directory again.
func loadPlaylist(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlaylistUnavailable, err)
	}

	songs := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (string, bool) {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), songExtension) {
			return "", false
		}
		return filepath.Join(dir, entry.Name()), true
	})
	if len(songs) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrPlaylistUnavailable, songExtension, dir)
	}

	slices.Sort(songs)
	return songs, nil
}
