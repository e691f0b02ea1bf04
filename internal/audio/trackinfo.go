package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"

	"tunesphere/internal/domain"
)

// ID3Reader reads the title and artist frames of an MP3 file.
type ID3Reader struct{}

func NewID3Reader() *ID3Reader {
	return &ID3Reader{}
}

func (r *ID3Reader) ReadTrackInfo(path string) (domain.TrackInfo, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Title", "Artist"}})
	if err != nil {
		return domain.TrackInfo{}, fmt.Errorf("read tags of %s: %w", path, err)
	}
	defer tag.Close()

	return domain.TrackInfo{
		Path:   path,
		Name:   filepath.Base(path),
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
	}, nil
}
