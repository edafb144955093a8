// Package tagging writes metadata into completed downloads so the files are
// self-describing outside the catalog.
package tagging

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	flac "github.com/go-flac/go-flac"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"

	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/domain"
)

// TagFile writes the song's metadata and optional cover art into the audio
// file at path, dispatching on extension.
func TagFile(path string, song *domain.Song, artData []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case constants.ExtMP3:
		return tagMP3(path, song, artData)
	case constants.ExtFLAC:
		return tagFLAC(path, song, artData)
	default:
		return fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
}

func tagMP3(path string, song *domain.Song, artData []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer tag.Close() //nolint:errcheck // best effort on cleanup path

	tag.SetVersion(4)

	if song.Title != "" {
		tag.SetTitle(song.Title)
	}
	if song.ArtistName != "" {
		tag.SetArtist(song.ArtistName)
	}
	if song.URL != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "SOURCE_URL",
			Value:       song.URL,
		})
	}
	if len(artData) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    constants.MimeTypeJPEG,
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     artData,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save MP3 tags: %w", err)
	}
	return nil
}

func tagFLAC(path string, song *domain.Song, artData []byte) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	stripBlocks(f, flac.VorbisComment, flac.Picture)

	cmt := newVorbisComment(song)
	cmtBlock := cmt.Marshal()
	f.Meta = append(f.Meta, &cmtBlock)

	if len(artData) > 0 {
		picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front cover", artData, constants.MimeTypeJPEG)
		if err != nil {
			return fmt.Errorf("failed to build picture block: %w", err)
		}
		picBlock := picture.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save FLAC tags: %w", err)
	}
	return nil
}

// stripBlocks drops existing metadata blocks of the given types so rewrites
// never accumulate duplicates.
func stripBlocks(f *flac.File, types ...flac.BlockType) {
	var kept []*flac.MetaDataBlock
	for _, block := range f.Meta {
		drop := false
		for _, t := range types {
			if block.Type == t {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, block)
		}
	}
	f.Meta = kept
}

func newVorbisComment(song *domain.Song) *flacvorbis.MetaDataBlockVorbisComment {
	cmt := flacvorbis.New()
	if song.Title != "" {
		_ = cmt.Add(flacvorbis.FIELD_TITLE, song.Title)
	}
	if song.ArtistName != "" {
		_ = cmt.Add(flacvorbis.FIELD_ARTIST, song.ArtistName)
	}
	if song.URL != "" {
		_ = cmt.Add("SOURCE_URL", song.URL)
	}
	return cmt
}
