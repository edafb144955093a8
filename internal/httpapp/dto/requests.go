package dto

import "github.com/tunevault/tunevault/internal/domain"

// SaveSongRequest adds a catalog record to the library.
type SaveSongRequest struct {
	VideoID      string `json:"video_id,omitempty"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	ArtistName   string `json:"artist_name"`
	Duration     int    `json:"duration"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	GroupID      *int64 `json:"group_id,omitempty"`
}

func (r *SaveSongRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("url", r.URL)...)
	errs = append(errs, validateURL("url", r.URL)...)
	errs = append(errs, validateRequired("title", r.Title)...)
	errs = append(errs, validateNonNegative("duration", r.Duration)...)
	return errs
}

func (r *SaveSongRequest) CatalogSong() domain.CatalogSong {
	return domain.CatalogSong{
		VideoID:      r.VideoID,
		URL:          r.URL,
		Title:        r.Title,
		ArtistName:   r.ArtistName,
		Duration:     r.Duration,
		ThumbnailURL: r.ThumbnailURL,
	}
}

// RegisterLocalSongRequest records a file that already lives in the managed
// directory.
type RegisterLocalSongRequest struct {
	Path   string `json:"path"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

func (r *RegisterLocalSongRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("path", r.Path)...)
	errs = append(errs, validateRequired("title", r.Title)...)
	return errs
}

type CreatePlaylistRequest struct {
	Name    string `json:"name"`
	GroupID int64  `json:"group_id"`
}

func (r *CreatePlaylistRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("name", r.Name)...)
	if r.GroupID <= 0 {
		errs = append(errs, ValidationError{Field: "group_id", Message: "must reference a library group"})
	}
	return errs
}

type RenameRequest struct {
	Name string `json:"name"`
}

func (r *RenameRequest) Validate() []ValidationError {
	return validateRequired("name", r.Name)
}

// MoveRequest reorders one entry inside an ordered scope.
type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (r *MoveRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNonNegative("from", r.From)...)
	errs = append(errs, validateNonNegative("to", r.To)...)
	return errs
}

type AutoDownloadRequest struct {
	Enabled bool `json:"enabled"`
}

type LinkArtistRequest struct {
	Name string `json:"name"`
}

func (r *LinkArtistRequest) Validate() []ValidationError {
	return validateRequired("name", r.Name)
}

type PlayRequest struct {
	StartIndex int `json:"start_index"`
}

func (r *PlayRequest) Validate() []ValidationError {
	return validateNonNegative("start_index", r.StartIndex)
}

type BackupExportRequest struct {
	Dir string `json:"dir"`
}

func (r *BackupExportRequest) Validate() []ValidationError {
	return validateRequired("dir", r.Dir)
}
