// Package catalog abstracts the remote, paginated content source. The engine
// consumes plain metadata records and continuation cursors; provider-specific
// structure never crosses this boundary.
package catalog

import (
	"context"
	"io"

	"github.com/tunevault/tunevault/internal/domain"
)

// SearchFilter narrows a search to one result shape.
type SearchFilter string

const (
	FilterAll      SearchFilter = "all"
	FilterSongs    SearchFilter = "songs"
	FilterChannels SearchFilter = "channels"
)

// Cursor is the continuation state of one paged listing. It is returned to
// the caller and passed back for the next page; the provider itself holds no
// per-session state.
type Cursor struct {
	Query  string       `json:"query"`
	Filter SearchFilter `json:"filter"`
	Token  string       `json:"token"`
}

// HasMore reports whether another page can be requested.
func (c *Cursor) HasMore() bool {
	return c != nil && c.Token != ""
}

// Page is one slice of a paged listing. Next is nil on the last page.
type Page struct {
	Items []domain.CatalogSong `json:"items"`
	Next  *Cursor              `json:"next,omitempty"`
}

// Channel is a remote channel/uploader with its paged tabs.
type Channel struct {
	Name         string       `json:"name"`
	URL          string       `json:"url"`
	ThumbnailURL string       `json:"thumbnail_url,omitempty"`
	Tabs         []ChannelTab `json:"tabs"`
}

// ChannelTab is one named listing within a channel.
type ChannelTab struct {
	Name  string  `json:"name"`
	Items []domain.CatalogSong `json:"items"`
	Next  *Cursor `json:"next,omitempty"`
}

// Playable is the resolved stream metadata for one canonical URL.
type Playable struct {
	Song      domain.CatalogSong `json:"song"`
	StreamURL string             `json:"stream_url"`
	MimeType  string             `json:"mime_type"`
}

type Provider interface {
	Search(ctx context.Context, query string, filter SearchFilter) (*Page, error)
	GetMore(ctx context.Context, cursor *Cursor) (*Page, error)
	ResolvePlayable(ctx context.Context, url string) (*Playable, error)
	GetChannel(ctx context.Context, url string) (*Channel, error)
	GetStream(ctx context.Context, url string) (io.ReadCloser, string, error)
	GetLyrics(ctx context.Context, artist, title string) (string, error)
}
