package catalog

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tunevault/tunevault/internal/domain"
)

// MockProvider serves a fixed in-memory catalog, paging PageSize items at a
// time. The continuation token is the offset of the next page.
type MockProvider struct {
	Songs    []domain.CatalogSong
	PageSize int

	// StreamErr, when set, makes every transfer fail.
	StreamErr error
	// StreamBody is the payload served for every song.
	StreamBody string
}

func NewMockProvider(songs ...domain.CatalogSong) *MockProvider {
	return &MockProvider{
		Songs:      songs,
		PageSize:   2,
		StreamBody: "dummy audio content",
	}
}

func (p *MockProvider) Search(ctx context.Context, query string, filter SearchFilter) (*Page, error) {
	return p.pageAt(query, filter, 0), nil
}

func (p *MockProvider) GetMore(ctx context.Context, cursor *Cursor) (*Page, error) {
	if !cursor.HasMore() {
		return &Page{}, nil
	}
	offset, err := strconv.Atoi(cursor.Token)
	if err != nil {
		return nil, fmt.Errorf("bad continuation token %q", cursor.Token)
	}
	return p.pageAt(cursor.Query, cursor.Filter, offset), nil
}

func (p *MockProvider) pageAt(query string, filter SearchFilter, offset int) *Page {
	if offset >= len(p.Songs) {
		return &Page{}
	}
	end := offset + p.PageSize
	if end > len(p.Songs) {
		end = len(p.Songs)
	}
	page := &Page{Items: p.Songs[offset:end]}
	if end < len(p.Songs) {
		page.Next = &Cursor{Query: query, Filter: filter, Token: strconv.Itoa(end)}
	}
	return page
}

func (p *MockProvider) ResolvePlayable(ctx context.Context, url string) (*Playable, error) {
	for _, song := range p.Songs {
		if song.URL == url {
			return &Playable{
				Song:      song,
				StreamURL: url + "/stream",
				MimeType:  "audio/mpeg",
			}, nil
		}
	}
	return nil, fmt.Errorf("unknown song %s", url)
}

func (p *MockProvider) GetChannel(ctx context.Context, url string) (*Channel, error) {
	page := p.pageAt(url, FilterChannels, 0)
	return &Channel{
		Name: "Mock Channel",
		URL:  url,
		Tabs: []ChannelTab{
			{Name: "songs", Items: page.Items, Next: page.Next},
		},
	}, nil
}

func (p *MockProvider) GetStream(ctx context.Context, url string) (io.ReadCloser, string, error) {
	if p.StreamErr != nil {
		return nil, "", p.StreamErr
	}
	if _, err := p.ResolvePlayable(ctx, url); err != nil {
		return nil, "", err
	}
	return io.NopCloser(strings.NewReader(p.StreamBody)), "audio/mpeg", nil
}

func (p *MockProvider) GetLyrics(ctx context.Context, artist, title string) (string, error) {
	return "mock lyrics for " + title, nil
}
