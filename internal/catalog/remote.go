package catalog

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/tunevault/tunevault/internal/domain"
	"github.com/tunevault/tunevault/internal/httpclient"
)

// RemoteProvider talks to an extraction API that fronts the actual content
// source. Every listing endpoint returns items plus an opaque continuation
// token, which is surfaced to callers as a Cursor.
type RemoteProvider struct {
	BaseURL string
	Client  *httpclient.Client
}

func NewRemoteProvider(baseURL string) *RemoteProvider {
	return &RemoteProvider{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  httpclient.New(),
	}
}

type itemResponse struct {
	VideoID      string `json:"video_id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Uploader     string `json:"uploader"`
	Duration     int    `json:"duration"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type pageResponse struct {
	Items     []itemResponse `json:"items"`
	NextToken string         `json:"next_token"`
}

func (r itemResponse) song() domain.CatalogSong {
	return domain.CatalogSong{
		VideoID:      r.VideoID,
		URL:          r.URL,
		Title:        r.Title,
		ArtistName:   r.Uploader,
		Duration:     r.Duration,
		ThumbnailURL: r.ThumbnailURL,
	}
}

func (p *RemoteProvider) Search(ctx context.Context, query string, filter SearchFilter) (*Page, error) {
	if filter == "" {
		filter = FilterAll
	}
	u := fmt.Sprintf("%s/search/?q=%s&filter=%s", p.BaseURL, url.QueryEscape(query), url.QueryEscape(string(filter)))
	var resp pageResponse
	if err := p.Client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return p.page(resp, query, filter), nil
}

func (p *RemoteProvider) GetMore(ctx context.Context, cursor *Cursor) (*Page, error) {
	if !cursor.HasMore() {
		return &Page{}, nil
	}
	u := fmt.Sprintf("%s/search/?q=%s&filter=%s&token=%s",
		p.BaseURL, url.QueryEscape(cursor.Query), url.QueryEscape(string(cursor.Filter)), url.QueryEscape(cursor.Token))
	var resp pageResponse
	if err := p.Client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("page continuation failed: %w", err)
	}
	return p.page(resp, cursor.Query, cursor.Filter), nil
}

func (p *RemoteProvider) page(resp pageResponse, query string, filter SearchFilter) *Page {
	page := &Page{}
	for _, item := range resp.Items {
		page.Items = append(page.Items, item.song())
	}
	if resp.NextToken != "" {
		page.Next = &Cursor{Query: query, Filter: filter, Token: resp.NextToken}
	}
	return page
}

func (p *RemoteProvider) ResolvePlayable(ctx context.Context, songURL string) (*Playable, error) {
	u := fmt.Sprintf("%s/resolve/?url=%s", p.BaseURL, url.QueryEscape(songURL))
	var resp struct {
		itemResponse
		StreamURL string `json:"stream_url"`
		MimeType  string `json:"mime_type"`
	}
	if err := p.Client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("resolve failed: %w", err)
	}
	if resp.StreamURL == "" {
		return nil, fmt.Errorf("no stream available for %s", songURL)
	}
	return &Playable{
		Song:      resp.song(),
		StreamURL: resp.StreamURL,
		MimeType:  resp.MimeType,
	}, nil
}

func (p *RemoteProvider) GetChannel(ctx context.Context, channelURL string) (*Channel, error) {
	u := fmt.Sprintf("%s/channel/?url=%s", p.BaseURL, url.QueryEscape(channelURL))
	var resp struct {
		Name         string `json:"name"`
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnail_url"`
		Tabs         []struct {
			Name string `json:"name"`
			pageResponse
		} `json:"tabs"`
	}
	if err := p.Client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("channel fetch failed: %w", err)
	}

	channel := &Channel{
		Name:         resp.Name,
		URL:          resp.URL,
		ThumbnailURL: resp.ThumbnailURL,
	}
	for _, tab := range resp.Tabs {
		page := p.page(tab.pageResponse, channelURL, FilterChannels)
		channel.Tabs = append(channel.Tabs, ChannelTab{
			Name:  tab.Name,
			Items: page.Items,
			Next:  page.Next,
		})
	}
	return channel, nil
}

// GetStream resolves the song URL and opens the transfer.
func (p *RemoteProvider) GetStream(ctx context.Context, songURL string) (io.ReadCloser, string, error) {
	playable, err := p.ResolvePlayable(ctx, songURL)
	if err != nil {
		return nil, "", err
	}
	body, contentType, err := p.Client.Stream(ctx, playable.StreamURL)
	if err != nil {
		return nil, "", err
	}
	if playable.MimeType != "" {
		contentType = playable.MimeType
	}
	return body, contentType, nil
}

func (p *RemoteProvider) GetLyrics(ctx context.Context, artist, title string) (string, error) {
	u := fmt.Sprintf("%s/lyrics/?artist=%s&title=%s", p.BaseURL, url.QueryEscape(artist), url.QueryEscape(title))
	var resp struct {
		Lyrics string `json:"lyrics"`
	}
	if err := p.Client.GetJSON(ctx, u, &resp); err != nil {
		return "", fmt.Errorf("lyrics fetch failed: %w", err)
	}
	return resp.Lyrics, nil
}
