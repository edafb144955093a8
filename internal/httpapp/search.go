package httpapp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/domain"
	"github.com/tunevault/tunevault/internal/events"
)

// Search proxies the catalog provider. Continuation is driven entirely by
// the caller: the response carries the next cursor and the client sends its
// token back to page further, so concurrent searches never share state.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	filter := catalog.SearchFilter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = catalog.FilterAll
	}
	token := r.URL.Query().Get("token")

	var (
		page *catalog.Page
		err  error
	)
	if token != "" {
		cursor := &catalog.Cursor{Query: query, Filter: filter, Token: token}
		page, err = h.Provider.GetMore(r.Context(), cursor)
	} else {
		if query == "" {
			h.writeError(w, http.StatusBadRequest, "missing query")
			return
		}
		page, err = h.Provider.Search(r.Context(), query, filter)
		if hErr := h.Library.Store().RecordSearch(query); hErr != nil {
			h.Logger.Warn("Failed to record search", "error", hErr)
		}
	}
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := map[string]interface{}{"items": page.Items}
	if page.Next.HasMore() {
		resp["next_token"] = page.Next.Token
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListSearchHistory(w http.ResponseWriter, r *http.Request) {
	limit := constants.SearchHistoryMaxSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.Library.Store().ListRecentSearches(limit)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) ClearSearchHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.Library.Store().ClearSearchHistory(); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

// GetLyrics serves from the bounded cache first and falls back to the
// provider, caching the result.
func (h *Handler) GetLyrics(w http.ResponseWriter, r *http.Request) {
	artist := r.URL.Query().Get("artist")
	title := r.URL.Query().Get("title")
	if artist == "" || title == "" {
		h.writeError(w, http.StatusBadRequest, "missing artist or title")
		return
	}

	cached, err := h.Library.Store().GetLyrics(artist, title)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	if cached != nil {
		h.writeJSON(w, http.StatusOK, cached)
		return
	}

	lyrics, err := h.Provider.GetLyrics(r.Context(), artist, title)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err := h.Library.Store().PutLyrics(artist, title, lyrics); err != nil {
		h.Logger.Warn("Failed to cache lyrics", "error", err)
	}
	h.writeJSON(w, http.StatusOK, &domain.LyricsEntry{Artist: artist, Title: title, Lyrics: lyrics})
}

// StreamEvents pushes change notifications as server-sent events. Clients
// re-read the affected table-set on each event; the stream carries only
// topic names, never data.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var topics []events.Topic
	for _, t := range r.URL.Query()["topic"] {
		topics = append(topics, events.Topic(t))
	}

	ch, cancel := h.Bus.Subscribe(topics...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case topic, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", topic)
			flusher.Flush()
		}
	}
}

func (h *Handler) GetPlaybackState(w http.ResponseWriter, r *http.Request) {
	state, err := h.Playback.Restore(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if state == nil {
		h.writeError(w, http.StatusNotFound, "no playback state")
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

func (h *Handler) SavePlaybackState(w http.ResponseWriter, r *http.Request) {
	var state domain.PlaybackState
	if !h.decode(w, r, &state) {
		return
	}
	if err := h.Playback.Checkpoint(&state); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ClearPlaybackState(w http.ResponseWriter, r *http.Request) {
	if err := h.Playback.Clear(); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}
