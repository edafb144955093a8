// Package httpapp exposes the library engine as a JSON API.
package httpapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tunevault/tunevault/internal/backup"
	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/downloader"
	"github.com/tunevault/tunevault/internal/events"
	"github.com/tunevault/tunevault/internal/httpapp/dto"
	"github.com/tunevault/tunevault/internal/library"
	"github.com/tunevault/tunevault/internal/logger"
	"github.com/tunevault/tunevault/internal/playback"
)

type Handler struct {
	Library  *library.Library
	Worker   *downloader.Worker
	Provider catalog.Provider
	Playback *playback.Service
	Backup   *backup.Manager
	Bus      *events.Bus
	Logger   *logger.Logger
}

func NewHandler(lib *library.Library, w *downloader.Worker, provider catalog.Provider, pb *playback.Service, bk *backup.Manager, bus *events.Bus, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Library:  lib,
		Worker:   w,
		Provider: provider,
		Playback: pb,
		Backup:   bk,
		Bus:      bus,
		Logger:   log.WithComponent("http"),
	}
}

// NewRouter builds the full API router with standard middleware.
func (h *Handler) NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/songs", h.ListSongs)
		r.Post("/songs", h.SaveSong)
		r.Post("/songs/local", h.RegisterLocalSong)
		r.Delete("/songs/{id}", h.DeleteSong)
		r.Delete("/songs/{id}/download", h.RemoveDownload)
		r.Post("/songs/{id}/queue", h.EnqueueDownload)
		r.Delete("/songs/{id}/queue", h.CancelDownload)
		r.Post("/songs/{id}/played", h.RecordPlay)
		r.Post("/songs/{id}/artists", h.LinkSongToArtist)

		r.Get("/playlists", h.ListPlaylists)
		r.Post("/playlists", h.CreatePlaylist)
		r.Get("/playlists/{id}", h.GetPlaylist)
		r.Put("/playlists/{id}", h.RenamePlaylist)
		r.Delete("/playlists/{id}", h.DeletePlaylist)
		r.Post("/playlists/{id}/songs/{songID}", h.AddSongToPlaylist)
		r.Delete("/playlists/{id}/songs/{songID}", h.RemoveSongFromPlaylist)
		r.Post("/playlists/{id}/move", h.MovePlaylistSong)
		r.Post("/playlists/{id}/auto-download", h.SetPlaylistAutoDownload)
		r.Post("/playlists/{id}/play", h.PlayPlaylist)

		r.Get("/artists", h.ListArtists)
		r.Get("/artists/{id}", h.GetArtist)
		r.Post("/artists/{id}/move", h.MoveArtistSong)
		r.Post("/artists/{id}/auto-download", h.SetArtistAutoDownload)
		r.Post("/artists/{id}/play", h.PlayArtist)
		r.Delete("/artists/{id}/songs/{songID}", h.UnlinkSongFromArtist)
		r.Post("/artists/move", h.MoveArtist)

		r.Get("/groups", h.ListArtistGroups)
		r.Get("/groups/{id}", h.GetArtistGroup)
		r.Get("/library-groups", h.ListLibraryGroups)

		r.Get("/queue", h.ListQueue)
		r.Post("/health-check", h.RunHealthCheck)
		r.Get("/history", h.ListHistory)

		r.Get("/search", h.Search)
		r.Get("/search/history", h.ListSearchHistory)
		r.Delete("/search/history", h.ClearSearchHistory)
		r.Get("/lyrics", h.GetLyrics)

		r.Post("/backup/export", h.ExportBackup)

		r.Get("/events", h.StreamEvents)

		r.Get("/playback", h.GetPlaybackState)
		r.Put("/playback", h.SavePlaybackState)
		r.Delete("/playback", h.ClearPlaybackState)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) writeValidationErrors(w http.ResponseWriter, errs []dto.ValidationError) {
	h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation failed",
		"fields": dto.ToMap(errs),
	})
}

// writeLibraryError maps engine errors onto status codes. Auto-download
// conflicts surface as 409 with the owning scope named.
func (h *Handler) writeLibraryError(w http.ResponseWriter, err error) {
	var conflict *library.ConflictError
	switch {
	case errors.As(err, &conflict):
		h.writeJSON(w, http.StatusConflict, map[string]string{
			"error": conflict.Error(),
			"scope": conflict.Scope,
			"name":  conflict.Name,
		})
	case errors.Is(err, library.ErrSongNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
