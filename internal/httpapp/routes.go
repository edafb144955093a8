package httpapp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/downloader"
	"github.com/tunevault/tunevault/internal/httpapp/dto"
)

func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.Library.Store().ListLibrarySongs()
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, songs)
}

func (h *Handler) SaveSong(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveSongRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}

	song, err := h.Library.SaveSong(req.CatalogSong(), req.GroupID)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, song)
}

func (h *Handler) RegisterLocalSong(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterLocalSongRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}

	song, err := h.Library.RegisterLocalSong(req.Path, req.Title, req.Artist)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, song)
}

func (h *Handler) DeleteSong(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}
	if err := h.Library.DeleteSong(id); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) RemoveDownload(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}
	if err := h.Library.RemoveDownload(id); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) EnqueueDownload(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}
	created, err := h.Library.EnqueueDownload(id)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]bool{"enqueued": created})
}

func (h *Handler) CancelDownload(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}
	if err := h.Worker.Cancel(id); err != nil {
		if errors.Is(err, downloader.ErrSongNotQueued) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) RecordPlay(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}
	if err := h.Library.RecordPlay(id); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) LinkSongToArtist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}
	var req dto.LinkArtistRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}
	artist, err := h.Library.LinkSongToArtist(id, req.Name)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, artist)
}

func (h *Handler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.Library.Store().ListPlaylists()
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, playlists)
}

func (h *Handler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePlaylistRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}
	playlist, err := h.Library.CreatePlaylist(req.Name, req.GroupID)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, playlist)
}

func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	playlist, err := h.Library.Store().GetPlaylistWithSongs(id)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	if playlist == nil {
		h.writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	h.writeJSON(w, http.StatusOK, playlist)
}

func (h *Handler) RenamePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	var req dto.RenameRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}
	if err := h.Library.RenamePlaylist(id, req.Name); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	if err := h.Library.DeletePlaylist(id); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) AddSongToPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	songID, err := idParam(r, "songID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}
	if err := h.Library.AddSongToPlaylist(playlistID, songID); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) RemoveSongFromPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	songID, err := idParam(r, "songID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}
	if err := h.Library.RemoveSongFromPlaylist(playlistID, songID); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) MovePlaylistSong(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	var req dto.MoveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}
	if err := h.Library.MovePlaylistSong(id, req.From, req.To); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) SetPlaylistAutoDownload(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	var req dto.AutoDownloadRequest
	if !h.decode(w, r, &req) {
		return
	}
	enqueued, err := h.Library.SetPlaylistAutoDownload(id, req.Enabled)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"enqueued": enqueued})
}

func (h *Handler) PlayPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	var req dto.PlayRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}
	if err := h.Playback.PlayPlaylist(r.Context(), id, req.StartIndex); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ListArtists(w http.ResponseWriter, r *http.Request) {
	includeHidden := r.URL.Query().Get("hidden") == "true"
	artists, err := h.Library.Store().ListArtists(includeHidden)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, artists)
}

func (h *Handler) GetArtist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	artist, err := h.Library.Store().GetArtistWithSongs(id)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	if artist == nil {
		h.writeError(w, http.StatusNotFound, "artist not found")
		return
	}
	h.writeJSON(w, http.StatusOK, artist)
}

func (h *Handler) MoveArtistSong(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	var req dto.MoveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}
	if err := h.Library.MoveArtistSong(id, req.From, req.To); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) MoveArtist(w http.ResponseWriter, r *http.Request) {
	var req dto.MoveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}
	if err := h.Library.MoveArtist(req.From, req.To); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) SetArtistAutoDownload(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	var req dto.AutoDownloadRequest
	if !h.decode(w, r, &req) {
		return
	}
	enqueued, err := h.Library.SetArtistAutoDownload(id, req.Enabled)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"enqueued": enqueued})
}

func (h *Handler) PlayArtist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	var req dto.PlayRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}
	if err := h.Playback.PlayArtist(r.Context(), id, req.StartIndex); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) UnlinkSongFromArtist(w http.ResponseWriter, r *http.Request) {
	artistID, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid artist id")
		return
	}
	songID, err := idParam(r, "songID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}
	if err := h.Library.UnlinkSongFromArtist(artistID, songID); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ListArtistGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Library.Store().ListArtistGroups()
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) ListLibraryGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Library.Store().ListLibraryGroups()
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) GetArtistGroup(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	group, err := h.Library.Store().GetGroupWithArtists(id)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	if group == nil {
		h.writeError(w, http.StatusNotFound, "group not found")
		return
	}
	h.writeJSON(w, http.StatusOK, group)
}

func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
	items, err := h.Library.Store().ListQueueItems()
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) RunHealthCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.Library.RunHealthCheck(r.Context())
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := constants.MaxHistoryItems
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= constants.MaxHistoryItems {
			limit = n
		}
	}
	entries, err := h.Library.Store().ListHistory(limit)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	var req dto.BackupExportRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidationErrors(w, errs)
		return
	}
	path, err := h.Backup.Export(h.Library.Store(), req.Dir)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}
