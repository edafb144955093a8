// Package downloader runs the background download worker. It is the single
// consumer of the download queue: it claims the oldest pending song, streams
// it from the catalog provider into the managed media directory, tags the
// file and records the result.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/domain"
	"github.com/tunevault/tunevault/internal/events"
	"github.com/tunevault/tunevault/internal/httpclient"
	"github.com/tunevault/tunevault/internal/logger"
	"github.com/tunevault/tunevault/internal/mediastore"
	"github.com/tunevault/tunevault/internal/store"
	"github.com/tunevault/tunevault/internal/tagging"
)

var (
	ErrEmptyStream   = errors.New("provider returned an empty stream")
	ErrLocalSong     = errors.New("local songs cannot be downloaded")
	ErrSongNotQueued = errors.New("song is not queued")
)

type Worker struct {
	Repo          *store.DB
	Provider      catalog.Provider
	Media         *mediastore.Store
	Bus           *events.Bus
	Logger        *logger.Logger
	MaxConcurrent int
	PollInterval  time.Duration

	art *httpclient.Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running map[int64]context.CancelFunc
}

func NewWorker(repo *store.DB, provider catalog.Provider, media *mediastore.Store, bus *events.Bus, log *logger.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}

	return &Worker{
		Repo:          repo,
		Provider:      provider,
		Media:         media,
		Bus:           bus,
		Logger:        log.WithComponent("downloader"),
		MaxConcurrent: constants.DefaultConcurrency,
		PollInterval:  constants.DefaultPollInterval,
		art:           httpclient.New(),
		ctx:           ctx,
		cancel:        cancel,
		running:       make(map[int64]context.CancelFunc),
	}
}

func (w *Worker) Start() {
	w.Logger.Info("Starting worker")

	if n, err := w.Media.PurgeStaging(); err != nil {
		w.Logger.Error("Failed to purge staging files", "error", err)
	} else if n > 0 {
		w.Logger.Info("Purged staging files", "count", n)
	}

	if n, err := w.requeueStalled(); err != nil {
		w.Logger.Error("Failed to requeue stalled downloads", "error", err)
	} else if n > 0 {
		w.Logger.Info("Requeued stalled downloads", "count", n)
	}

	w.wg.Add(1)
	go w.processQueue()
}

func (w *Worker) Stop() {
	w.Logger.Info("Stopping worker")
	w.cancel()
	w.wg.Wait()
}

// requeueStalled puts songs left in downloading by a previous run back on
// the queue. The transition goes through failed so the enqueue applies.
func (w *Worker) requeueStalled() (int, error) {
	songs, err := w.Repo.ListSongsByStatus(domain.StatusDownloading)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, song := range songs {
		ok, err := w.Repo.CompareAndSetSongStatus(song.ID, domain.StatusDownloading, domain.StatusFailed, 0)
		if err != nil {
			w.Logger.Error("Failed to reset stalled song", "song_id", song.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if _, err := w.Repo.EnqueueDownload(song.ID); err != nil {
			w.Logger.Error("Failed to requeue stalled song", "song_id", song.ID, "error", err)
			continue
		}
		requeued++
	}
	return requeued, nil
}

func (w *Worker) processQueue() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.MaxConcurrent)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			for {
				item, err := w.Repo.NextQueuedSong()
				if err != nil {
					w.Logger.Error("Failed to read queue", "error", err)
					break
				}
				if item == nil {
					break
				}

				select {
				case sem <- struct{}{}:
				case <-w.ctx.Done():
					return
				}

				// Claim the song and consume its queue row. Recovery of an
				// interrupted transfer goes by the downloading status, not
				// the row, so the row can go now.
				claimed, err := w.Repo.CompareAndSetSongStatus(item.SongID, domain.StatusQueued, domain.StatusDownloading, 0)
				if err != nil {
					w.Logger.Error("Failed to claim song", "song_id", item.SongID, "error", err)
					<-sem
					break
				}
				if err := w.Repo.DeleteQueueItem(item.SongID); err != nil {
					w.Logger.Error("Failed to consume queue row", "song_id", item.SongID, "error", err)
				}
				if !claimed {
					// Stale row, the song moved on without us.
					<-sem
					continue
				}

				w.wg.Add(1)
				go func(songID int64) {
					defer w.wg.Done()
					defer func() { <-sem }()
					w.runJob(songID)
				}(item.SongID)
			}
		}
	}
}

// Cancel aborts the download of a single song. An in-flight transfer is
// interrupted and ends failed; a song still waiting in the queue is removed
// and returned to not_downloaded.
func (w *Worker) Cancel(songID int64) error {
	w.mu.Lock()
	cancel, inFlight := w.running[songID]
	w.mu.Unlock()

	if inFlight {
		cancel()
		return nil
	}

	ok, err := w.Repo.CompareAndSetSongStatus(songID, domain.StatusQueued, domain.StatusNotDownloaded, 0)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSongNotQueued
	}
	if err := w.Repo.DeleteQueueItem(songID); err != nil {
		return err
	}
	w.publish(events.TopicQueue, events.TopicSongs)
	return nil
}

// Active reports whether a transfer for the song is in flight right now.
func (w *Worker) Active(songID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.running[songID]
	return ok
}

func (w *Worker) runJob(songID int64) {
	defer func() {
		if r := recover(); r != nil {
			w.Logger.Error("Panic in download", "song_id", songID, "panic", r)
			w.fail(songID, fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithCancel(w.ctx)
	w.mu.Lock()
	w.running[songID] = cancel
	w.mu.Unlock()
	defer func() {
		cancel()
		w.mu.Lock()
		delete(w.running, songID)
		w.mu.Unlock()
	}()

	song, err := w.Repo.GetSongByID(songID)
	if err != nil || song == nil {
		w.Logger.Error("Failed to load queued song", "song_id", songID, "error", err)
		w.fail(songID, errors.New("song not found"))
		return
	}

	log := w.Logger.WithSong(song.ID, song.Title)
	log.Info("Downloading song")

	if song.Kind == domain.KindLocal {
		log.Warn("Local song in download queue, dropping")
		w.fail(songID, ErrLocalSong)
		return
	}

	path, err := w.download(ctx, song, log)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("Download cancelled")
		} else {
			log.Error("Download failed", "error", err)
		}
		w.fail(songID, err)
		return
	}

	recorded, err := w.Repo.SetSongDownloaded(songID, path)
	if err != nil {
		log.Error("Failed to record download", "error", err)
		_ = w.Media.Delete(path)
		w.fail(songID, err)
		return
	}
	if !recorded {
		// The song was deleted mid-transfer. The delete wins.
		log.Info("Song deleted during download, discarding file")
		_ = w.Media.Delete(path)
		w.publish(events.TopicQueue, events.TopicSongs)
		return
	}
	log.Info("Download complete", "path", path)
	w.publish(events.TopicQueue, events.TopicSongs)
}

func (w *Worker) download(ctx context.Context, song *domain.Song, log *logger.Logger) (string, error) {
	body, mimeType, err := w.Provider.GetStream(ctx, song.URL)
	if err != nil {
		return "", fmt.Errorf("failed to open stream: %w", err)
	}
	defer body.Close()

	name := w.Media.FileName(song.ArtistName, song.Title, extForMime(mimeType))

	tmp, err := w.Media.CreateTemp(name)
	if err != nil {
		return "", err
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			_ = w.Media.Delete(tmp.Name())
		}
	}()

	written, err := io.Copy(tmp, body)
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if written == 0 {
		return "", ErrEmptyStream
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	path, err := w.Media.Commit(tmp.Name(), name)
	if err != nil {
		return "", err
	}
	tmp = nil

	if err := w.tag(ctx, path, song); err != nil {
		log.Warn("Failed to tag file", "error", err)
	}

	return path, nil
}

// tag embeds metadata and cover art. Tagging failures never fail the
// download, the file is already in place.
func (w *Worker) tag(ctx context.Context, path string, song *domain.Song) error {
	var artData []byte
	if song.ThumbnailURL != "" {
		data, err := w.fetchArt(ctx, song.ThumbnailURL)
		if err != nil {
			w.Logger.Warn("Failed to fetch cover art", "song_id", song.ID, "error", err)
		} else {
			artData = data
		}
	}
	return tagging.TagFile(path, song, artData)
}

func (w *Worker) fetchArt(ctx context.Context, url string) ([]byte, error) {
	body, mimeType, err := w.art.Stream(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("unexpected art content type %q", mimeType)
	}
	return io.ReadAll(body)
}

func (w *Worker) fail(songID int64, cause error) {
	if _, err := w.Repo.CompareAndSetSongStatus(songID, domain.StatusDownloading, domain.StatusFailed, 0); err != nil {
		w.Logger.Error("Failed to mark song failed", "song_id", songID, "cause", cause, "error", err)
	}
	w.publish(events.TopicQueue, events.TopicSongs)
}

func (w *Worker) publish(topics ...events.Topic) {
	if w.Bus == nil {
		return
	}
	for _, t := range topics {
		w.Bus.Publish(t)
	}
}

func extForMime(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, constants.MimeTypeFLAC):
		return constants.ExtFLAC
	case strings.HasPrefix(mimeType, constants.MimeTypeMP4):
		return constants.ExtM4A
	default:
		return constants.ExtMP3
	}
}
