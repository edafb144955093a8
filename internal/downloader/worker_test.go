package downloader

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/domain"
	"github.com/tunevault/tunevault/internal/events"
	"github.com/tunevault/tunevault/internal/library"
	"github.com/tunevault/tunevault/internal/logger"
	"github.com/tunevault/tunevault/internal/mediastore"
	"github.com/tunevault/tunevault/internal/store"
)

func setupWorker(t *testing.T, provider catalog.Provider) (*Worker, *store.DB, *mediastore.Store) {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() {
		if cErr := db.Close(); cErr != nil {
			t.Logf("db.Close error: %v", cErr)
		}
	})

	media, err := mediastore.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create media store: %v", err)
	}

	w := NewWorker(db, provider, media, events.NewBus(), logger.Default())
	w.PollInterval = 10 * time.Millisecond
	return w, db, media
}

func enqueueSong(t *testing.T, db *store.DB, url, title, artist string) *domain.Song {
	t.Helper()
	song := &domain.Song{
		URL:        url,
		Title:      title,
		ArtistName: artist,
		Duration:   180,
		Kind:       domain.KindStandard,
		InLibrary:  true,
		Status:     domain.StatusNotDownloaded,
	}
	if err := db.CreateSong(song); err != nil {
		t.Fatalf("CreateSong failed: %v", err)
	}
	if _, err := db.EnqueueDownload(song.ID); err != nil {
		t.Fatalf("EnqueueDownload failed: %v", err)
	}
	return song
}

func waitForStatus(t *testing.T, db *store.DB, songID int64, want domain.DownloadStatus) *domain.Song {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		song, err := db.GetSongByID(songID)
		if err != nil {
			t.Fatalf("GetSongByID failed: %v", err)
		}
		if song != nil && song.Status == want {
			return song
		}
		time.Sleep(10 * time.Millisecond)
	}
	song, _ := db.GetSongByID(songID)
	t.Fatalf("Timed out waiting for status %s, song is %+v", want, song)
	return nil
}

func TestWorker_DownloadsQueuedSong(t *testing.T) {
	catalogSong := domain.CatalogSong{URL: "https://e/s1", Title: "First", ArtistName: "Artist"}
	provider := catalog.NewMockProvider(catalogSong)

	w, db, media := setupWorker(t, provider)
	song := enqueueSong(t, db, catalogSong.URL, catalogSong.Title, catalogSong.ArtistName)

	w.Start()
	defer w.Stop()

	done := waitForStatus(t, db, song.ID, domain.StatusDownloaded)

	if done.LocalPath == nil {
		t.Fatal("Expected local path to be set")
	}
	if !media.Contains(*done.LocalPath) {
		t.Errorf("Expected path under media root, got %s", *done.LocalPath)
	}
	data, err := os.ReadFile(*done.LocalPath)
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected non-empty downloaded file")
	}
	if done.Progress != 100 {
		t.Errorf("Expected progress 100, got %d", done.Progress)
	}

	count, err := db.CountQueueItems()
	if err != nil {
		t.Fatalf("CountQueueItems failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty queue, got %d items", count)
	}
}

func TestWorker_FailedStreamMarksSongFailed(t *testing.T) {
	catalogSong := domain.CatalogSong{URL: "https://e/s1", Title: "First", ArtistName: "Artist"}
	provider := catalog.NewMockProvider(catalogSong)
	provider.StreamErr = io.ErrUnexpectedEOF

	w, db, media := setupWorker(t, provider)
	song := enqueueSong(t, db, catalogSong.URL, catalogSong.Title, catalogSong.ArtistName)

	w.Start()
	defer w.Stop()

	failed := waitForStatus(t, db, song.ID, domain.StatusFailed)

	if failed.LocalPath != nil {
		t.Errorf("Expected no local path, got %s", *failed.LocalPath)
	}
	if failed.Progress != 0 {
		t.Errorf("Expected progress 0, got %d", failed.Progress)
	}

	count, err := db.CountQueueItems()
	if err != nil {
		t.Fatalf("CountQueueItems failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty queue, got %d items", count)
	}

	files, err := media.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Expected no leftover files, got %v", files)
	}
}

// blockingProvider serves a stream that never yields data until the request
// context is cancelled.
type blockingProvider struct {
	*catalog.MockProvider
	started chan struct{}
}

type blockingReader struct {
	ctx     context.Context
	started chan struct{}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	select {
	case r.started <- struct{}{}:
	default:
	}
	<-r.ctx.Done()
	return 0, r.ctx.Err()
}

func (p *blockingProvider) GetStream(ctx context.Context, url string) (io.ReadCloser, string, error) {
	return io.NopCloser(&blockingReader{ctx: ctx, started: p.started}), "audio/mpeg", nil
}

func TestWorker_CancelInFlightDownload(t *testing.T) {
	catalogSong := domain.CatalogSong{URL: "https://e/s1", Title: "First", ArtistName: "Artist"}
	provider := &blockingProvider{
		MockProvider: catalog.NewMockProvider(catalogSong),
		started:      make(chan struct{}, 1),
	}

	w, db, _ := setupWorker(t, provider)
	song := enqueueSong(t, db, catalogSong.URL, catalogSong.Title, catalogSong.ArtistName)

	w.Start()
	defer w.Stop()

	select {
	case <-provider.started:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for transfer to start")
	}

	if err := w.Cancel(song.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	failed := waitForStatus(t, db, song.ID, domain.StatusFailed)
	if failed.Status == domain.StatusDownloading {
		t.Error("Song stuck in downloading after cancel")
	}
}

// gatedProvider streams one chunk, then holds the transfer open until
// release is closed.
type gatedProvider struct {
	*catalog.MockProvider
	started chan struct{}
	release chan struct{}
}

type gatedReader struct {
	ctx     context.Context
	started chan struct{}
	release chan struct{}
	sent    bool
}

func (r *gatedReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		select {
		case r.started <- struct{}{}:
		default:
		}
		return copy(p, "audio-bytes"), nil
	}
	select {
	case <-r.release:
		return 0, io.EOF
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	}
}

func (p *gatedProvider) GetStream(ctx context.Context, url string) (io.ReadCloser, string, error) {
	return io.NopCloser(&gatedReader{ctx: ctx, started: p.started, release: p.release}), "audio/mpeg", nil
}

func waitForIdle(t *testing.T, w *Worker, songID int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !w.Active(songID) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for transfer to wind down")
}

func TestWorker_DeleteDuringDownloadDiscardsFile(t *testing.T) {
	catalogSong := domain.CatalogSong{URL: "https://e/s1", Title: "First", ArtistName: "Artist"}
	provider := &gatedProvider{
		MockProvider: catalog.NewMockProvider(catalogSong),
		started:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}

	w, db, media := setupWorker(t, provider)
	song := enqueueSong(t, db, catalogSong.URL, catalogSong.Title, catalogSong.ArtistName)

	w.Start()
	defer w.Stop()

	select {
	case <-provider.started:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for transfer to start")
	}

	// The row is dropped while the transfer runs, then the stream completes.
	if err := db.DeleteSong(song.ID); err != nil {
		t.Fatalf("DeleteSong failed: %v", err)
	}
	close(provider.release)

	waitForIdle(t, w, song.ID)

	if got, _ := db.GetSongByID(song.ID); got != nil {
		t.Errorf("Expected deleted song to stay gone, got %+v", got)
	}
	if got, _ := db.GetSongByURL(song.URL); got != nil {
		t.Errorf("Expected no row for the deleted URL, got %+v", got)
	}
	files, err := media.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Expected completed file to be discarded, got %v", files)
	}
}

func TestWorker_LibraryDeleteAbortsInFlightDownload(t *testing.T) {
	catalogSong := domain.CatalogSong{URL: "https://e/s1", Title: "First", ArtistName: "Artist"}
	provider := &blockingProvider{
		MockProvider: catalog.NewMockProvider(catalogSong),
		started:      make(chan struct{}, 1),
	}

	w, db, media := setupWorker(t, provider)
	lib := library.New(db, media, events.NewBus(), logger.Default())
	lib.AttachDownloads(w)
	song := enqueueSong(t, db, catalogSong.URL, catalogSong.Title, catalogSong.ArtistName)

	w.Start()
	defer w.Stop()

	select {
	case <-provider.started:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for transfer to start")
	}

	if err := lib.DeleteSong(song.ID); err != nil {
		t.Fatalf("DeleteSong failed: %v", err)
	}

	waitForIdle(t, w, song.ID)

	if got, _ := db.GetSongByID(song.ID); got != nil {
		t.Errorf("Expected deleted song to stay gone, got %+v", got)
	}
	files, err := media.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Expected no files for the aborted transfer, got %v", files)
	}
}

func TestWorker_CancelQueuedSong(t *testing.T) {
	catalogSong := domain.CatalogSong{URL: "https://e/s1", Title: "First", ArtistName: "Artist"}
	provider := catalog.NewMockProvider(catalogSong)

	w, db, _ := setupWorker(t, provider)
	song := enqueueSong(t, db, catalogSong.URL, catalogSong.Title, catalogSong.ArtistName)

	// Worker never started, the song sits in the queue.
	if err := w.Cancel(song.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	got, err := db.GetSongByID(song.ID)
	if err != nil {
		t.Fatalf("GetSongByID failed: %v", err)
	}
	if got.Status != domain.StatusNotDownloaded {
		t.Errorf("Expected status not_downloaded, got %s", got.Status)
	}

	count, err := db.CountQueueItems()
	if err != nil {
		t.Fatalf("CountQueueItems failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty queue, got %d items", count)
	}

	if err := w.Cancel(song.ID); err != ErrSongNotQueued {
		t.Errorf("Expected ErrSongNotQueued, got %v", err)
	}
}

func TestWorker_RequeuesStalledDownloadsOnStart(t *testing.T) {
	catalogSong := domain.CatalogSong{URL: "https://e/s1", Title: "First", ArtistName: "Artist"}
	provider := catalog.NewMockProvider(catalogSong)

	w, db, _ := setupWorker(t, provider)
	song := enqueueSong(t, db, catalogSong.URL, catalogSong.Title, catalogSong.ArtistName)

	// Simulate a crash mid-transfer: claimed, dequeued, never finished.
	if ok, err := db.CompareAndSetSongStatus(song.ID, domain.StatusQueued, domain.StatusDownloading, 40); err != nil || !ok {
		t.Fatalf("Failed to claim song: ok=%v err=%v", ok, err)
	}
	if err := db.DeleteQueueItem(song.ID); err != nil {
		t.Fatalf("DeleteQueueItem failed: %v", err)
	}

	n, err := w.requeueStalled()
	if err != nil {
		t.Fatalf("requeueStalled failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 requeued song, got %d", n)
	}

	got, err := db.GetSongByID(song.ID)
	if err != nil {
		t.Fatalf("GetSongByID failed: %v", err)
	}
	if got.Status != domain.StatusQueued {
		t.Errorf("Expected status queued, got %s", got.Status)
	}

	count, err := db.CountQueueItems()
	if err != nil {
		t.Fatalf("CountQueueItems failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 queue item, got %d", count)
	}
}

func TestWorker_SkipsStaleQueueRows(t *testing.T) {
	catalogSong := domain.CatalogSong{URL: "https://e/s1", Title: "First", ArtistName: "Artist"}
	provider := catalog.NewMockProvider(catalogSong)

	w, db, _ := setupWorker(t, provider)
	song := enqueueSong(t, db, catalogSong.URL, catalogSong.Title, catalogSong.ArtistName)

	// The song completed through another path, but its queue row lingers.
	if err := db.SetSongStatus(song.ID, domain.StatusDownloaded, 100); err != nil {
		t.Fatalf("SetSongStatus failed: %v", err)
	}

	w.Start()
	defer w.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		count, err := db.CountQueueItems()
		if err != nil {
			t.Fatalf("CountQueueItems failed: %v", err)
		}
		if count == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	got, err := db.GetSongByID(song.ID)
	if err != nil {
		t.Fatalf("GetSongByID failed: %v", err)
	}
	if got.Status != domain.StatusDownloaded {
		t.Errorf("Expected status downloaded, got %s", got.Status)
	}
}
