package library

import (
	"context"

	"github.com/tunevault/tunevault/internal/domain"
	"github.com/tunevault/tunevault/internal/events"
)

// HealthReport aggregates the counts of one full health-check run.
// Per-item failures are logged and skipped, never raised.
type HealthReport struct {
	RepairedEntries   int   `json:"repaired_entries"`
	RequeuedDownloads int   `json:"requeued_downloads"`
	RemovedFiles      int   `json:"removed_files"`
	LinkedSongs       int   `json:"linked_songs"`
	RemovedArtists    int64 `json:"removed_artists"`
	RemovedSongs      int64 `json:"removed_songs"`
}

// VerifyLibraryEntries probes every song holding a local-file reference. A
// stale reference is cleared and the song re-enqueued; the song row itself
// is never deleted here. Returns the number of repaired entries.
func (l *Library) VerifyLibraryEntries(ctx context.Context) (int, error) {
	songs, err := l.db.ListSongsWithLocalFiles()
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, song := range songs {
		if ctx.Err() != nil {
			return repaired, ctx.Err()
		}
		if l.media.Verify(*song.LocalPath) == nil {
			continue
		}

		l.log.WithSong(song.ID, song.Title).Info("stale local file reference, repairing")
		if err := l.db.ClearSongLocalFile(song.ID); err != nil {
			l.log.Warn("failed to clear stale reference", "song_id", song.ID, "error", err)
			continue
		}
		repaired++

		if song.Kind == domain.KindLocal {
			continue
		}
		if _, err := l.db.EnqueueDownload(song.ID); err != nil {
			l.log.Warn("failed to re-enqueue repaired song", "song_id", song.ID, "error", err)
		}
	}
	return repaired, nil
}

// RequeueStalledDownloads returns songs stuck in downloading, typically
// after a crash mid-transfer, to the queue. Songs whose transfer is live in
// the attached worker are left alone.
func (l *Library) RequeueStalledDownloads(ctx context.Context) (int, error) {
	songs, err := l.db.ListSongsByStatus(domain.StatusDownloading)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, song := range songs {
		if ctx.Err() != nil {
			return requeued, ctx.Err()
		}
		if song.Downloaded() {
			continue
		}
		if l.downloads != nil && l.downloads.Active(song.ID) {
			continue
		}

		// Step through failed so the enqueue transition applies.
		applied, err := l.db.CompareAndSetSongStatus(song.ID, domain.StatusDownloading, domain.StatusFailed, 0)
		if err != nil || !applied {
			continue
		}
		if _, err := l.db.EnqueueDownload(song.ID); err != nil {
			l.log.Warn("failed to requeue stalled download", "song_id", song.ID, "error", err)
			continue
		}
		l.log.WithSong(song.ID, song.Title).Info("requeued stalled download")
		requeued++
	}
	return requeued, nil
}

// CleanOrphanedFiles deletes files in the managed directory that no catalog
// row references. Best effort per file; the count reflects successes only.
func (l *Library) CleanOrphanedFiles(ctx context.Context) (int, error) {
	files, err := l.media.ListFiles()
	if err != nil {
		return 0, err
	}
	songs, err := l.db.ListSongsWithLocalFiles()
	if err != nil {
		return 0, err
	}

	known := make(map[string]bool, len(songs))
	for _, song := range songs {
		known[*song.LocalPath] = true
	}

	removed := 0
	for _, file := range files {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if known[file] {
			continue
		}
		if err := l.media.Delete(file); err != nil {
			l.log.Warn("failed to delete orphaned file", "path", file, "error", err)
			continue
		}
		l.log.Info("deleted orphaned file", "path", file)
		removed++
	}
	return removed, nil
}

// FixMissingArtistLinks links every song with no artist cross-reference to
// an artist resolved from its denormalized name. Idempotent.
func (l *Library) FixMissingArtistLinks(ctx context.Context) (int, error) {
	songs, err := l.db.ListSongsWithoutArtistLinks()
	if err != nil {
		return 0, err
	}

	linked := 0
	for _, song := range songs {
		if ctx.Err() != nil {
			return linked, ctx.Err()
		}
		if song.ArtistName == "" {
			continue
		}
		artist, err := l.db.FindOrCreateArtist(song.ArtistName)
		if err != nil {
			l.log.Warn("failed to resolve artist", "name", song.ArtistName, "error", err)
			continue
		}
		if err := l.db.LinkArtistSong(artist.ID, song.ID); err != nil {
			l.log.Warn("failed to link artist", "artist_id", artist.ID, "song_id", song.ID, "error", err)
			continue
		}
		linked++
	}
	return linked, nil
}

// RunHealthCheck runs every reconciliation pass in sequence and aggregates
// the counts. Re-running immediately reports zero repairs.
func (l *Library) RunHealthCheck(ctx context.Context) (*HealthReport, error) {
	report := &HealthReport{}

	repaired, err := l.VerifyLibraryEntries(ctx)
	if err != nil {
		return report, err
	}
	report.RepairedEntries = repaired

	requeued, err := l.RequeueStalledDownloads(ctx)
	if err != nil {
		return report, err
	}
	report.RequeuedDownloads = requeued

	removed, err := l.CleanOrphanedFiles(ctx)
	if err != nil {
		return report, err
	}
	report.RemovedFiles = removed

	linked, err := l.FixMissingArtistLinks(ctx)
	if err != nil {
		return report, err
	}
	report.LinkedSongs = linked

	songsGone, err := l.db.DeleteOrphanSongs()
	if err != nil {
		return report, err
	}
	report.RemovedSongs = songsGone

	artistsGone, err := l.db.DeleteOrphanedArtists()
	if err != nil {
		return report, err
	}
	report.RemovedArtists = artistsGone

	l.log.Info("health check completed",
		"repaired_entries", report.RepairedEntries,
		"requeued_downloads", report.RequeuedDownloads,
		"removed_files", report.RemovedFiles,
		"linked_songs", report.LinkedSongs,
		"removed_songs", report.RemovedSongs,
		"removed_artists", report.RemovedArtists)

	l.bus.Publish(events.TopicSongs, events.TopicArtists, events.TopicQueue)
	return report, nil
}
