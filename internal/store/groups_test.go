package store

import (
	"testing"

	"github.com/tunevault/tunevault/internal/domain"
)

func TestDB_LibraryGroupDeleteCascades(t *testing.T) {
	db := setupTestDB(t)

	group := &domain.LibraryGroup{Name: "workspace"}
	if err := db.CreateLibraryGroup(group); err != nil {
		t.Fatalf("CreateLibraryGroup failed: %v", err)
	}

	song := testSong("https://e/g1", "Grouped", "Artist")
	song.GroupID = &group.ID
	if err := db.CreateSong(song); err != nil {
		t.Fatalf("CreateSong failed: %v", err)
	}
	ungrouped := mustCreateSong(t, db, "https://e/g2", "Ungrouped", "Artist")

	playlist := &domain.Playlist{Name: "mix", GroupID: group.ID}
	if err := db.CreatePlaylist(playlist); err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}

	if err := db.DeleteLibraryGroup(group.ID); err != nil {
		t.Fatalf("DeleteLibraryGroup failed: %v", err)
	}

	if s, _ := db.GetSongByID(song.ID); s != nil {
		t.Error("Expected grouped song to cascade with its group")
	}
	if s, _ := db.GetSongByID(ungrouped.ID); s == nil {
		t.Error("Expected ungrouped song to survive group delete")
	}
	if p, _ := db.GetPlaylistByID(playlist.ID); p != nil {
		t.Error("Expected playlist to cascade with its group")
	}
}

func TestDB_ArtistGroupDeleteDetaches(t *testing.T) {
	db := setupTestDB(t)

	group := &domain.ArtistGroup{Name: "favorites"}
	if err := db.CreateArtistGroup(group); err != nil {
		t.Fatalf("CreateArtistGroup failed: %v", err)
	}

	artist, err := db.FindOrCreateArtist("Grouped Artist")
	if err != nil {
		t.Fatalf("FindOrCreateArtist failed: %v", err)
	}
	if err := db.SetArtistGroup(artist.ID, &group.ID); err != nil {
		t.Fatalf("SetArtistGroup failed: %v", err)
	}

	if err := db.DeleteArtistGroup(group.ID); err != nil {
		t.Fatalf("DeleteArtistGroup failed: %v", err)
	}

	survivor, err := db.GetArtistByID(artist.ID)
	if err != nil {
		t.Fatalf("GetArtistByID failed: %v", err)
	}
	if survivor == nil {
		t.Fatal("Expected artist to survive group delete")
	}
	if survivor.GroupID != nil {
		t.Errorf("Expected detached artist, got group %d", *survivor.GroupID)
	}
}

func TestDB_ArtistGroupPositions(t *testing.T) {
	db := setupTestDB(t)

	for i, name := range []string{"one", "two", "three"} {
		group := &domain.ArtistGroup{Name: name}
		if err := db.CreateArtistGroup(group); err != nil {
			t.Fatalf("CreateArtistGroup failed: %v", err)
		}
		if group.Position != i {
			t.Errorf("Expected group position %d, got %d", i, group.Position)
		}
	}
}

func TestDB_FindOrCreateArtist(t *testing.T) {
	db := setupTestDB(t)

	first, err := db.FindOrCreateArtist("Same Name")
	if err != nil {
		t.Fatalf("FindOrCreateArtist failed: %v", err)
	}
	second, err := db.FindOrCreateArtist("Same Name")
	if err != nil {
		t.Fatalf("FindOrCreateArtist failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Expected the same artist row, got %d and %d", first.ID, second.ID)
	}

	artists, _ := db.ListArtists(true)
	if len(artists) != 1 {
		t.Errorf("Expected 1 artist, got %d", len(artists))
	}
}

func TestDB_DeleteOrphanedArtists(t *testing.T) {
	db := setupTestDB(t)

	linked, err := db.FindOrCreateArtist("Linked")
	if err != nil {
		t.Fatalf("FindOrCreateArtist failed: %v", err)
	}
	if _, err := db.FindOrCreateArtist("Orphan"); err != nil {
		t.Fatalf("FindOrCreateArtist failed: %v", err)
	}

	song := mustCreateSong(t, db, "https://e/oa1", "Song", "Linked")
	if err := db.LinkArtistSong(linked.ID, song.ID); err != nil {
		t.Fatalf("LinkArtistSong failed: %v", err)
	}

	deleted, err := db.DeleteOrphanedArtists()
	if err != nil {
		t.Fatalf("DeleteOrphanedArtists failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 orphaned artist deleted, got %d", deleted)
	}
	if a, _ := db.GetArtistByName("Orphan"); a != nil {
		t.Error("Expected orphan artist to be deleted")
	}
	if a, _ := db.GetArtistByName("Linked"); a == nil {
		t.Error("Expected linked artist to survive")
	}
}

func TestDB_ListSongsWithoutArtistLinks(t *testing.T) {
	db := setupTestDB(t)

	linked := mustCreateSong(t, db, "https://e/l1", "Linked", "Artist")
	unlinked := mustCreateSong(t, db, "https://e/l2", "Unlinked", "Artist")

	artist, err := db.FindOrCreateArtist("Artist")
	if err != nil {
		t.Fatalf("FindOrCreateArtist failed: %v", err)
	}
	if err := db.LinkArtistSong(artist.ID, linked.ID); err != nil {
		t.Fatalf("LinkArtistSong failed: %v", err)
	}

	songs, err := db.ListSongsWithoutArtistLinks()
	if err != nil {
		t.Fatalf("ListSongsWithoutArtistLinks failed: %v", err)
	}
	if len(songs) != 1 {
		t.Fatalf("Expected 1 unlinked song, got %d", len(songs))
	}
	if songs[0].ID != unlinked.ID {
		t.Errorf("Expected song %d, got %d", unlinked.ID, songs[0].ID)
	}
}

func TestDB_GetPlaylistWithSongs(t *testing.T) {
	db := setupTestDB(t)

	group := &domain.LibraryGroup{Name: "default"}
	if err := db.CreateLibraryGroup(group); err != nil {
		t.Fatalf("CreateLibraryGroup failed: %v", err)
	}
	playlist := &domain.Playlist{Name: "joined", GroupID: group.ID}
	if err := db.CreatePlaylist(playlist); err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}

	// An empty playlist comes back with zero songs, not nil
	empty, err := db.GetPlaylistWithSongs(playlist.ID)
	if err != nil {
		t.Fatalf("GetPlaylistWithSongs failed: %v", err)
	}
	if empty == nil {
		t.Fatal("Expected playlist, got nil")
	}
	if len(empty.Songs) != 0 {
		t.Errorf("Expected 0 songs, got %d", len(empty.Songs))
	}

	var ids []int64
	for _, url := range []string{"https://e/j1", "https://e/j2"} {
		song := mustCreateSong(t, db, url, url, "Artist")
		ids = append(ids, song.ID)
		if err := db.AddSongToPlaylist(playlist.ID, song.ID); err != nil {
			t.Fatalf("AddSongToPlaylist failed: %v", err)
		}
	}

	full, err := db.GetPlaylistWithSongs(playlist.ID)
	if err != nil {
		t.Fatalf("GetPlaylistWithSongs failed: %v", err)
	}
	if full.Playlist.Name != "joined" {
		t.Errorf("Expected playlist 'joined', got %s", full.Playlist.Name)
	}
	if len(full.Songs) != 2 {
		t.Fatalf("Expected 2 songs, got %d", len(full.Songs))
	}
	if full.Songs[0].ID != ids[0] || full.Songs[1].ID != ids[1] {
		t.Errorf("Expected songs in position order %v, got %d, %d", ids, full.Songs[0].ID, full.Songs[1].ID)
	}

	// A missing playlist returns nil
	missing, err := db.GetPlaylistWithSongs(9999)
	if err != nil {
		t.Fatalf("GetPlaylistWithSongs failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for non-existent playlist")
	}
}

func TestDB_GetGroupWithArtists(t *testing.T) {
	db := setupTestDB(t)

	group := &domain.ArtistGroup{Name: "crew"}
	if err := db.CreateArtistGroup(group); err != nil {
		t.Fatalf("CreateArtistGroup failed: %v", err)
	}

	member, err := db.FindOrCreateArtist("Member")
	if err != nil {
		t.Fatalf("FindOrCreateArtist failed: %v", err)
	}
	if _, err := db.FindOrCreateArtist("Outsider"); err != nil {
		t.Fatalf("FindOrCreateArtist failed: %v", err)
	}
	if err := db.SetArtistGroup(member.ID, &group.ID); err != nil {
		t.Fatalf("SetArtistGroup failed: %v", err)
	}

	full, err := db.GetGroupWithArtists(group.ID)
	if err != nil {
		t.Fatalf("GetGroupWithArtists failed: %v", err)
	}
	if full == nil {
		t.Fatal("Expected group, got nil")
	}
	if len(full.Artists) != 1 {
		t.Fatalf("Expected 1 member, got %d", len(full.Artists))
	}
	if full.Artists[0].Name != "Member" {
		t.Errorf("Expected member 'Member', got %s", full.Artists[0].Name)
	}
}

func TestDB_History(t *testing.T) {
	db := setupTestDB(t)

	song := mustCreateSong(t, db, "https://e/h1", "Played", "Artist")
	other := mustCreateSong(t, db, "https://e/h2", "Also Played", "Artist")

	for i := 0; i < 3; i++ {
		if err := db.AppendHistory(song.ID); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
	}
	if err := db.AppendHistory(other.ID); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	plays, err := db.CountPlays(song.ID)
	if err != nil {
		t.Fatalf("CountPlays failed: %v", err)
	}
	if plays != 3 {
		t.Errorf("Expected 3 plays, got %d", plays)
	}

	entries, err := db.ListHistory(10)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("Expected 4 history entries, got %d", len(entries))
	}

	// Recently played dedupes to one row per song
	recent, err := db.ListRecentlyPlayedSongs(10)
	if err != nil {
		t.Fatalf("ListRecentlyPlayedSongs failed: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("Expected 2 recently played songs, got %d", len(recent))
	}
}
