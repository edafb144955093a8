// Package mediastore is the filesystem collaborator for the managed music
// directory. Database state is reconciled against what this package reports,
// never the other way around.
package mediastore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tunevault/tunevault/internal/constants"
)

// Sanitize strips characters that are invalid in file names and trims
// trailing dots and spaces.
func Sanitize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(constants.InvalidPathChars, r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimRight(mapped, ". ")
}

// Store manages files under one root directory.
type Store struct {
	Root string
}

func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, constants.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &Store{Root: root}, nil
}

// FileName builds the managed file name for a song.
func (s *Store) FileName(artist, title, ext string) string {
	name := Sanitize(fmt.Sprintf("%s - %s", artist, title))
	if name == "" {
		name = "untitled"
	}
	return name + ext
}

// Path resolves a managed file name to its absolute path.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Root, name)
}

// Contains reports whether path lies inside the managed root.
func (s *Store) Contains(path string) bool {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Verify probes a file for readability. A missing or unreadable file is the
// signal for the health check to reset the owning song.
func (s *Store) Verify(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// Delete removes a managed file. Deleting a file that is already gone is
// not an error.
func (s *Store) Delete(path string) error {
	if !s.Contains(path) {
		return fmt.Errorf("refusing to delete %s outside media root", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CreateTemp opens a staging file next to the final location so the final
// rename stays on one filesystem.
func (s *Store) CreateTemp(name string) (*os.File, error) {
	return os.CreateTemp(s.Root, "."+name+".part-*")
}

// PurgeStaging removes staging files left behind by an interrupted transfer.
// Staging files are hidden from ListFiles, so the orphan sweep never reclaims
// them. Only safe while no transfer is running. Returns the number removed.
func (s *Store) PurgeStaging() (int, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return 0, fmt.Errorf("failed to read media root: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, ".") || !strings.Contains(name, ".part-") {
			continue
		}
		if err := os.Remove(filepath.Join(s.Root, name)); err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}

// Commit moves a staged transfer to its final managed name.
func (s *Store) Commit(tempPath, name string) (string, error) {
	final := s.Path(name)
	if err := os.Rename(tempPath, final); err != nil {
		return "", fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return final, nil
}

// ListFiles returns the absolute path of every regular audio file under the
// root.
func (s *Store) ListFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case constants.ExtMP3, constants.ExtFLAC, constants.ExtM4A, constants.ExtOpus:
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list media files: %w", err)
	}
	return files, nil
}
