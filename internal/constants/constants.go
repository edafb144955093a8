// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort         = "8080"
	DefaultDBPath       = "tunevault.db"
	DefaultConcurrency  = 2
	DefaultPollInterval = 2 * time.Second
	DefaultHTTPTimeout  = 5 * time.Minute
	DefaultRetryCount   = 3
	DefaultRetryBase    = 1 * time.Second
)

// Auxiliary cache bounds. When a lyrics insert would exceed the capacity,
// the oldest quartile is evicted in one batch.
const (
	LyricsCacheCapacity  = 500
	LyricsCacheEviction  = LyricsCacheCapacity / 4
	SearchHistoryMaxSize = 100
)

// MIME Types
const (
	MimeTypeFLAC = "audio/flac"
	MimeTypeMP3  = "audio/mpeg"
	MimeTypeMP4  = "audio/mp4"
	MimeTypeJPEG = "image/jpeg"
)

// File Extensions
const (
	ExtFLAC = ".flac"
	ExtMP3  = ".mp3"
	ExtM4A  = ".m4a"
	ExtOpus = ".opus"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Listing limits for UI-facing reads
const (
	MaxHistoryItems  = 50
	MaxSearchResults = 50
)

// Characters to sanitize from filesystem paths
const InvalidPathChars = "<>:\"/\\|?*"
