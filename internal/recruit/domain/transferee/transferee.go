// Package transferee models browsable candidate profiles and recruiter
// watchlists.
package transferee

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
)

var (
	// ErrEmptyID indicates a missing transferee ID.
	ErrEmptyID = apperrors.New(apperrors.CodeTransfereeEmptyID, "transferee id is required")
	// ErrEmptyUserID indicates a missing watcher user ID.
	ErrEmptyUserID = apperrors.New(apperrors.CodeWatchlistEmptyUserID, "user id is required")
)

// Transferee is a candidate player profile browsable by recruiters. It is
// distinct from an Application, which is a candidate-initiated request tied
// to one kingdom.
type Transferee struct {
	ID          string
	DisplayName string
	Kingdom     string
	Power       int64
	TCLevel     int
	Contact     string
	Anonymous   bool
	UpdatedAt   time.Time
}

// WatchlistEntry marks one transferee on a recruiter's watchlist.
type WatchlistEntry struct {
	ID           string
	UserID       string
	TransfereeID string
	Note         string
	AddedAt      time.Time
}

// Redact blanks contact fields while the anonymity flag is set. Profiles are
// redacted at read time so stored contact data never leaks through listings.
func Redact(t Transferee) Transferee {
	if t.Anonymous {
		t.Contact = ""
	}
	return t
}

// NewWatchlistEntry creates a watchlist entry with a generated ID.
func NewWatchlistEntry(userID, transfereeID, note string, now func() time.Time, idGenerator func() (string, error)) (WatchlistEntry, error) {
	if now == nil {
		now = time.Now
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return WatchlistEntry{}, ErrEmptyUserID
	}
	transfereeID = strings.TrimSpace(transfereeID)
	if transfereeID == "" {
		return WatchlistEntry{}, ErrEmptyID
	}

	entryID, err := idGenerator()
	if err != nil {
		return WatchlistEntry{}, err
	}
	return WatchlistEntry{
		ID:           entryID,
		UserID:       userID,
		TransfereeID: transfereeID,
		Note:         strings.TrimSpace(note),
		AddedAt:      now().UTC(),
	}, nil
}
