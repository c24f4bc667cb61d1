package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Save outcomes recorded in the history
const (
	SaveSucceeded = "succeeded"
	SaveFailed    = "failed"
)

// SaveRecord represents one POST /save handled by the server
type SaveRecord struct {
	ID           string    `json:"id"`
	UserName     string    `json:"user_name"`
	SidekickName string    `json:"sidekick_name"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	RemoteAddr   string    `json:"remote_addr,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SaveHistory is a thread-safe ring buffer of save records
type SaveHistory struct {
	mu      sync.RWMutex
	entries []SaveRecord
	cap     int
}

// NewSaveHistory creates a new history with the given capacity
func NewSaveHistory(capacity int) *SaveHistory {
	if capacity <= 0 {
		capacity = 1
	}
	return &SaveHistory{
		entries: make([]SaveRecord, 0, capacity),
		cap:     capacity,
	}
}

// Add stores rec, assigning an ID and timestamp when missing, and returns
// the stored record
func (sh *SaveHistory) Add(rec SaveRecord) SaveRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if len(sh.entries) >= sh.cap {
		copy(sh.entries, sh.entries[1:])
		sh.entries[len(sh.entries)-1] = rec
	} else {
		sh.entries = append(sh.entries, rec)
	}
	return rec
}

// Entries returns all records (newest first)
func (sh *SaveHistory) Entries() []SaveRecord {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	result := make([]SaveRecord, len(sh.entries))
	for i, j := 0, len(sh.entries)-1; j >= 0; i, j = i+1, j-1 {
		result[i] = sh.entries[j]
	}
	return result
}

// Last returns the newest record
func (sh *SaveHistory) Last() (SaveRecord, bool) {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	if len(sh.entries) == 0 {
		return SaveRecord{}, false
	}
	return sh.entries[len(sh.entries)-1], true
}
