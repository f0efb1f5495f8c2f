package store

import "github.com/pau-bookit/bookit-api/internal/models"

const (
	// DefaultActivityCapacity is how many activity records are retained.
	DefaultActivityCapacity = 50
	// DefaultRecentActivity is how many records the dashboard surfaces.
	DefaultRecentActivity = 5
)

// ActivityLog is a newest-first, bounded list of activity records.
type ActivityLog struct {
	capacity int
	entries  []models.ActivityRecord
}

// NewActivityLog wraps existing records, trimming them to capacity.
func NewActivityLog(capacity int, entries []models.ActivityRecord) *ActivityLog {
	if capacity <= 0 {
		capacity = DefaultActivityCapacity
	}
	if len(entries) > capacity {
		entries = entries[:capacity]
	}
	return &ActivityLog{capacity: capacity, entries: entries}
}

// Append prepends the record and silently drops the oldest entries beyond capacity.
func (l *ActivityLog) Append(record models.ActivityRecord) {
	next := make([]models.ActivityRecord, 0, min(len(l.entries)+1, l.capacity))
	next = append(next, record)
	for _, entry := range l.entries {
		if len(next) == l.capacity {
			break
		}
		next = append(next, entry)
	}
	l.entries = next
}

// Recent returns up to n newest records. n <= 0 selects DefaultRecentActivity.
func (l *ActivityLog) Recent(n int) []models.ActivityRecord {
	if n <= 0 {
		n = DefaultRecentActivity
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]models.ActivityRecord, n)
	copy(out, l.entries[:n])
	return out
}

// Entries returns the retained records, newest first.
func (l *ActivityLog) Entries() []models.ActivityRecord {
	return l.entries
}
