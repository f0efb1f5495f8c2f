package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pau-bookit/bookit-api/internal/config"
	"github.com/pau-bookit/bookit-api/internal/database"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/scheduling"
	"github.com/pau-bookit/bookit-api/internal/store"
)

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	app := newApp(&out)
	require.NoError(t, app.RunContext(context.Background(), append([]string{"bookitctl"}, args...)))
	return out.Bytes()
}

func TestSeedAndListRooms(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bookit.db")

	var seeded struct {
		Added int `json:"added"`
	}
	require.NoError(t, json.Unmarshal(run(t, "--sqlite-path", dbPath, "rooms", "seed"), &seeded))
	require.Equal(t, 14, seeded.Added)

	var rooms []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(run(t, "--sqlite-path", dbPath, "rooms", "list", "--building", "TYD"), &rooms))
	require.Len(t, rooms, 6)

	var listed struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(run(t, "--sqlite-path", dbPath, "reservations", "list", "--status", "PENDING"), &listed))
	require.Zero(t, listed.Total)

	var doc struct {
		Rooms []struct {
			ID string `json:"id"`
		} `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(run(t, "--sqlite-path", dbPath, "export"), &doc))
	require.Len(t, doc.Rooms, 14)

	var bulk struct {
		Approved int `json:"approved"`
	}
	require.NoError(t, json.Unmarshal(run(t, "--sqlite-path", dbPath, "reservations", "bulk-approve", "--reviewer", "admin-1"), &bulk))
	require.Zero(t, bulk.Approved)
}

// seedPending writes rooms, two pending reservations and the given number of activity
// records into the sqlite file, as the API server would have left them. It returns
// the id of the first reservation.
func seedPending(t *testing.T, dbPath string, capacity, records int) int64 {
	t.Helper()
	ctx := context.Background()
	repo, closer, err := database.OpenStateRepository(config.Config{StorageDriver: config.StorageSQLite, SQLitePath: dbPath})
	require.NoError(t, err)
	defer func() { require.NoError(t, closer()) }()

	st, err := store.Open(ctx, repo, store.WithActivityCapacity(capacity))
	require.NoError(t, err)
	_, err = st.SeedRooms(ctx, store.DefaultRooms(time.Now()))
	require.NoError(t, err)

	var first models.Reservation
	for _, start := range []string{"09:00", "10:00"} {
		clock, err := scheduling.ParseClock(start)
		require.NoError(t, err)
		reservation, err := st.Create(ctx, store.Draft{
			RequesterID: "student-1",
			RoomID:      "SST-CR1",
			Date:        "2024-05-01",
			StartTime:   start,
			EndTime:     (clock + 60).String(),
			Purpose:     "Study group",
		})
		require.NoError(t, err)
		require.Equal(t, models.ReservationPending, reservation.Status)
		if first.ID == 0 {
			first = reservation
		}
	}

	for i := 0; i < records; i++ {
		require.NoError(t, st.AppendActivity(ctx, models.ActivityRecord{
			ID:          fmt.Sprintf("seed-%d", i),
			Timestamp:   time.Now().UTC(),
			UserID:      "student-1",
			Action:      models.ActivityCreated,
			Description: "seeded",
		}))
	}
	return first.ID
}

func TestReviewPendingReservationKeepsConfiguredActivity(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bookit.db")
	id := seedPending(t, dbPath, 100, 80)
	global := []string{"--sqlite-path", dbPath, "--activity-capacity", "100", "--nats-url", "nats://127.0.0.1:1"}

	var reviewed struct {
		ID         int64   `json:"id"`
		Status     string  `json:"status"`
		ReviewedBy *string `json:"reviewed_by"`
	}
	args := append(append([]string{}, global...), "reservations", "review", strconv.FormatInt(id, 10), "--decision", "approve", "--reviewer", "admin-1")
	require.NoError(t, json.Unmarshal(run(t, args...), &reviewed))
	require.Equal(t, id, reviewed.ID)
	require.Equal(t, string(models.ReservationApproved), reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	require.Equal(t, "admin-1", *reviewed.ReviewedBy)

	var bulk struct {
		Approved int `json:"approved"`
	}
	require.NoError(t, json.Unmarshal(run(t, append(append([]string{}, global...), "reservations", "bulk-approve", "--reviewer", "admin-1")...), &bulk))
	require.Equal(t, 1, bulk.Approved)

	var doc models.BookingDocument
	require.NoError(t, json.Unmarshal(run(t, append(append([]string{}, global...), "export")...), &doc))
	require.Len(t, doc.Activity, 82)
	require.Equal(t, models.ActivityBulkApproved, doc.Activity[0].Action)
	require.Equal(t, models.ActivityApproved, doc.Activity[1].Action)

	var recent []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(run(t, append(append([]string{}, global...), "activity", "--limit", "60")...), &recent))
	require.Len(t, recent, 60)

	var again bytes.Buffer
	err := newApp(&again).RunContext(context.Background(), append(append([]string{"bookitctl"}, global...), "reservations", "review", strconv.FormatInt(id, 10), "--decision", "deny", "--reviewer", "admin-2"))
	require.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestIssueToken(t *testing.T) {
	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(run(t, "token", "--secret", "s3cret", "--id", "admin-1", "--role", "admin"), &issued))
	require.NotEmpty(t, issued.Token)

	var out bytes.Buffer
	err := newApp(&out).RunContext(context.Background(), []string{"bookitctl", "token", "--secret", "s", "--id", "x", "--role", "janitor"})
	require.ErrorContains(t, err, "unknown role")
}
