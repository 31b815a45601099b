package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/servicecall/packages/dispatch"
	"github.com/abdul-hamid-achik/servicecall/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("sqlite://" + filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, status := range []string{dispatch.OutcomeSuccess, dispatch.OutcomeFailure, dispatch.OutcomeCancelled} {
		require.NoError(t, store.Record(ctx, dispatch.Outcome{
			RequestID: "req-" + status,
			Method:    "GET",
			URL:       "http://h/p",
			Status:    status,
			Message:   "m" + status,
			Duration:  time.Duration(i+1) * 10 * time.Millisecond,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "req-cancelled", entries[0].RequestID)
	assert.Equal(t, 30*time.Millisecond, entries[0].Duration)
	assert.True(t, base.Add(2*time.Minute).Equal(entries[0].StartedAt))
	assert.Equal(t, "req-failure", entries[1].RequestID)
	assert.Equal(t, "mfailure", entries[1].Message)

	sum, err := store.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 3, Success: 1, Failure: 1, Cancelled: 1}, sum)
}

func TestStore_EmptyRecent(t *testing.T) {
	entries, err := openStore(t).Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_AsRecorder(t *testing.T) {
	store := openStore(t)
	transport := http.TransportFunc(func(ctx context.Context, req *http.EncodedRequest) (*http.Response, error) {
		return &http.Response{StatusCode: 200, Body: []byte(`{"ok":true}`)}, nil
	})

	d := dispatch.New(http.NewRequest(http.MethodGet, "http://h/p"),
		dispatch.WithTransport(transport),
		dispatch.WithRecorder(store),
		dispatch.WithRequestID("abc"),
	)
	_, err := d.Do(context.Background())
	require.NoError(t, err)

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].RequestID)
	assert.Equal(t, "GET", entries[0].Method)
	assert.Equal(t, dispatch.OutcomeSuccess, entries[0].Status)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), dispatch.Outcome{RequestID: "1", Method: "GET", URL: "u", Status: "success"}))
	require.NoError(t, store.Close())

	store, err = Open("sqlite:" + path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestParseConnectionString(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"sqlite://data/history.db", "data/history.db", false},
		{"sqlite:./history.db", "./history.db", false},
		{"history.db", "history.db", false},
		{"postgres://user@host/db", "", true},
		{"", "", true},
		{"sqlite://", "", true},
	}

	for _, tt := range tests {
		got, err := parseConnectionString(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}
