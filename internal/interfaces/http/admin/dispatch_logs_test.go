package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

type fakeLogs struct {
	entries   []domain.DispatchLogEntry
	err       error
	lastLimit int
}

func (f *fakeLogs) Append(context.Context, domain.DispatchLogEntry) error { return nil }

func (f *fakeLogs) Recent(_ context.Context, limit int) ([]domain.DispatchLogEntry, error) {
	f.lastLimit = limit
	return f.entries, f.err
}

func serve(t *testing.T, logs *fakeLogs, target string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(Config{
		Logger:   zerolog.Nop(),
		Logs:     logs,
		Channels: []string{"telegram"},
		Location: time.FixedZone("MSK", 3*60*60),
	})
	r := chi.NewRouter()
	r.Route("/admin", h.Register)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDispatchLogList(t *testing.T) {
	logs := &fakeLogs{entries: []domain.DispatchLogEntry{{
		SubmissionID: "sub-1",
		Role:         domain.RoleParent,
		Results: []domain.DispatchResult{
			{Service: "telegram", Success: false, Error: "Telegram API error: 500"},
			{Service: "email", Success: true, Result: json.RawMessage(`{"ok":true}`)},
		},
		CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
	}}}

	rec := serve(t, logs, "/admin/dispatch-logs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, logs.lastLimit)

	var resp dispatchLogListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	item := resp.Items[0]
	assert.Equal(t, "sub-1", item.SubmissionID)
	assert.Equal(t, "parent", item.Role)
	assert.Equal(t, "Родитель", item.RoleName)
	assert.True(t, item.Delivered)
	assert.Equal(t, "2025-03-01T12:30:00+03:00", item.CreatedAt)
	assert.Equal(t, "01.03.2025, 12:30:00", item.DisplayTime)
	require.Len(t, item.Results, 2)
	assert.Equal(t, "Telegram API error: 500", item.Results[0].Error)
}

func TestDispatchLogLimit(t *testing.T) {
	logs := &fakeLogs{}
	rec := serve(t, logs, "/admin/dispatch-logs?limit=5000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 500, logs.lastLimit)
	assert.JSONEq(t, `{"items":[],"count":0}`, rec.Body.String())

	rec = serve(t, logs, "/admin/dispatch-logs?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchLogRepositoryError(t *testing.T) {
	rec := serve(t, &fakeLogs{err: errors.New("down")}, "/admin/dispatch-logs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChannelList(t *testing.T) {
	rec := serve(t, &fakeLogs{}, "/admin/channels")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"channels":["telegram"]}`, rec.Body.String())
}
