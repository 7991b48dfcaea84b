package public

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamahr/waitlist/internal/interfaces/http/common"
	"github.com/mamahr/waitlist/internal/waitlist/application"
	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

type stubNotifier struct {
	mu      sync.Mutex
	records []domain.SubmissionRecord
	results []domain.DispatchResult
	err     error
}

func (s *stubNotifier) Dispatch(_ context.Context, record domain.SubmissionRecord) ([]domain.DispatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return s.results, s.err
}

type fixedPosition int

func (f fixedPosition) Next() int { return int(f) }

func newRouter(notifier application.Notifier, rateLimit func(http.Handler) http.Handler) http.Handler {
	h := NewHandler(Config{
		Logger:    zerolog.Nop(),
		Notifier:  notifier,
		Positions: fixedPosition(7),
		RateLimit: rateLimit,
	})
	r := chi.NewRouter()
	r.Route("/api", h.Register)
	return r
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "curl/8")
	req.Header.Set("Referer", "https://mamahr.example/")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"name":"Иван","email":"ivan@example.com","role":"student","description":"","website":"","human":true}`

func TestWaitlistSubmitSuccess(t *testing.T) {
	notifier := &stubNotifier{results: []domain.DispatchResult{
		{Service: "telegram", Success: false, Error: "Telegram API error: 500"},
		{Service: "email", Success: true},
	}}
	rec := postJSON(t, newRouter(notifier, nil), validBody)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp waitlistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, waitlistResponse{Status: "ok", Position: 7, Delivered: 1}, resp)

	require.Len(t, notifier.records, 1)
	record := notifier.records[0]
	assert.Equal(t, domain.RoleStudent, record.Role)
	assert.Equal(t, domain.DescriptionPlaceholder, record.Description)
	assert.Equal(t, "curl/8", record.UserAgent)
	assert.Equal(t, "https://mamahr.example/", record.Referrer)
	assert.Equal(t, "https://mamahr.example/", record.URL)
}

func TestWaitlistSubmitValidationFailure(t *testing.T) {
	notifier := &stubNotifier{}
	rec := postJSON(t, newRouter(notifier, nil), `{"name":"","email":"ivan@example.com","role":"student","human":true}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "name", resp.Field)
	assert.Equal(t, "Пожалуйста, укажите ваше имя (минимум 2 символа)", resp.Error)
	assert.Empty(t, notifier.records)
}

func TestWaitlistSubmitHoneypot(t *testing.T) {
	notifier := &stubNotifier{}
	body := strings.Replace(validBody, `"website":""`, `"website":"spam"`, 1)
	rec := postJSON(t, newRouter(notifier, nil), body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Проверка на бота не пройдена")
	assert.Empty(t, notifier.records)
}

func TestWaitlistSubmitDispatchFailure(t *testing.T) {
	notifier := &stubNotifier{err: errors.New("dispatch aborted")}
	rec := postJSON(t, newRouter(notifier, nil), validBody)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, application.DispatchFailedMessage, resp.Error)
}

func TestWaitlistSubmitForm(t *testing.T) {
	notifier := &stubNotifier{}
	form := url.Values{
		"name":  {"Ольга"},
		"email": {"olga@example.com"},
		"role":  {"company"},
		"human": {"on"},
		"url":   {"https://mamahr.example/#waitlist"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	newRouter(notifier, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, notifier.records, 1)
	assert.Equal(t, domain.RoleCompany, notifier.records[0].Role)
	assert.True(t, notifier.records[0].Human)
	assert.Equal(t, "https://mamahr.example/#waitlist", notifier.records[0].URL)
}

func TestWaitlistSubmitMalformed(t *testing.T) {
	h := newRouter(&stubNotifier{}, nil)

	rec := postJSON(t, h, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h, `{"unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWaitlistSubmitRateLimited(t *testing.T) {
	notifier := &stubNotifier{}
	h := newRouter(notifier, common.RateLimit(1, zerolog.Nop()))

	first := postJSON(t, h, validBody)
	second := postJSON(t, h, validBody)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Len(t, notifier.records, 1)
}

func TestFormBool(t *testing.T) {
	for in, want := range map[string]bool{"on": true, "true": true, "1": true, "": false, "off": false, "0": false} {
		assert.Equal(t, want, formBool(in), in)
	}
}
