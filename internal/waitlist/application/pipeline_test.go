package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

type recordingView struct {
	mu       sync.Mutex
	alerts   []string
	loading  []bool
	position int
	success  bool
}

func (v *recordingView) Alert(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, message)
}

func (v *recordingView) SetLoading(loading bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = append(v.loading, loading)
}

func (v *recordingView) ShowSuccess(position int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.success = true
	v.position = position
}

type stubNotifier struct {
	calls   int
	err     error
	results []domain.DispatchResult
	block   chan struct{}
}

func (s *stubNotifier) Dispatch(ctx context.Context, _ domain.SubmissionRecord) ([]domain.DispatchResult, error) {
	s.calls++
	if s.block != nil {
		<-s.block
	}
	return s.results, s.err
}

type fixedPosition int

func (f fixedPosition) Next() int { return int(f) }

func newTestPipeline(n Notifier) *Pipeline {
	return NewPipeline(PipelineConfig{
		Notifier:  n,
		Positions: fixedPosition(42),
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) },
	})
}

func goodInput() domain.FormInput {
	return domain.FormInput{Name: "Анна", Email: "anna@example.com", Role: "parent", Human: true}
}

func TestSubmitEmptyNameAlertsWithoutDispatch(t *testing.T) {
	n := &stubNotifier{}
	p := newTestPipeline(n)
	view := &recordingView{}

	in := goodInput()
	in.Name = ""
	out, err := p.Submit(context.Background(), in, domain.RequestMeta{}, view)
	require.NoError(t, err)

	assert.Equal(t, StateIdle, out.State)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, []string{"Пожалуйста, укажите ваше имя (минимум 2 символа)"}, view.alerts)
	assert.Zero(t, n.calls)
	assert.Empty(t, view.loading)
	assert.ErrorIs(t, out.Err, domain.ErrInvalidForm)
}

func TestSubmitHoneypotIsRejectedAsBot(t *testing.T) {
	n := &stubNotifier{}
	p := newTestPipeline(n)
	view := &recordingView{}

	in := goodInput()
	in.Honeypot = "https://spam.example"
	out, err := p.Submit(context.Background(), in, domain.RequestMeta{}, view)
	require.NoError(t, err)

	assert.Equal(t, StateIdle, out.State)
	assert.ErrorIs(t, out.Err, domain.ErrBotDetected)
	assert.Equal(t, []string{"Проверка на бота не пройдена. Пожалуйста, попробуйте еще раз."}, view.alerts)
	assert.Zero(t, n.calls)
}

func TestSubmitSuccess(t *testing.T) {
	n := &stubNotifier{results: []domain.DispatchResult{{Service: "telegram", Success: false, Error: "boom"}}}
	p := newTestPipeline(n)
	view := &recordingView{}

	out, err := p.Submit(context.Background(), goodInput(), domain.RequestMeta{}, view)
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, out.State)
	assert.Equal(t, StateSuccess, p.State())
	assert.Equal(t, 42, out.Position)
	assert.True(t, view.success)
	assert.Equal(t, 42, view.position)
	assert.Equal(t, []bool{true}, view.loading)
	assert.Empty(t, view.alerts)
	assert.Equal(t, 1, n.calls)
	assert.Len(t, out.Results, 1)
}

func TestSubmitDispatchFailureRestoresForm(t *testing.T) {
	n := &stubNotifier{err: errors.New("dispatch aborted")}
	p := newTestPipeline(n)
	view := &recordingView{}

	out, err := p.Submit(context.Background(), goodInput(), domain.RequestMeta{}, view)
	require.NoError(t, err)

	assert.Equal(t, StateError, out.State)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, []string{DispatchFailedMessage}, view.alerts)
	assert.Equal(t, []bool{true, false}, view.loading)
	assert.False(t, view.success)

	// The re-enabled control allows another attempt.
	n.err = nil
	out, err = p.Submit(context.Background(), goodInput(), domain.RequestMeta{}, view)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, out.State)
	assert.Equal(t, 2, n.calls)
}

func TestSubmitRejectedWhileDispatching(t *testing.T) {
	n := &stubNotifier{block: make(chan struct{})}
	p := newTestPipeline(n)

	done := make(chan Outcome)
	go func() {
		out, _ := p.Submit(context.Background(), goodInput(), domain.RequestMeta{}, &recordingView{})
		done <- out
	}()

	require.Eventually(t, func() bool { return p.State() == StateDispatching }, time.Second, time.Millisecond)

	out, err := p.Submit(context.Background(), goodInput(), domain.RequestMeta{}, &recordingView{})
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.Equal(t, StateDispatching, out.State)

	close(n.block)
	assert.Equal(t, StateSuccess, (<-done).State)
	assert.Equal(t, 1, n.calls)
}

func TestRandomPositionsRange(t *testing.T) {
	src := NewRandomPositions(nil)
	for i := 0; i < 500; i++ {
		n := src.Next()
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, MaxPlaceholderPosition)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "bot_checking", StateBotChecking.String())
	assert.Equal(t, "unknown", State(99).String())
}
