package landing

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamahr/waitlist/internal/dom"
	"github.com/mamahr/waitlist/internal/waitlist/application"
	"github.com/mamahr/waitlist/internal/waitlist/domain"
	"github.com/mamahr/waitlist/web"
)

type stubNotifier struct {
	mu      sync.Mutex
	records []domain.SubmissionRecord
	err     error
	gate    chan struct{}
}

func (s *stubNotifier) Dispatch(_ context.Context, record domain.SubmissionRecord) ([]domain.DispatchResult, error) {
	s.mu.Lock()
	s.records = append(s.records, record)
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return []domain.DispatchResult{}, nil
}

func (s *stubNotifier) calls() []domain.SubmissionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SubmissionRecord(nil), s.records...)
}

type fixedPosition int

func (f fixedPosition) Next() int { return int(f) }

func mount(t *testing.T, notifier application.Notifier) (*dom.Page, *Page) {
	t.Helper()
	doc, err := dom.Parse(bytes.NewReader(web.IndexHTML))
	require.NoError(t, err)

	pipeline := application.NewPipeline(application.PipelineConfig{
		Notifier:  notifier,
		Positions: fixedPosition(42),
		Logger:    zerolog.Nop(),
	})
	page, err := Mount(context.Background(), doc, Options{
		Pipeline:       pipeline,
		Logger:         zerolog.Nop(),
		Meta:           domain.RequestMeta{UserAgent: "test-agent", URL: "https://mamahr.example/"},
		DisableEffects: true,
	})
	require.NoError(t, err)
	t.Cleanup(page.Close)
	return doc, page
}

func fill(doc *dom.Page) {
	doc.Query(`.btn-role[data-role="parent"]`).Click()
	doc.Query(`input[name="name"]`).SetValue("  Мария ")
	doc.Query(`input[name="email"]`).SetValue("maria@example.com")
	doc.Query(`textarea[name="description"]`).SetValue("Ищу стажировку для сына")
	doc.Query(".human-check").Click()
}

func submitButton(doc *dom.Page) dom.Element {
	return doc.Query(`#waitlistForm button[type="submit"]`)
}

func TestMountRequiresForm(t *testing.T) {
	doc, err := dom.ParseString(`<div></div>`)
	require.NoError(t, err)
	_, err = Mount(context.Background(), doc, Options{})
	assert.ErrorIs(t, err, ErrFormMissing)
}

func TestSubmitWithEmptyNameAlertsWithoutDispatch(t *testing.T) {
	notifier := &stubNotifier{}
	doc, page := mount(t, notifier)
	fill(doc)
	doc.Query(`input[name="name"]`).SetValue("")

	submitButton(doc).Click()

	assert.Equal(t, []string{"Пожалуйста, укажите ваше имя (минимум 2 символа)"}, doc.Alerts())
	assert.Empty(t, notifier.calls())
	assert.Equal(t, application.StateIdle, page.pipeline.State())
	assert.False(t, submitButton(doc).Disabled())
	assert.Equal(t, "none", doc.GetElementByID("successMessage").Style("display"))
}

func TestSubmitWithoutRoleAlerts(t *testing.T) {
	notifier := &stubNotifier{}
	doc, _ := mount(t, notifier)
	doc.Query(`input[name="name"]`).SetValue("Мария")

	submitButton(doc).Click()
	assert.Equal(t, []string{"Пожалуйста, выберите вашу роль (Студент, Родитель или Компания)"}, doc.Alerts())
	assert.Empty(t, notifier.calls())
}

func TestHoneypotIsRejectedAsBot(t *testing.T) {
	notifier := &stubNotifier{}
	doc, _ := mount(t, notifier)
	fill(doc)
	doc.Query(`input[name="website"]`).SetValue("http://spam.example")

	submitButton(doc).Click()
	assert.Equal(t, []string{"Проверка на бота не пройдена. Пожалуйста, попробуйте еще раз."}, doc.Alerts())
	assert.Empty(t, notifier.calls())
}

func TestSuccessfulSubmitShowsSuccessPanel(t *testing.T) {
	notifier := &stubNotifier{}
	doc, page := mount(t, notifier)
	fill(doc)

	submitButton(doc).Click()

	require.Len(t, notifier.calls(), 1)
	rec := notifier.calls()[0]
	assert.Equal(t, "Мария", rec.Name)
	assert.Equal(t, "maria@example.com", rec.Email)
	assert.Equal(t, domain.RoleParent, rec.Role)
	assert.Equal(t, "Ищу стажировку для сына", rec.Description)
	assert.True(t, rec.Human)
	assert.Equal(t, "test-agent", rec.UserAgent)
	assert.Equal(t, "https://mamahr.example/", rec.URL)

	assert.Empty(t, doc.Alerts())
	assert.Equal(t, "none", doc.GetElementByID("waitlistForm").Style("display"))
	success := doc.GetElementByID("successMessage")
	assert.Equal(t, "block", success.Style("display"))
	assert.Equal(t, "#42", doc.GetElementByID("positionNumber").Text())
	assert.Equal(t, success, doc.ScrolledTo())
	assert.True(t, submitButton(doc).Disabled())

	outcome, ok := page.LastOutcome()
	require.True(t, ok)
	assert.Equal(t, application.StateSuccess, outcome.State)
	assert.Equal(t, 42, outcome.Position)
}

func TestDispatchFailureRestoresButton(t *testing.T) {
	notifier := &stubNotifier{err: errors.New("boom")}
	doc, page := mount(t, notifier)
	fill(doc)

	submitButton(doc).Click()

	assert.Equal(t, []string{application.DispatchFailedMessage}, doc.Alerts())
	btn := submitButton(doc)
	assert.False(t, btn.Disabled())
	assert.Equal(t, "inline", btn.Query(".btn-text").Style("display"))
	assert.Equal(t, "none", btn.Query(".btn-loader").Style("display"))
	assert.Equal(t, "", doc.GetElementByID("waitlistForm").Style("display"))
	assert.Equal(t, application.StateIdle, page.pipeline.State())

	// A retry after the failure dispatches again.
	notifier.mu.Lock()
	notifier.err = nil
	notifier.mu.Unlock()
	btn.Click()
	assert.Len(t, notifier.calls(), 2)
	assert.Equal(t, "block", doc.GetElementByID("successMessage").Style("display"))
}

func TestDisabledButtonPreventsDuplicateDispatch(t *testing.T) {
	notifier := &stubNotifier{gate: make(chan struct{})}
	doc, _ := mount(t, notifier)
	fill(doc)

	done := make(chan struct{})
	go func() {
		submitButton(doc).Click()
		close(done)
	}()

	btn := submitButton(doc)
	require.Eventually(t, btn.Disabled, time.Second, time.Millisecond)
	assert.Equal(t, "none", btn.Query(".btn-text").Style("display"))
	assert.Equal(t, "inline", btn.Query(".btn-loader").Style("display"))

	btn.Click()
	close(notifier.gate)
	<-done
	assert.Len(t, notifier.calls(), 1)
}

func TestRoleAndHumanCheckVisuals(t *testing.T) {
	doc, _ := mount(t, &stubNotifier{})
	student := doc.Query(`.btn-role[data-role="student"]`)
	company := doc.Query(`.btn-role[data-role="company"]`)
	human := doc.Query(".human-check")

	assert.False(t, human.HasClass("checked"))
	student.Click()
	assert.True(t, student.HasClass("active"))
	company.Click()
	assert.False(t, student.HasClass("active"))
	assert.True(t, company.HasClass("active"))

	human.Click()
	assert.True(t, human.HasClass("checked"))
	assert.True(t, doc.GetElementByID("human").Checked())
	human.Click()
	assert.False(t, human.HasClass("checked"))
}

func TestInlineFieldValidation(t *testing.T) {
	doc, _ := mount(t, &stubNotifier{})
	email := doc.Query(`input[name="email"]`)
	group := email.Parent()

	email.SetValue("a@b")
	email.Dispatch("blur")
	require.True(t, email.HasClass("error"))
	msg := group.Query(".field-error")
	require.NotNil(t, msg)
	assert.Equal(t, "Введите корректный email", msg.Text())
	assert.Equal(t, "#EF4444", msg.Style("color"))
	assert.Equal(t, "600", msg.Style("font-weight"))

	// Typing revalidates only while the field is in error.
	email.SetValue("a@b.c")
	email.Dispatch("input")
	assert.False(t, email.HasClass("error"))
	assert.Nil(t, group.Query(".field-error"))

	email.SetValue("bad")
	email.Dispatch("input")
	assert.Nil(t, group.Query(".field-error"))

	name := doc.Query(`input[name="name"]`)
	name.SetValue("A")
	name.Dispatch("blur")
	assert.Equal(t, "Имя должно содержать минимум 2 символа", name.Parent().Query(".field-error").Text())
	name.SetValue("Ann")
	name.Dispatch("blur")
	assert.Nil(t, name.Parent().Query(".field-error"))
}

func TestScrollButtons(t *testing.T) {
	doc, page := mount(t, &stubNotifier{})

	doc.Query(`[data-action="scroll-about"]`).Click()
	assert.Equal(t, doc.Query(".about"), doc.ScrolledTo())
	doc.Query(`[data-action="scroll-waitlist"]`).Click()
	assert.Equal(t, doc.GetElementByID("waitlist"), doc.ScrolledTo())

	page.ScrollToAbout()
	assert.Equal(t, doc.Query(".about"), doc.ScrolledTo())
}

func TestMountStartsEffects(t *testing.T) {
	doc, err := dom.Parse(bytes.NewReader(web.IndexHTML))
	require.NoError(t, err)
	clock := clockwork.NewFakeClock()
	vp := dom.NewViewport(800)

	page, err := Mount(context.Background(), doc, Options{
		Pipeline: application.NewPipeline(application.PipelineConfig{Notifier: &stubNotifier{}, Logger: zerolog.Nop()}),
		Viewport: vp,
		Clock:    clock,
		Rand:     rand.New(rand.NewSource(3)),
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	defer page.Close()

	particles := doc.GetElementByID("particles")
	require.Eventually(t, func() bool {
		return len(particles.Children()) == 50
	}, time.Second, time.Millisecond)

	assert.Equal(t, "0.5s", doc.QueryAll(".card-preview")[1].Style("animation-delay"))
	assert.Equal(t, "0", doc.Query(".step-card").Style("opacity"))

	vp.Scroll(200)
	assert.Equal(t, "translateY(-100px)", doc.Query(".animated-bg").Style("transform"))
	assert.Equal(t, "translateY(-30px)", doc.Query(".hero-visual").Style("transform"))
}
