// Package landing mounts the Mama HR landing page behaviour onto a document:
// the waitlist form, its inline validation and visual toggles, and the
// decorative effects.
package landing

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mamahr/waitlist/internal/dom"
	"github.com/mamahr/waitlist/internal/landing/effects"
	"github.com/mamahr/waitlist/internal/waitlist/application"
	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

// DefaultViewportHeight is used when Options.Viewport is nil.
const DefaultViewportHeight = 800

// ErrFormMissing is returned by Mount when the page has no waitlist form.
var ErrFormMissing = errors.New("landing: #waitlistForm not found")

// Options configures Mount.
type Options struct {
	Pipeline *application.Pipeline
	Viewport *dom.Viewport
	Clock    clockwork.Clock
	Rand     *rand.Rand
	Logger   zerolog.Logger
	// Meta is attached to every submission from this page.
	Meta domain.RequestMeta
	// DisableEffects skips particles, counters and other decoration.
	DisableEffects bool
}

// Page is a mounted landing page.
type Page struct {
	doc      dom.Document
	viewport *dom.Viewport
	pipeline *application.Pipeline
	meta     domain.RequestMeta
	logger   zerolog.Logger
	view     *domView
	tasks    *effects.Tasks

	observers []*dom.IntersectionObserver

	mu      sync.Mutex
	ctx     context.Context
	outcome *application.Outcome
}

// Mount attaches listeners and starts the effects. Close stops them.
func Mount(ctx context.Context, doc dom.Document, opts Options) (*Page, error) {
	form := doc.GetElementByID("waitlistForm")
	if form == nil {
		return nil, ErrFormMissing
	}
	if opts.Pipeline == nil {
		return nil, errors.New("landing: pipeline is required")
	}
	if opts.Viewport == nil {
		opts.Viewport = dom.NewViewport(DefaultViewportHeight)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	p := &Page{
		doc:      doc,
		viewport: opts.Viewport,
		pipeline: opts.Pipeline,
		meta:     opts.Meta,
		logger:   opts.Logger.With().Str("component", "landing").Logger(),
		view: &domView{
			doc:      doc,
			form:     form,
			success:  doc.GetElementByID("successMessage"),
			position: doc.GetElementByID("positionNumber"),
		},
		tasks: effects.NewTasks(ctx),
		ctx:   ctx,
	}

	if !opts.DisableEffects {
		p.mountEffects(opts)
	}
	p.mountRoles()
	p.mountHumanCheck()
	p.mountFieldValidation()
	p.mountScrollButtons()
	form.AddEventListener("submit", p.onSubmit)

	return p, nil
}

func (p *Page) mountEffects(opts Options) {
	if container := p.doc.GetElementByID("particles"); container != nil {
		field := effects.NewParticleField(p.doc, container, opts.Clock, effects.ParticleOptions{
			Rand:   opts.Rand,
			Logger: p.logger,
		})
		p.tasks.Go(field.Run)
	}
	p.observers = append(p.observers,
		effects.Reveal(p.doc, p.viewport),
		effects.Counters(p.doc, p.viewport, opts.Clock, p.tasks, p.logger),
		effects.StepCards(p.doc, p.viewport),
	)
	effects.Hero(p.doc)
	effects.Parallax(p.doc, p.viewport)
}

func (p *Page) mountRoles() {
	radios := p.doc.QueryAll(`input[name="role"]`)
	update := func(*dom.Event) {
		for _, btn := range p.doc.QueryAll(".btn-role") {
			btn.RemoveClass("active")
		}
		for _, radio := range radios {
			if !radio.Checked() {
				continue
			}
			if btn := p.doc.Query(`.btn-role[data-role="` + radio.Value() + `"]`); btn != nil {
				btn.AddClass("active")
			}
		}
	}
	for _, radio := range radios {
		radio.AddEventListener("change", update)
	}
	update(nil)
}

func (p *Page) mountHumanCheck() {
	box := p.doc.GetElementByID("human")
	label := p.doc.Query(".human-check")
	if box == nil || label == nil {
		return
	}
	update := func(*dom.Event) {
		if box.Checked() {
			label.AddClass("checked")
		} else {
			label.RemoveClass("checked")
		}
	}
	box.AddEventListener("change", update)
	update(nil)
}

func (p *Page) mountFieldValidation() {
	for _, input := range p.doc.QueryAll(".form-input") {
		field := input
		field.AddEventListener("blur", func(*dom.Event) {
			validateField(p.doc, field)
		})
		field.AddEventListener("input", func(*dom.Event) {
			if field.HasClass(errorClass) {
				validateField(p.doc, field)
			}
		})
	}
}

func (p *Page) mountScrollButtons() {
	for _, btn := range p.doc.QueryAll("[data-action]") {
		action, _ := btn.Attr("data-action")
		switch action {
		case "scroll-waitlist":
			btn.AddEventListener("click", func(*dom.Event) { p.ScrollToWaitlist() })
		case "scroll-about":
			btn.AddEventListener("click", func(*dom.Event) { p.ScrollToAbout() })
		}
	}
}

func (p *Page) onSubmit(e *dom.Event) {
	e.PreventDefault()
	input := readForm(p.doc, p.view.form)

	outcome, err := p.pipeline.Submit(p.ctx, input, p.meta, p.view)
	if err != nil {
		p.logger.Warn().Err(err).Msg("submit ignored")
		return
	}
	switch outcome.State {
	case application.StateSuccess:
		p.logger.Info().Int("position", outcome.Position).Int("channels", len(outcome.Results)).Msg("waitlist signup sent")
	case application.StateError:
		p.logger.Error().Err(outcome.Err).Msg("waitlist signup failed")
	}
	p.mu.Lock()
	p.outcome = &outcome
	p.mu.Unlock()
}

// LastOutcome returns the result of the most recent completed submit.
func (p *Page) LastOutcome() (application.Outcome, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.outcome == nil {
		return application.Outcome{}, false
	}
	return *p.outcome, true
}

func (p *Page) Viewport() *dom.Viewport {
	return p.viewport
}

func (p *Page) ScrollToWaitlist() {
	if el := p.doc.GetElementByID("waitlist"); el != nil {
		el.ScrollIntoView()
	}
}

func (p *Page) ScrollToAbout() {
	if el := p.doc.Query(".about"); el != nil {
		el.ScrollIntoView()
	}
}

// Close stops running effects and detaches observers.
func (p *Page) Close() {
	p.tasks.Close()
	for _, o := range p.observers {
		o.Disconnect()
	}
}
