package effects

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mamahr/waitlist/internal/dom"
)

const (
	DefaultParticleCount    = 50
	DefaultParticleInterval = 3 * time.Second
	ParticleClass           = "particle"
)

type ParticleOptions struct {
	// Count bounds the number of live particles.
	Count    int
	Interval time.Duration
	Rand     *rand.Rand
	Logger   zerolog.Logger
}

// ParticleField keeps a bounded pool of short-lived particles in a container.
type ParticleField struct {
	doc       dom.Document
	container dom.Element
	clock     clockwork.Clock
	count     int
	interval  time.Duration
	logger    zerolog.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	timers map[dom.Element]clockwork.Timer
}

func NewParticleField(doc dom.Document, container dom.Element, clock clockwork.Clock, opts ParticleOptions) *ParticleField {
	if opts.Count <= 0 {
		opts.Count = DefaultParticleCount
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultParticleInterval
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}
	return &ParticleField{
		doc:       doc,
		container: container,
		clock:     clock,
		count:     opts.Count,
		interval:  opts.Interval,
		logger:    opts.Logger,
		rng:       opts.Rand,
		timers:    make(map[dom.Element]clockwork.Timer),
	}
}

// Run fills the pool and then tops it up by one particle per interval until
// ctx is cancelled. Pending removals are stopped on return.
func (f *ParticleField) Run(ctx context.Context) {
	if f.container == nil {
		return
	}
	for i := 0; i < f.count; i++ {
		f.spawn()
	}
	f.logger.Debug().Int("count", f.count).Msg("particles spawned")

	ticker := f.clock.NewTicker(f.interval)
	defer ticker.Stop()
	defer f.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if len(f.container.Children()) < f.count {
				f.spawn()
			}
		}
	}
}

func (f *ParticleField) spawn() {
	f.mu.Lock()
	size := f.rng.Float64()*4 + 2
	left := f.rng.Float64() * 100
	delay := f.rng.Float64() * 20
	duration := f.rng.Float64()*10 + 15
	f.mu.Unlock()

	p := f.doc.CreateElement("div")
	p.SetAttr("class", ParticleClass)
	p.SetCSSText(
		"width: " + num(size) + "px;" +
			"height: " + num(size) + "px;" +
			"left: " + num(left) + "%;" +
			"animation-duration: " + num(duration) + "s;" +
			"animation-delay: " + num(delay) + "s;",
	)

	lifetime := time.Duration((duration + delay) * float64(time.Second))
	timer := f.clock.AfterFunc(lifetime, func() {
		f.mu.Lock()
		delete(f.timers, p)
		f.mu.Unlock()
		p.Remove()
	})
	f.mu.Lock()
	f.timers[p] = timer
	f.mu.Unlock()

	f.container.AppendChild(p)
}

func (f *ParticleField) stopTimers() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for p, t := range f.timers {
		t.Stop()
		delete(f.timers, p)
	}
}
