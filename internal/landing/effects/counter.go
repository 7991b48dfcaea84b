package effects

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mamahr/waitlist/internal/dom"
)

const (
	// CounterSpeed is the number of ticks a counter takes from zero to target.
	CounterSpeed = 200
	CounterTick  = time.Millisecond
)

// Counter animates a .stat-number element toward its data-target.
type Counter struct {
	el     dom.Element
	target int
}

func NewCounter(el dom.Element) (*Counter, error) {
	raw, ok := el.Attr("data-target")
	if !ok {
		return nil, fmt.Errorf("counter: missing data-target")
	}
	target, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("counter: data-target %q: %w", raw, err)
	}
	return &Counter{el: el, target: target}, nil
}

func (c *Counter) Target() int {
	return c.target
}

// Step advances the displayed value once and reports whether the target
// has been reached.
func (c *Counter) Step() bool {
	count := digits(c.el.Text())
	if count < c.target {
		next := int(math.Ceil(float64(count) + float64(c.target)/CounterSpeed))
		c.el.SetText(strconv.Itoa(next))
		return false
	}
	c.el.SetText(strconv.Itoa(c.target))
	return true
}

// Run steps the counter once per CounterTick until it finishes or ctx ends.
func (c *Counter) Run(ctx context.Context, clock clockwork.Clock) error {
	for !c.Step() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(CounterTick):
		}
	}
	return nil
}

func digits(text string) int {
	n := 0
	for _, r := range text {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
		}
	}
	return n
}

// Counters starts every .stat-number counter the first time .hero becomes
// visible. Counter goroutines run on tasks.
func Counters(doc dom.Document, vp *dom.Viewport, clock clockwork.Clock, tasks *Tasks, logger zerolog.Logger) *dom.IntersectionObserver {
	var counters []*Counter
	for _, el := range doc.QueryAll(".stat-number") {
		c, err := NewCounter(el)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping stat counter")
			continue
		}
		counters = append(counters, c)
	}

	var obs *dom.IntersectionObserver
	obs = vp.NewIntersectionObserver(func(entries []dom.IntersectionEntry) {
		for _, e := range entries {
			if !e.IsIntersecting {
				continue
			}
			for _, c := range counters {
				tasks.Go(func(ctx context.Context) {
					_ = c.Run(ctx, clock)
				})
			}
			obs.Unobserve(e.Target)
		}
	}, dom.ObserverOptions{})

	if hero := doc.Query(".hero"); hero != nil {
		obs.Observe(hero)
	}
	return obs
}
