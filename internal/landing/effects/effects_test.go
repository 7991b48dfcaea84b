package effects

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamahr/waitlist/internal/dom"
)

const page = `<div id="particles"></div>
<section class="hero">
  <div class="animated-bg"></div>
  <span class="stat-number" data-target="36">0</span>
  <span class="stat-number" data-target="100">0</span>
  <span class="stat-number" data-target="oops">0</span>
  <div class="hero-visual"><div class="floating-cards">
    <div class="card-preview"></div><div class="card-preview"></div><div class="card-preview"></div>
  </div></div>
</section>
<section class="about">
  <h2 class="section-title">About</h2>
  <div class="step-card" id="s1"></div>
  <div class="step-card" id="s2"></div>
</section>`

func parsePage(t *testing.T) *dom.Page {
	t.Helper()
	p, err := dom.ParseString(page)
	require.NoError(t, err)
	return p
}

func cssNumber(t *testing.T, el dom.Element, prop, unit string) float64 {
	t.Helper()
	raw := el.Style(prop)
	require.True(t, strings.HasSuffix(raw, unit), "%s=%q", prop, raw)
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, unit), 64)
	require.NoError(t, err)
	return v
}

func TestParticleFieldLifecycle(t *testing.T) {
	doc := parsePage(t)
	container := doc.GetElementByID("particles")
	clock := clockwork.NewFakeClock()
	field := NewParticleField(doc, container, clock, ParticleOptions{
		Count: 5,
		Rand:  rand.New(rand.NewSource(1)),
	})

	tasks := NewTasks(context.Background())
	defer tasks.Close()
	require.True(t, tasks.Go(field.Run))

	require.Eventually(t, func() bool { return len(container.Children()) == 5 }, time.Second, time.Millisecond)
	initial := container.Children()
	for _, p := range initial {
		assert.True(t, p.HasClass(ParticleClass))
		size := cssNumber(t, p, "width", "px")
		assert.GreaterOrEqual(t, size, 2.0)
		assert.Less(t, size, 6.0)
		assert.Equal(t, p.Style("width"), p.Style("height"))
		left := cssNumber(t, p, "left", "%")
		assert.GreaterOrEqual(t, left, 0.0)
		assert.Less(t, left, 100.0)
		d := cssNumber(t, p, "animation-duration", "s")
		assert.GreaterOrEqual(t, d, 15.0)
		assert.Less(t, d, 25.0)
		delay := cssNumber(t, p, "animation-delay", "s")
		assert.Less(t, delay, 20.0)
	}

	// Every particle outlives 15s and none outlives 45s.
	clock.Advance(14 * time.Second)
	assert.Len(t, container.Children(), 5)

	clock.Advance(31 * time.Second)
	require.Eventually(t, func() bool {
		for _, p := range initial {
			if p.Parent() != nil {
				return false
			}
		}
		return true
	}, time.Second, time.Millisecond)

	clock.Advance(DefaultParticleInterval)
	require.Eventually(t, func() bool { return len(container.Children()) >= 1 }, time.Second, time.Millisecond)
}

func TestParticleFieldNeverExceedsCount(t *testing.T) {
	doc := parsePage(t)
	container := doc.GetElementByID("particles")
	clock := clockwork.NewFakeClock()
	field := NewParticleField(doc, container, clock, ParticleOptions{Count: 3, Rand: rand.New(rand.NewSource(7))})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		field.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(container.Children()) == 3 }, time.Second, time.Millisecond)
	for i := 0; i < 5; i++ {
		clock.Advance(DefaultParticleInterval)
	}
	assert.Len(t, container.Children(), 3)

	cancel()
	<-done
}

func TestCounterStep(t *testing.T) {
	doc, err := dom.ParseString(`<span class="stat-number" data-target="996">0</span>`)
	require.NoError(t, err)
	c, err := NewCounter(doc.Query(".stat-number"))
	require.NoError(t, err)

	var seen []string
	for i := 0; i < 3; i++ {
		assert.False(t, c.Step())
		seen = append(seen, doc.Query(".stat-number").Text())
	}
	assert.Equal(t, []string{"5", "10", "15"}, seen)

	doc.Query(".stat-number").SetText("995")
	assert.False(t, c.Step())
	assert.Equal(t, "1000", doc.Query(".stat-number").Text())
	assert.True(t, c.Step())
	assert.Equal(t, "996", doc.Query(".stat-number").Text())
}

func TestNewCounterRejectsBadTarget(t *testing.T) {
	doc := parsePage(t)
	_, err := NewCounter(doc.QueryAll(".stat-number")[2])
	assert.Error(t, err)
	_, err = NewCounter(doc.Query(".hero"))
	assert.Error(t, err)
}

func TestCounterRunStopsOnCancel(t *testing.T) {
	doc, err := dom.ParseString(`<span class="stat-number" data-target="996">0</span>`)
	require.NoError(t, err)
	c, err := NewCounter(doc.Query(".stat-number"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Run(ctx, clockwork.NewFakeClock()), context.Canceled)
	assert.Equal(t, "5", doc.Query(".stat-number").Text())
}

func TestCountersStartWhenHeroVisible(t *testing.T) {
	doc := parsePage(t)
	vp := dom.NewViewport(800)
	tasks := NewTasks(context.Background())
	defer tasks.Close()

	Counters(doc, vp, clockwork.NewRealClock(), tasks, zerolog.Nop())
	stats := doc.QueryAll(".stat-number")
	assert.Equal(t, "0", stats[0].Text())

	vp.SetBox(doc.Query(".hero"), dom.Box{Top: 0, Height: 600})
	require.Eventually(t, func() bool {
		return stats[0].Text() == "36" && stats[1].Text() == "100"
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "0", stats[2].Text())

	// Counters run once.
	stats[0].SetText("1")
	vp.Scroll(5000)
	vp.Scroll(0)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, "1", stats[0].Text())
}

func TestRevealAndStepCards(t *testing.T) {
	doc := parsePage(t)
	vp := dom.NewViewport(800)
	title := doc.Query(".section-title")
	s1, s2 := doc.GetElementByID("s1"), doc.GetElementByID("s2")
	vp.SetBox(title, dom.Box{Top: 600, Height: 50})
	vp.SetBox(s1, dom.Box{Top: 720, Height: 100})
	vp.SetBox(s2, dom.Box{Top: 1000, Height: 100})

	Reveal(doc, vp)
	StepCards(doc, vp)

	assert.True(t, title.HasClass(RevealClass))
	// s1 overlaps 0..750 by 30px, enough for the -50px margin but not -100px.
	assert.False(t, s1.HasClass(RevealClass))
	assert.Equal(t, "1", s1.Style("opacity"))
	assert.Equal(t, "translateY(0)", s1.Style("transform"))
	assert.Equal(t, "0", s2.Style("opacity"))
	assert.Equal(t, "translateY(20px)", s2.Style("transform"))
	assert.Equal(t, "opacity 0.6s ease, transform 0.6s ease", s2.Style("transition"))

	vp.Scroll(800)
	assert.True(t, s1.HasClass(RevealClass))
	assert.True(t, s2.HasClass(RevealClass))
	assert.Equal(t, "1", s2.Style("opacity"))

	vp.Scroll(5000)
	assert.True(t, s2.HasClass(RevealClass))
}

func TestParallax(t *testing.T) {
	doc := parsePage(t)
	vp := dom.NewViewport(800)
	Parallax(doc, vp)

	vp.Scroll(100)
	assert.Equal(t, "translateY(-50px)", doc.Query(".animated-bg").Style("transform"))
	assert.Equal(t, "translateY(-15px)", doc.Query(".hero-visual").Style("transform"))

	vp.Scroll(0)
	assert.Equal(t, "translateY(0px)", doc.Query(".animated-bg").Style("transform"))
	assert.Equal(t, "translateY(0px)", doc.Query(".hero-visual").Style("transform"))
}

func TestHero(t *testing.T) {
	doc := parsePage(t)
	Hero(doc)

	var delays []string
	for _, c := range doc.QueryAll(".card-preview") {
		delays = append(delays, c.Style("animation-delay"))
	}
	assert.Equal(t, []string{"0s", "0.5s", "1s"}, delays)
	assert.Equal(t, FloatAnimation, doc.Query(".floating-cards").Style("animation"))
}

func TestTasksRefuseAfterClose(t *testing.T) {
	tasks := NewTasks(context.Background())
	stopped := make(chan struct{})
	require.True(t, tasks.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	}))
	tasks.Close()
	<-stopped
	assert.False(t, tasks.Go(func(context.Context) {}))
}
