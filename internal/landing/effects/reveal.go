package effects

import "github.com/mamahr/waitlist/internal/dom"

const (
	RevealSelector = ".step-card, .about h2, .waitlist h2, .waitlist-subtitle, .problem-card, .benefit-card, .section-title"
	RevealClass    = "animate-in"
)

// Reveal adds the animate-in class to section content as it scrolls into view.
func Reveal(doc dom.Document, vp *dom.Viewport) *dom.IntersectionObserver {
	obs := vp.NewIntersectionObserver(func(entries []dom.IntersectionEntry) {
		for _, e := range entries {
			if e.IsIntersecting {
				e.Target.AddClass(RevealClass)
			}
		}
	}, dom.ObserverOptions{Threshold: 0.1, RootMargin: dom.Margin{Bottom: -100}})

	for _, el := range doc.QueryAll(RevealSelector) {
		obs.Observe(el)
	}
	return obs
}

// StepCards hides the step cards until they first enter the viewport.
func StepCards(doc dom.Document, vp *dom.Viewport) *dom.IntersectionObserver {
	obs := vp.NewIntersectionObserver(func(entries []dom.IntersectionEntry) {
		for _, e := range entries {
			if e.IsIntersecting {
				e.Target.SetStyle("opacity", "1")
				e.Target.SetStyle("transform", "translateY(0)")
			}
		}
	}, dom.ObserverOptions{Threshold: 0.1, RootMargin: dom.Margin{Bottom: -50}})

	for _, card := range doc.QueryAll(".step-card") {
		card.SetStyle("opacity", "0")
		card.SetStyle("transform", "translateY(20px)")
		card.SetStyle("transition", "opacity 0.6s ease, transform 0.6s ease")
		obs.Observe(card)
	}
	return obs
}
