package effects

import "github.com/mamahr/waitlist/internal/dom"

const (
	BackgroundRate = -0.5
	VisualRate     = 0.3
)

// Parallax shifts the hero background at half the scroll speed and the hero
// visual at 0.3 of that.
func Parallax(doc dom.Document, vp *dom.Viewport) {
	bg := doc.Query(".animated-bg")
	visual := doc.Query(".hero-visual")
	vp.OnScroll(func(y float64) {
		rate := y * BackgroundRate
		if bg != nil {
			bg.SetStyle("transform", translateY(rate))
		}
		if visual != nil {
			visual.SetStyle("transform", translateY(rate*VisualRate))
		}
	})
}
