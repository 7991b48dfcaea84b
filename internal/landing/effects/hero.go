package effects

import "github.com/mamahr/waitlist/internal/dom"

const (
	CardStagger    = 0.5
	FloatAnimation = "float 3s ease-in-out infinite"
)

// Hero staggers the preview cards and starts the floating animation.
func Hero(doc dom.Document) {
	for i, card := range doc.QueryAll(".card-preview") {
		card.SetStyle("animation-delay", num(float64(i)*CardStagger)+"s")
	}
	if cards := doc.Query(".floating-cards"); cards != nil {
		cards.SetStyle("animation", FloatAnimation)
	}
}
