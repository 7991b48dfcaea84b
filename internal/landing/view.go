package landing

import (
	"strconv"

	"github.com/mamahr/waitlist/internal/dom"
)

// domView renders pipeline state onto the waitlist section of the page.
type domView struct {
	doc      dom.Document
	form     dom.Element
	success  dom.Element
	position dom.Element
}

func (v *domView) Alert(message string) {
	v.doc.Alert(message)
}

func (v *domView) SetLoading(loading bool) {
	button := v.form.Query(`button[type="submit"]`)
	if button == nil {
		return
	}
	button.SetDisabled(loading)
	text, loader := "inline", "none"
	if loading {
		text, loader = "none", "inline"
	}
	if el := button.Query(".btn-text"); el != nil {
		el.SetStyle("display", text)
	}
	if el := button.Query(".btn-loader"); el != nil {
		el.SetStyle("display", loader)
	}
}

func (v *domView) ShowSuccess(position int) {
	if v.position != nil {
		v.position.SetText("#" + strconv.Itoa(position))
	}
	v.form.SetStyle("display", "none")
	if v.success != nil {
		v.success.SetStyle("display", "block")
		v.success.ScrollIntoView()
	}
}
