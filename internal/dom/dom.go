// Package dom is the UI port of the landing page: the small slice of the
// browser DOM the page logic needs, plus a goquery-backed implementation that
// runs without a browser.
package dom

// Listener handles a dispatched event.
type Listener func(*Event)

// Event is a dispatched DOM event. Events bubble from the target to the root.
type Event struct {
	Type   string
	Target Element

	defaultPrevented bool
	stopped          bool
}

// PreventDefault suppresses the default action of Click.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// StopPropagation keeps the event from reaching ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Element is one node of the page. Methods returning Element return a nil
// interface when nothing matches.
type Element interface {
	Tag() string
	ID() string

	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)

	HasClass(name string) bool
	AddClass(names ...string)
	RemoveClass(names ...string)

	Style(prop string) string
	SetStyle(prop, value string)
	SetCSSText(css string)

	Text() string
	SetText(text string)
	Value() string
	SetValue(value string)
	Checked() bool
	SetChecked(checked bool)
	Disabled() bool
	SetDisabled(disabled bool)

	Parent() Element
	Children() []Element
	Closest(selector string) Element
	Query(selector string) Element
	QueryAll(selector string) []Element
	AppendChild(child Element)
	Remove()

	AddEventListener(eventType string, fn Listener)
	Dispatch(eventType string) *Event
	// Click dispatches "click" and then runs the browser default action:
	// toggling checkboxes, selecting radios, activating a label's control
	// and submitting the enclosing form from a submit button.
	Click()
	ScrollIntoView()
}

// Document is the page-level capability set.
type Document interface {
	Query(selector string) Element
	QueryAll(selector string) []Element
	GetElementByID(id string) Element
	CreateElement(tag string) Element
	// Alert shows a blocking message.
	Alert(message string)
}
