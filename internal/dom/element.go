package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type node struct {
	page *Page
	n    *html.Node
}

func (e *node) sel() *goquery.Selection {
	return goquery.NewDocumentFromNode(e.n).Selection
}

func (e *node) Tag() string {
	return e.n.Data
}

func (e *node) ID() string {
	v, _ := e.Attr("id")
	return v
}

func (e *node) Attr(name string) (string, bool) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return getAttr(e.n, name)
}

func (e *node) SetAttr(name, value string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	setAttr(e.n, name, value)
}

func (e *node) RemoveAttr(name string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	removeAttr(e.n, name)
}

func (e *node) HasClass(name string) bool {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	for _, c := range classes(e.n) {
		if c == name {
			return true
		}
	}
	return false
}

func (e *node) AddClass(names ...string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	current := classes(e.n)
	for _, name := range names {
		found := false
		for _, c := range current {
			if c == name {
				found = true
				break
			}
		}
		if !found && name != "" {
			current = append(current, name)
		}
	}
	setAttr(e.n, "class", strings.Join(current, " "))
}

func (e *node) RemoveClass(names ...string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	current := classes(e.n)
	kept := current[:0]
	for _, c := range current {
		drop := false
		for _, name := range names {
			if c == name {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		removeAttr(e.n, "class")
		return
	}
	setAttr(e.n, "class", strings.Join(kept, " "))
}

func (e *node) Style(prop string) string {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	css, _ := getAttr(e.n, "style")
	prop = strings.ToLower(strings.TrimSpace(prop))
	for _, d := range parseStyle(css) {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

func (e *node) SetStyle(prop, value string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	css, _ := getAttr(e.n, "style")
	decls := setDecl(parseStyle(css), strings.ToLower(strings.TrimSpace(prop)), strings.TrimSpace(value))
	e.writeStyle(decls)
}

func (e *node) SetCSSText(css string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.writeStyle(parseStyle(css))
}

func (e *node) writeStyle(decls []styleDecl) {
	if formatted := formatStyle(decls); formatted != "" {
		setAttr(e.n, "style", formatted)
		return
	}
	removeAttr(e.n, "style")
}

func (e *node) Text() string {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.sel().Text()
}

func (e *node) SetText(text string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.setText(text)
}

func (e *node) setText(text string) {
	for c := e.n.FirstChild; c != nil; c = e.n.FirstChild {
		e.n.RemoveChild(c)
	}
	if text != "" {
		e.n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// Value reads the form value: textarea content, otherwise the value attribute.
func (e *node) Value() string {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.n.Data == "textarea" {
		return e.sel().Text()
	}
	v, _ := getAttr(e.n, "value")
	return v
}

func (e *node) SetValue(value string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.n.Data == "textarea" {
		e.setText(value)
		return
	}
	setAttr(e.n, "value", value)
}

func (e *node) Checked() bool {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	_, ok := getAttr(e.n, "checked")
	return ok
}

// SetChecked also unchecks the other radios of the same group.
func (e *node) SetChecked(checked bool) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.setChecked(checked)
}

func (e *node) setChecked(checked bool) {
	if !checked {
		removeAttr(e.n, "checked")
		return
	}
	if typ, _ := getAttr(e.n, "type"); strings.EqualFold(typ, "radio") {
		if name, ok := getAttr(e.n, "name"); ok && name != "" {
			for _, other := range e.page.doc.Selection.Find(`input[type="radio"]`).Nodes {
				if other == e.n {
					continue
				}
				if otherName, _ := getAttr(other, "name"); otherName == name {
					removeAttr(other, "checked")
				}
			}
		}
	}
	setAttr(e.n, "checked", "")
}

func (e *node) Disabled() bool {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	_, ok := getAttr(e.n, "disabled")
	return ok
}

func (e *node) SetDisabled(disabled bool) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if disabled {
		setAttr(e.n, "disabled", "")
		return
	}
	removeAttr(e.n, "disabled")
}

func (e *node) Parent() Element {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.page.wrap(p)
}

func (e *node) Children() []Element {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	var out []Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.page.wrap(c))
		}
	}
	return out
}

func (e *node) Closest(selector string) Element {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.page.first(e.sel().Closest(selector))
}

func (e *node) Query(selector string) Element {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.page.first(e.sel().Find(selector))
}

func (e *node) QueryAll(selector string) []Element {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.page.all(e.sel().Find(selector))
}

// AppendChild moves child under e. Elements from another Page are ignored.
func (e *node) AppendChild(child Element) {
	c, ok := child.(*node)
	if !ok || c.page != e.page {
		return
	}
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if c.n.Parent != nil {
		c.n.Parent.RemoveChild(c.n)
	}
	e.n.AppendChild(c.n)
}

func (e *node) Remove() {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.n.Parent != nil {
		e.n.Parent.RemoveChild(e.n)
	}
}

func (e *node) AddEventListener(eventType string, fn Listener) {
	if fn == nil {
		return
	}
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	byType := e.page.listeners[e.n]
	if byType == nil {
		byType = make(map[string][]Listener)
		e.page.listeners[e.n] = byType
	}
	byType[eventType] = append(byType[eventType], fn)
}

// Dispatch runs listeners on e and then on each ancestor. Listeners run
// without the page lock held.
func (e *node) Dispatch(eventType string) *Event {
	ev := &Event{Type: eventType, Target: e}

	e.page.mu.Lock()
	var chain [][]Listener
	for n := e.n; n != nil; n = n.Parent {
		if ls := e.page.listeners[n][eventType]; len(ls) > 0 {
			chain = append(chain, append([]Listener(nil), ls...))
		}
	}
	e.page.mu.Unlock()

	for _, ls := range chain {
		for _, fn := range ls {
			fn(ev)
		}
		if ev.stopped {
			break
		}
	}
	return ev
}

func (e *node) Click() {
	if e.Disabled() {
		return
	}
	ev := e.Dispatch("click")
	if ev.DefaultPrevented() {
		return
	}

	switch {
	case e.isInput("checkbox"):
		e.SetChecked(!e.Checked())
		e.Dispatch("change")
	case e.isInput("radio"):
		if !e.Checked() {
			e.SetChecked(true)
			e.Dispatch("change")
		}
	case e.isSubmitButton():
		if form := e.Closest("form"); form != nil {
			form.Dispatch("submit")
		}
	default:
		if label := e.Closest("label"); label != nil {
			if control := label.(*node).labelControl(); control != nil && control != e {
				control.Click()
			}
		}
	}
}

func (e *node) labelControl() *node {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if target, ok := getAttr(e.n, "for"); ok && target != "" {
		var found *html.Node
		e.page.doc.Selection.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if v, _ := s.Attr("id"); v == target {
				found = s.Nodes[0]
				return false
			}
			return true
		})
		if found != nil {
			return e.page.wrap(found)
		}
	}
	sel := e.sel().Find("input, textarea, select, button")
	if sel.Length() == 0 {
		return nil
	}
	return e.page.wrap(sel.Nodes[0])
}

func (e *node) isInput(kind string) bool {
	if e.n.Data != "input" {
		return false
	}
	typ, _ := e.Attr("type")
	return strings.EqualFold(typ, kind)
}

func (e *node) isSubmitButton() bool {
	typ, ok := e.Attr("type")
	switch e.n.Data {
	case "button":
		return !ok || strings.EqualFold(typ, "submit")
	case "input":
		return strings.EqualFold(typ, "submit")
	}
	return false
}

func (e *node) ScrollIntoView() {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.page.scrolled = e.n
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func classes(n *html.Node) []string {
	v, _ := getAttr(n, "class")
	return strings.Fields(v)
}
