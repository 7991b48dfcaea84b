package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page is a parsed HTML document implementing Document. All access goes
// through one mutex, so timer goroutines may mutate it alongside event handlers.
type Page struct {
	mu        sync.Mutex
	doc       *goquery.Document
	nodes     map[*html.Node]*node
	listeners map[*html.Node]map[string][]Listener
	alerts    []string
	onAlert   func(string)
	scrolled  *html.Node
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{
		doc:       doc,
		nodes:     make(map[*html.Node]*node),
		listeners: make(map[*html.Node]map[string][]Listener),
	}, nil
}

// ParseString is Parse over a string.
func ParseString(markup string) (*Page, error) {
	return Parse(strings.NewReader(markup))
}

// OnAlert registers a hook called for every Alert, outside the page lock.
func (p *Page) OnAlert(fn func(string)) {
	p.mu.Lock()
	p.onAlert = fn
	p.mu.Unlock()
}

func (p *Page) Alert(message string) {
	p.mu.Lock()
	p.alerts = append(p.alerts, message)
	hook := p.onAlert
	p.mu.Unlock()
	if hook != nil {
		hook(message)
	}
}

// Alerts returns every message passed to Alert so far.
func (p *Page) Alerts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.alerts...)
}

// ScrolledTo returns the element last scrolled into view.
func (p *Page) ScrolledTo() Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scrolled == nil {
		return nil
	}
	return p.wrap(p.scrolled)
}

func (p *Page) Query(selector string) Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.first(p.doc.Selection.Find(selector))
}

func (p *Page) QueryAll(selector string) []Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.all(p.doc.Selection.Find(selector))
}

func (p *Page) GetElementByID(id string) Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	var found *html.Node
	p.doc.Selection.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("id"); v == id {
			found = s.Nodes[0]
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return p.wrap(found)
}

func (p *Page) CreateElement(tag string) Element {
	tag = strings.ToLower(strings.TrimSpace(tag))
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wrap(n)
}

// HTML renders the current document.
func (p *Page) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var buf bytes.Buffer
	for _, n := range p.doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func (p *Page) wrap(n *html.Node) *node {
	if w, ok := p.nodes[n]; ok {
		return w
	}
	w := &node{page: p, n: n}
	p.nodes[n] = w
	return w
}

func (p *Page) first(sel *goquery.Selection) Element {
	if sel.Length() == 0 {
		return nil
	}
	return p.wrap(sel.Nodes[0])
}

func (p *Page) all(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	for _, n := range sel.Nodes {
		out = append(out, p.wrap(n))
	}
	return out
}
