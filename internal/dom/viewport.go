package dom

import (
	"slices"
	"sync"
)

// Box is the vertical layout of an element in page coordinates.
type Box struct {
	Top    float64
	Height float64
}

// Margin grows (positive) or shrinks (negative) the observer root.
type Margin struct {
	Top    float64
	Bottom float64
}

// ObserverOptions mirrors the IntersectionObserver init dictionary.
type ObserverOptions struct {
	Threshold  float64
	RootMargin Margin
}

// IntersectionEntry reports a target crossing the observer threshold.
type IntersectionEntry struct {
	Target         Element
	IsIntersecting bool
	Ratio          float64
}

// Viewport models the window: its height, the scroll offset and the layout
// boxes the page has been given. Elements without a box never intersect.
type Viewport struct {
	mu        sync.Mutex
	height    float64
	scrollY   float64
	boxes     map[Element]Box
	onScroll  []func(y float64)
	observers []*IntersectionObserver
}

func NewViewport(height float64) *Viewport {
	return &Viewport{height: height, boxes: make(map[Element]Box)}
}

// SetBox places el and re-evaluates every observer.
func (v *Viewport) SetBox(el Element, box Box) {
	v.mu.Lock()
	v.boxes[el] = box
	v.mu.Unlock()
	v.notify()
}

func (v *Viewport) ScrollY() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollY
}

// Scroll moves the window to y, fires scroll listeners and then delivers
// intersection changes.
func (v *Viewport) Scroll(y float64) {
	v.mu.Lock()
	v.scrollY = y
	listeners := slices.Clone(v.onScroll)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(y)
	}
	v.notify()
}

func (v *Viewport) OnScroll(fn func(y float64)) {
	if fn == nil {
		return
	}
	v.mu.Lock()
	v.onScroll = append(v.onScroll, fn)
	v.mu.Unlock()
}

// NewIntersectionObserver registers cb for changes on observed targets.
func (v *Viewport) NewIntersectionObserver(cb func([]IntersectionEntry), opts ObserverOptions) *IntersectionObserver {
	o := &IntersectionObserver{
		viewport: v,
		cb:       cb,
		opts:     opts,
		state:    make(map[Element]bool),
	}
	v.mu.Lock()
	v.observers = append(v.observers, o)
	v.mu.Unlock()
	return o
}

func (v *Viewport) notify() {
	v.mu.Lock()
	observers := append([]*IntersectionObserver(nil), v.observers...)
	v.mu.Unlock()
	for _, o := range observers {
		o.deliver(o.changes(nil))
	}
}

func (v *Viewport) entry(el Element, opts ObserverOptions) IntersectionEntry {
	box, ok := v.boxes[el]
	if !ok {
		return IntersectionEntry{Target: el}
	}
	rootTop := v.scrollY - opts.RootMargin.Top
	rootBottom := v.scrollY + v.height + opts.RootMargin.Bottom

	top, bottom := box.Top, box.Top+box.Height
	if box.Height <= 0 {
		in := top >= rootTop && top <= rootBottom
		ratio := 0.0
		if in {
			ratio = 1
		}
		return IntersectionEntry{Target: el, IsIntersecting: in, Ratio: ratio}
	}
	overlap := min(bottom, rootBottom) - max(top, rootTop)
	if overlap <= 0 {
		return IntersectionEntry{Target: el}
	}
	ratio := overlap / box.Height
	return IntersectionEntry{Target: el, IsIntersecting: ratio >= opts.Threshold, Ratio: ratio}
}

// IntersectionObserver delivers an initial entry on Observe and afterwards
// only when a target's intersecting state flips.
type IntersectionObserver struct {
	viewport *Viewport
	cb       func([]IntersectionEntry)
	opts     ObserverOptions

	mu      sync.Mutex
	order   []Element
	state   map[Element]bool
	stopped bool
}

func (o *IntersectionObserver) Observe(el Element) {
	if el == nil {
		return
	}
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	if _, ok := o.state[el]; ok {
		o.mu.Unlock()
		return
	}
	o.order = append(o.order, el)
	o.mu.Unlock()
	o.deliver(o.changes(el))
}

func (o *IntersectionObserver) Unobserve(el Element) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.state, el)
	for i, t := range o.order {
		if t == el {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

func (o *IntersectionObserver) Disconnect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	o.order = nil
	o.state = make(map[Element]bool)
}

// changes computes pending entries; fresh is always reported.
func (o *IntersectionObserver) changes(fresh Element) []IntersectionEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil
	}
	o.viewport.mu.Lock()
	defer o.viewport.mu.Unlock()

	var out []IntersectionEntry
	for _, el := range o.order {
		e := o.viewport.entry(el, o.opts)
		prev, seen := o.state[el]
		if el == fresh || !seen || prev != e.IsIntersecting {
			if !seen && el != fresh {
				// Observed concurrently; its own Observe call reports it.
				continue
			}
			o.state[el] = e.IsIntersecting
			out = append(out, e)
		}
	}
	return out
}

func (o *IntersectionObserver) deliver(entries []IntersectionEntry) {
	if len(entries) == 0 || o.cb == nil {
		return
	}
	o.cb(entries)
}
