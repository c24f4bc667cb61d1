package controller

import (
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	overlayPolicyOnce sync.Once
	overlayPolicy     *bluemonday.Policy
)

// overlaySanitizer allows the handful of tags overlay messages use
func overlaySanitizer() *bluemonday.Policy {
	overlayPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("p", "strong", "em", "br", "button")
		policy.AllowAttrs("id", "type", "class").OnElements("button")
		overlayPolicy = policy
	})
	return overlayPolicy
}

// Overlay is a message panel whose content is replaced wholesale and whose
// visibility is toggled through the hidden class
type Overlay struct {
	id       string
	mu       sync.RWMutex
	html     string
	classes  map[string]struct{}
	controls map[string]*Button
}

// NewOverlay creates an empty, hidden overlay
func NewOverlay(id string) *Overlay {
	return &Overlay{
		id:      id,
		classes: map[string]struct{}{HiddenClass: {}},
	}
}

// ID returns the element id
func (o *Overlay) ID() string { return o.id }

// Replace swaps the content for sanitized html and the given controls.
// Previous controls are detached.
func (o *Overlay) Replace(html string, controls ...*Button) {
	clean := strings.TrimSpace(overlaySanitizer().Sanitize(html))

	o.mu.Lock()
	defer o.mu.Unlock()
	o.html = clean
	o.controls = nil
	if len(controls) > 0 {
		o.controls = make(map[string]*Button, len(controls))
		for _, c := range controls {
			o.controls[c.ID()] = c
		}
	}
}

// HTML returns the current content
func (o *Overlay) HTML() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.html
}

// Control returns a control attached by the last Replace
func (o *Overlay) Control(id string) (*Button, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	b, ok := o.controls[id]
	return b, ok
}

// Controls returns the attached controls sorted by id
func (o *Overlay) Controls() []*Button {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*Button, 0, len(o.controls))
	for _, c := range o.controls {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// AddClass adds a class name
func (o *Overlay) AddClass(name string) {
	o.mu.Lock()
	o.classes[name] = struct{}{}
	o.mu.Unlock()
}

// RemoveClass removes a class name
func (o *Overlay) RemoveClass(name string) {
	o.mu.Lock()
	delete(o.classes, name)
	o.mu.Unlock()
}

// HasClass reports whether the class is set
func (o *Overlay) HasClass(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.classes[name]
	return ok
}

// Visible reports whether the overlay is shown
func (o *Overlay) Visible() bool {
	return !o.HasClass(HiddenClass)
}
