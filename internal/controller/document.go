package controller

import (
	"sync"
)

// Element ids the settings page exposes
const (
	SaveButtonID     = "save-button"
	DefaultsButtonID = "defaults-button"
	OverlayID        = "message-overlay"
	UserNameID       = "user_name"
	SidekickNameID   = "sidekick_name"
	DismissButtonID  = "error-ok-button"
)

// HiddenClass toggles overlay visibility
const HiddenClass = "hidden"

// Element is a node addressable by id
type Element interface {
	ID() string
}

// ElementFinder resolves element ids, like document.getElementById
type ElementFinder interface {
	ElementByID(id string) (Element, bool)
}

// Input is a text field
type Input struct {
	id    string
	mu    sync.RWMutex
	value string
}

// NewInput creates a text field with an initial value
func NewInput(id, value string) *Input {
	return &Input{id: id, value: value}
}

// ID returns the element id
func (in *Input) ID() string { return in.id }

// Value returns the current text
func (in *Input) Value() string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.value
}

// SetValue replaces the text
func (in *Input) SetValue(v string) {
	in.mu.Lock()
	in.value = v
	in.mu.Unlock()
}

// Button is a clickable control
type Button struct {
	id       string
	mu       sync.Mutex
	handlers []func()
}

// NewButton creates a button with no handlers
func NewButton(id string) *Button {
	return &Button{id: id}
}

// ID returns the element id
func (b *Button) ID() string { return b.id }

// OnClick registers a click handler
func (b *Button) OnClick(fn func()) {
	b.mu.Lock()
	b.handlers = append(b.handlers, fn)
	b.mu.Unlock()
}

// HandlerCount returns the number of registered click handlers
func (b *Button) HandlerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// Click runs every handler in registration order
func (b *Button) Click() {
	b.mu.Lock()
	handlers := make([]func(), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Document is an in-memory page
type Document struct {
	mu       sync.RWMutex
	elements map[string]Element
}

// NewDocument creates a document holding elems
func NewDocument(elems ...Element) *Document {
	d := &Document{elements: make(map[string]Element, len(elems))}
	for _, e := range elems {
		d.elements[e.ID()] = e
	}
	return d
}

// NewSettingsDocument builds the settings page with its five elements
func NewSettingsDocument(userName, sidekickName string) *Document {
	return NewDocument(
		NewButton(SaveButtonID),
		NewButton(DefaultsButtonID),
		NewOverlay(OverlayID),
		NewInput(UserNameID, userName),
		NewInput(SidekickNameID, sidekickName),
	)
}

// Add inserts or replaces an element
func (d *Document) Add(e Element) {
	d.mu.Lock()
	d.elements[e.ID()] = e
	d.mu.Unlock()
}

// Remove deletes an element by id
func (d *Document) Remove(id string) {
	d.mu.Lock()
	delete(d.elements, id)
	d.mu.Unlock()
}

// ElementByID looks up top-level elements, then controls rendered inside
// overlays
func (d *Document) ElementByID(id string) (Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if e, ok := d.elements[id]; ok {
		return e, true
	}
	for _, e := range d.elements {
		if o, ok := e.(*Overlay); ok {
			if b, ok := o.Control(id); ok {
				return b, true
			}
		}
	}
	return nil, false
}

// Input returns the text field with id
func (d *Document) Input(id string) *Input {
	e, _ := d.ElementByID(id)
	in, _ := e.(*Input)
	return in
}

// Button returns the button with id
func (d *Document) Button(id string) *Button {
	e, _ := d.ElementByID(id)
	b, _ := e.(*Button)
	return b
}

// Overlay returns the overlay with id
func (d *Document) Overlay(id string) *Overlay {
	e, _ := d.ElementByID(id)
	o, _ := e.(*Overlay)
	return o
}
