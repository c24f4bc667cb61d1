// Package controller binds the settings page's save and defaults buttons to
// the form inputs, the /save request and the message overlay.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/jetsetgo/sidekick-setup/internal/form"
)

// Overlay messages
const (
	SuccessHTML = `<p>Settings saved! Your Sidekick will now continue to the main menu.</p>`
	ErrorHTML   = `<p>An error occurred. Please try again.</p><button id="` + DismissButtonID + `">OK</button>`
)

// ErrMissingElement is wrapped by the error New returns when the page lacks
// a required element
var ErrMissingElement = errors.New("missing element")

// MissingElementError lists the ids New could not bind
type MissingElementError struct {
	IDs []string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("settings page is missing required elements: %s", strings.Join(e.IDs, ", "))
}

func (e *MissingElementError) Unwrap() error { return ErrMissingElement }

// State of the overlay
type State int

const (
	Hidden State = iota
	ShowingSuccess
	ShowingError
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case ShowingSuccess:
		return "success"
	case ShowingError:
		return "error"
	default:
		return "unknown"
	}
}

// Ordering decides which of several overlapping saves the overlay shows
type Ordering int

const (
	// LastCompletionWins shows whichever response arrives last
	LastCompletionWins Ordering = iota
	// LatestRequestWins drops responses to saves that a newer save has
	// already rendered over
	LatestRequestWins
)

// ParseOrdering maps the config value to an Ordering
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "", "last-completion":
		return LastCompletionWins, nil
	case "latest-request":
		return LatestRequestWins, nil
	default:
		return 0, fmt.Errorf("unknown ordering %q", s)
	}
}

// Saver submits a form and returns the raw reply body. The error is set
// only when no body could be obtained.
type Saver interface {
	SaveForm(ctx context.Context, f form.Form) ([]byte, error)
}

// Logger receives developer-facing messages
type Logger interface {
	Printf(format string, args ...any)
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger for transport and parse failures
func WithLogger(l Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithOrdering sets the overlapping-save policy
func WithOrdering(o Ordering) Option {
	return func(c *Controller) { c.ordering = o }
}

// WithDefaults overrides the values the defaults button writes
func WithDefaults(f form.Form) Option {
	return func(c *Controller) { c.defaults = f }
}

// WithContext sets the context click-triggered saves run under
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

// OnResult registers a callback run after each save has been rendered
func OnResult(fn func(SaveResult)) Option {
	return func(c *Controller) { c.onResult = fn }
}

// Controller holds the bound page elements for the life of the page
type Controller struct {
	saveButton     *Button
	defaultsButton *Button
	overlay        *Overlay
	userName       *Input
	sidekickName   *Input
	dismiss        *Button

	saver    Saver
	logger   Logger
	ordering Ordering
	defaults form.Form
	ctx      context.Context
	onResult func(SaveResult)

	mu     sync.Mutex
	state  State
	issued uint64
	shown  uint64

	inflight sync.WaitGroup
}

// New binds the five settings elements and wires the buttons. It fails if
// any element is missing or has the wrong kind.
func New(doc ElementFinder, saver Saver, opts ...Option) (*Controller, error) {
	c := &Controller{
		saver:    saver,
		logger:   log.Default(),
		defaults: form.Form{UserName: "User", SidekickName: "Sidekick"},
		ctx:      context.Background(),
		dismiss:  NewButton(DismissButtonID),
	}
	for _, opt := range opts {
		opt(c)
	}

	var missing []string
	bind := func(id string, ok bool) {
		if !ok {
			missing = append(missing, id)
		}
	}
	var ok bool
	c.saveButton, ok = lookup[*Button](doc, SaveButtonID)
	bind(SaveButtonID, ok)
	c.defaultsButton, ok = lookup[*Button](doc, DefaultsButtonID)
	bind(DefaultsButtonID, ok)
	c.overlay, ok = lookup[*Overlay](doc, OverlayID)
	bind(OverlayID, ok)
	c.userName, ok = lookup[*Input](doc, UserNameID)
	bind(UserNameID, ok)
	c.sidekickName, ok = lookup[*Input](doc, SidekickNameID)
	bind(SidekickNameID, ok)

	if len(missing) > 0 {
		return nil, &MissingElementError{IDs: missing}
	}

	c.saveButton.OnClick(c.saveInBackground)
	c.defaultsButton.OnClick(c.ResetDefaults)
	c.dismiss.OnClick(c.Dismiss)

	return c, nil
}

func lookup[T Element](doc ElementFinder, id string) (T, bool) {
	var zero T
	e, ok := doc.ElementByID(id)
	if !ok {
		return zero, false
	}
	t, ok := e.(T)
	return t, ok
}

// Snapshot reads the current input values
func (c *Controller) Snapshot() form.Form {
	return form.Form{
		UserName:     c.userName.Value(),
		SidekickName: c.sidekickName.Value(),
	}
}

// ResetDefaults writes the default values into both inputs
func (c *Controller) ResetDefaults() {
	c.userName.SetValue(c.defaults.UserName)
	c.sidekickName.SetValue(c.defaults.SidekickName)
}

// Save submits the current form and renders the outcome into the overlay
func (c *Controller) Save(ctx context.Context) SaveResult {
	return c.submit(ctx, c.begin())
}

// pendingSave is a form snapshot plus its issue order
type pendingSave struct {
	form form.Form
	seq  uint64
}

func (c *Controller) begin() pendingSave {
	f := c.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return pendingSave{form: f, seq: c.issued}
}

func (c *Controller) submit(ctx context.Context, p pendingSave) SaveResult {
	res := Interpret(c.saver.SaveForm(ctx, p.form))
	if fail, ok := res.(Failure); ok && fail.Reason != ReasonStatus {
		c.logger.Printf("ERROR: %v", fail)
	}

	c.render(p.seq, res)
	if c.onResult != nil {
		c.onResult(res)
	}
	return res
}

// saveInBackground snapshots the form at click time and submits it without
// blocking the caller
func (c *Controller) saveInBackground() {
	p := c.begin()
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.submit(c.ctx, p)
	}()
}

// Wait blocks until every click-triggered save has rendered
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) render(seq uint64, res SaveResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ordering == LatestRequestWins && seq < c.shown {
		return
	}
	c.shown = seq

	switch res.(type) {
	case Success:
		c.overlay.Replace(SuccessHTML)
		c.state = ShowingSuccess
	default:
		c.overlay.Replace(ErrorHTML, c.dismiss)
		c.state = ShowingError
	}
	c.overlay.RemoveClass(HiddenClass)
}

// Dismiss hides the overlay when it shows an error; otherwise it does nothing
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ShowingError {
		return
	}
	c.overlay.AddClass(HiddenClass)
	c.state = Hidden
}

// State returns the overlay state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Overlay returns the bound overlay element
func (c *Controller) Overlay() *Overlay {
	return c.overlay
}

// DismissButton returns the persistent dismiss control
func (c *Controller) DismissButton() *Button {
	return c.dismiss
}
