// Package search implements the entity search panel shared by every front
// desk screen: id or name lookups, debounced typing and stale response
// suppression.
package search

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/careplus/frontdesk/pkg/debounce"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
)

type Mode string

const (
	ModeID   Mode = "id"
	ModeName Mode = "name"
)

func (m Mode) Valid() bool {
	return m == ModeID || m == ModeName
}

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultTimeout  = 10 * time.Second

	MsgInvalidID = "Please enter a valid ID."
	MsgNoData    = "No data available"
	MsgBusy      = "A search is already running."
)

// Lookup is how a panel reaches the clinic API.
type Lookup[T any] struct {
	ByID   func(ctx context.Context, id string) (*T, error)
	All    func(ctx context.Context) ([]T, error)
	ByName func(ctx context.Context, name string) ([]T, error)
}

type Options[T any] struct {
	// Entity names the record in messages, e.g. "patient".
	Entity string
	Key    func(T) string
	// Selectable reports whether a listed record may be picked. Nil allows all.
	Selectable func(T) bool
	// NotSelectable is the message for picking a record Selectable refuses.
	NotSelectable string
	// Detail, when set, refreshes a record on selection.
	Detail func(ctx context.Context, record T) (*T, error)

	Debounce  time.Duration
	Timeout   time.Duration
	AfterFunc debounce.AfterFunc
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

type Panel[T any] struct {
	lookup Lookup[T]
	opts   Options[T]
	typing *debounce.Debouncer

	mu        sync.Mutex
	mode      Mode
	input     string
	results   []T
	selected  *T
	loading   bool
	attempted bool
	status    string
	seq       uint64
	inflight  map[uint64]context.CancelFunc
	closed    bool
}

func NewPanel[T any](lookup Lookup[T], opts Options[T]) *Panel[T] {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.NotSelectable == "" {
		opts.NotSelectable = fmt.Sprintf("This %s cannot be selected.", opts.Entity)
	}

	typing := debounce.New(opts.Debounce)
	if opts.AfterFunc != nil {
		typing = debounce.NewWithClock(opts.Debounce, opts.AfterFunc)
	}

	return &Panel[T]{
		lookup:   lookup,
		opts:     opts,
		typing:   typing,
		mode:     ModeID,
		inflight: map[uint64]context.CancelFunc{},
	}
}

// Input records a keystroke. In name mode the search runs once typing has
// been quiet for the debounce window; in id mode it waits for Submit.
func (p *Panel[T]) Input(mode Mode, text string) error {
	if !mode.Valid() {
		return errors.BadRequest(fmt.Sprintf("unknown search mode %q", mode), nil)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.Conflict("search panel is closed")
	}
	if mode != p.mode {
		// Results of a search issued in the other mode no longer apply.
		p.seq++
		p.loading = false
	}
	p.mode = mode
	p.input = text
	p.attempted = false
	p.status = ""
	p.mu.Unlock()

	if mode != ModeName {
		p.typing.Cancel()
		return nil
	}
	p.typing.Trigger(func() {
		_ = p.run(context.Background(), mode, text)
	})
	return nil
}

// Submit searches immediately with the current mode and input. It is refused
// while a search is loading.
func (p *Panel[T]) Submit(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.Conflict("search panel is closed")
	}
	if p.loading {
		p.mu.Unlock()
		return errors.Conflict(MsgBusy)
	}
	mode, input := p.mode, p.input
	p.mu.Unlock()

	p.typing.Cancel()

	if mode == ModeID && strings.TrimSpace(input) == "" {
		p.mu.Lock()
		p.results = nil
		p.selected = nil
		p.attempted = true
		p.status = MsgInvalidID
		p.mu.Unlock()
		return errors.Validation(MsgInvalidID)
	}
	return p.run(ctx, mode, input)
}

// run issues one tagged search and applies its result unless a newer search
// was issued meanwhile.
func (p *Panel[T]) run(parent context.Context, mode Mode, input string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.seq++
	seq := p.seq
	p.loading = true
	ctx, cancel := context.WithTimeout(parent, p.opts.Timeout)
	p.inflight[seq] = cancel
	p.mu.Unlock()

	if p.opts.Metrics != nil {
		p.opts.Metrics.SearchesIssued.WithLabelValues(p.opts.Entity, string(mode)).Inc()
	}

	results, err := p.fetch(ctx, mode, strings.TrimSpace(input))
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.inflight, seq)
	if p.closed {
		return nil
	}
	if seq != p.seq {
		if p.opts.Metrics != nil {
			p.opts.Metrics.SearchesStale.WithLabelValues(p.opts.Entity).Inc()
		}
		p.opts.Logger.Debug("Dropped stale search response", "entity", p.opts.Entity, "seq", seq, "latest", p.seq)
		return nil
	}

	p.loading = false
	p.attempted = true
	p.selected = nil
	if err != nil {
		p.results = nil
		p.status = p.failureMessage(err)
		if !errors.Is(err, errors.ErrNotFound) {
			p.opts.Logger.Warn("Search failed", "entity", p.opts.Entity, "mode", string(mode), "error", err.Error())
		}
		return nil
	}
	p.results = results
	p.status = ""
	return nil
}

func (p *Panel[T]) fetch(ctx context.Context, mode Mode, input string) ([]T, error) {
	switch {
	case mode == ModeID:
		rec, err := p.lookup.ByID(ctx, input)
		if err != nil {
			return nil, err
		}
		return []T{*rec}, nil
	case input == "":
		return p.lookup.All(ctx)
	default:
		return p.lookup.ByName(ctx, input)
	}
}

func (p *Panel[T]) failureMessage(err error) string {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return fmt.Sprintf("No %s found.", p.opts.Entity)
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return "Failed to connect to server"
	}
	if appErr, ok := errors.As(err); ok {
		return appErr.Message
	}
	return "Failed to connect to server"
}

// Select picks a listed record by key, fetching its detail when configured.
func (p *Panel[T]) Select(ctx context.Context, key string) (T, error) {
	var zero T

	p.mu.Lock()
	idx := p.indexOf(key)
	if idx < 0 {
		p.mu.Unlock()
		return zero, errors.NotFound(p.opts.Entity, fmt.Errorf("key %q not in results", key))
	}
	rec := p.results[idx]
	if p.opts.Selectable != nil && !p.opts.Selectable(rec) {
		p.mu.Unlock()
		return zero, errors.Validation(p.opts.NotSelectable)
	}
	seq := p.seq
	p.mu.Unlock()

	if p.opts.Detail != nil {
		dctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
		detail, err := p.opts.Detail(dctx, rec)
		cancel()
		if err != nil {
			return zero, err
		}
		rec = *detail
		if p.opts.Selectable != nil && !p.opts.Selectable(rec) {
			return zero, errors.Validation(p.opts.NotSelectable)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		return zero, errors.Conflict("results changed, select again")
	}
	if i := p.indexOf(key); i >= 0 {
		p.results[i] = rec
	}
	selected := rec
	p.selected = &selected
	return rec, nil
}

// Selected returns the current selection.
func (p *Panel[T]) Selected() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.selected == nil {
		var zero T
		return zero, false
	}
	return *p.selected, true
}

func (p *Panel[T]) ClearSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = nil
}

// Remove drops a record from the results, e.g. after it was deleted.
func (p *Panel[T]) Remove(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.indexOf(key)
	if idx < 0 {
		return false
	}
	p.results = append(p.results[:idx:idx], p.results[idx+1:]...)
	if p.selected != nil && p.opts.Key(*p.selected) == key {
		p.selected = nil
	}
	return true
}

// Replace swaps in a fresher copy of a listed record.
func (p *Panel[T]) Replace(rec T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.opts.Key(rec)
	if idx := p.indexOf(key); idx >= 0 {
		p.results[idx] = rec
	}
	if p.selected != nil && p.opts.Key(*p.selected) == key {
		r := rec
		p.selected = &r
	}
}

// Reset returns the panel to its initial state and orphans in-flight searches.
func (p *Panel[T]) Reset() {
	p.typing.Cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	p.mode = ModeID
	p.input = ""
	p.results = nil
	p.selected = nil
	p.loading = false
	p.attempted = false
	p.status = ""
}

// Close cancels pending and in-flight searches. A closed panel ignores input.
func (p *Panel[T]) Close() {
	p.typing.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for seq, cancel := range p.inflight {
		cancel()
		delete(p.inflight, seq)
	}
}

func (p *Panel[T]) indexOf(key string) int {
	for i, r := range p.results {
		if p.opts.Key(r) == key {
			return i
		}
	}
	return -1
}

// Item is one listed record.
type Item[T any] struct {
	Key        string `json:"key"`
	Selectable bool   `json:"selectable"`
	Record     T      `json:"record"`
}

// Snapshot is what a client renders for a panel.
type Snapshot[T any] struct {
	Entity    string    `json:"entity"`
	Mode      Mode      `json:"mode"`
	Input     string    `json:"input"`
	Loading   bool      `json:"loading"`
	Pending   bool      `json:"pending"`
	Attempted bool      `json:"attempted"`
	Status    string    `json:"status,omitempty"`
	Empty     string    `json:"empty,omitempty"`
	Results   []Item[T] `json:"results"`
	Selected  *Item[T]  `json:"selected,omitempty"`
}

func (p *Panel[T]) Snapshot() Snapshot[T] {
	pending := p.typing.Pending()

	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot[T]{
		Entity:    p.opts.Entity,
		Mode:      p.mode,
		Input:     p.input,
		Loading:   p.loading,
		Pending:   pending,
		Attempted: p.attempted,
		Status:    p.status,
		Results:   make([]Item[T], 0, len(p.results)),
	}
	for _, r := range p.results {
		s.Results = append(s.Results, p.item(r))
	}
	if p.attempted && !p.loading && len(p.results) == 0 {
		s.Empty = MsgNoData
	}
	if p.selected != nil {
		it := p.item(*p.selected)
		s.Selected = &it
	}
	return s
}

func (p *Panel[T]) item(r T) Item[T] {
	return Item[T]{
		Key:        p.opts.Key(r),
		Selectable: p.opts.Selectable == nil || p.opts.Selectable(r),
		Record:     r,
	}
}

// Control is the entity-agnostic surface of a panel.
type Control interface {
	Input(mode Mode, text string) error
	Submit(ctx context.Context) error
	Pick(ctx context.Context, key string) error
	View() interface{}
}

var _ Control = (*Panel[struct{}])(nil)

// Pick is Select without the record.
func (p *Panel[T]) Pick(ctx context.Context, key string) error {
	_, err := p.Select(ctx, key)
	return err
}

func (p *Panel[T]) View() interface{} {
	return p.Snapshot()
}
