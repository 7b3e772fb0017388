// Package deletion drives the select, confirm and delete sequence shared by
// every entity the front desk can remove.
package deletion

import (
	"context"
	"strconv"
	"sync"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
)

type State string

const (
	StateBrowsing   State = "browsing"
	StateConfirming State = "confirming"
	StateDeleted    State = "deleted"
	StateCancelled  State = "cancelled"
)

const (
	MsgModalOpen    = "Dismiss the current message first."
	MsgNothingChose = "Select a record to delete."
	MsgConnection   = "Failed to connect to server"
	MsgDeleting     = "The record is already being deleted."
)

// Field is one line of the confirmation summary.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Deps are the collaborators shared by every flow.
type Deps struct {
	Auditor audit.Recorder
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

type Config[T any] struct {
	Kind    string
	Entity  string
	Panel   *search.Panel[T]
	Key     func(T) string
	Remove  func(ctx context.Context, record T) (string, error)
	Summary func(T) []Field
}

type Flow[T any] struct {
	cfg     Config[T]
	auditor audit.Recorder
	metrics *metrics.Metrics
	log     *logger.Logger

	mu       sync.Mutex
	state    State
	target   *T
	modal    *model.Modal
	deleting bool
}

func New[T any](cfg Config[T], deps Deps) *Flow[T] {
	if deps.Auditor == nil {
		deps.Auditor = audit.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Flow[T]{
		cfg:     cfg,
		auditor: deps.Auditor,
		metrics: deps.Metrics,
		log:     deps.Logger.Component("deletion"),
		state:   StateBrowsing,
	}
}

func (f *Flow[T]) Panel() *search.Panel[T] {
	return f.cfg.Panel
}

// Select picks a listed record and asks for confirmation.
func (f *Flow[T]) Select(ctx context.Context, key string) error {
	f.mu.Lock()
	if f.modal != nil {
		f.mu.Unlock()
		return errors.Conflict(MsgModalOpen)
	}
	if f.deleting {
		f.mu.Unlock()
		return errors.Conflict(MsgDeleting)
	}
	f.mu.Unlock()

	rec, err := f.cfg.Panel.Select(ctx, key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.target = &rec
	f.state = StateConfirming
	return nil
}

// Cancel backs out of the confirmation without touching the clinic API.
func (f *Flow[T]) Cancel() {
	f.cfg.Panel.ClearSelection()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateConfirming {
		f.state = StateCancelled
	}
	f.target = nil
}

// Confirm deletes the record under confirmation. A deleted record leaves the
// panel's results; a failed delete keeps it listed and selectable.
func (f *Flow[T]) Confirm(ctx context.Context) (*model.Modal, error) {
	f.mu.Lock()
	if f.modal != nil {
		f.mu.Unlock()
		return nil, errors.Conflict(MsgModalOpen)
	}
	if f.deleting {
		f.mu.Unlock()
		return nil, errors.Conflict(MsgDeleting)
	}
	if f.state != StateConfirming || f.target == nil {
		f.mu.Unlock()
		return nil, errors.Validation(MsgNothingChose)
	}
	target := *f.target
	f.deleting = true
	f.mu.Unlock()

	key := f.cfg.Key(target)
	msg, err := f.cfg.Remove(ctx, target)

	f.auditor.Record(ctx, audit.Entry{
		Action:     model.AuditActionDelete,
		EntityType: f.cfg.Entity,
		EntityID:   key,
		Err:        err,
		Message:    msg,
	})
	if f.metrics != nil {
		f.metrics.FormOutcomes.WithLabelValues(f.cfg.Entity+"_delete", metrics.Outcome(err)).Inc()
	}

	if err != nil {
		f.log.Warn("Delete failed", "entity", f.cfg.Entity, "key", key, "error", err.Error())
		f.cfg.Panel.ClearSelection()

		modal := model.ErrorModal(errors.UserMessage(err, MsgConnection))
		f.mu.Lock()
		f.deleting = false
		f.state = StateBrowsing
		f.target = nil
		f.modal = modal
		f.mu.Unlock()
		return modal, err
	}

	f.cfg.Panel.Remove(key)
	f.log.Info("Deleted record", "entity", f.cfg.Entity, "key", key)

	modal := model.SuccessModal(msg)
	f.mu.Lock()
	f.deleting = false
	f.state = StateDeleted
	f.target = nil
	f.modal = modal
	f.mu.Unlock()
	return modal, nil
}

// Dismiss closes the open modal and returns to browsing.
func (f *Flow[T]) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modal = nil
	if f.state != StateConfirming {
		f.state = StateBrowsing
	}
}

// Reset clears the flow and its panel.
func (f *Flow[T]) Reset() {
	f.cfg.Panel.Reset()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateBrowsing
	f.target = nil
	f.modal = nil
}

func (f *Flow[T]) Close() {
	f.cfg.Panel.Close()
}

type Snapshot[T any] struct {
	Kind     string             `json:"kind"`
	State    State              `json:"state"`
	Target   *T                 `json:"target,omitempty"`
	Summary  []Field            `json:"summary,omitempty"`
	Modal    *model.Modal       `json:"modal,omitempty"`
	Deleting bool               `json:"deleting"`
	Panel    search.Snapshot[T] `json:"panel"`
}

func (f *Flow[T]) Snapshot() Snapshot[T] {
	panel := f.cfg.Panel.Snapshot()

	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot[T]{
		Kind:     f.cfg.Kind,
		State:    f.state,
		Modal:    f.modal,
		Deleting: f.deleting,
		Panel:    panel,
	}
	if f.target != nil {
		t := *f.target
		s.Target = &t
		if f.cfg.Summary != nil {
			s.Summary = f.cfg.Summary(t)
		}
	}
	return s
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Control is the entity-agnostic surface of a flow.
type Control interface {
	Panel() search.Control
	Select(ctx context.Context, key string) error
	Confirm(ctx context.Context) (*model.Modal, error)
	Cancel()
	Dismiss()
	View() interface{}
}

// Controlled wraps a flow as a Control.
func Controlled[T any](f *Flow[T]) Control {
	return control[T]{f}
}

type control[T any] struct {
	*Flow[T]
}

func (c control[T]) Panel() search.Control {
	return c.Flow.Panel()
}

func (c control[T]) View() interface{} {
	return c.Flow.Snapshot()
}
