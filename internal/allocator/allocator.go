// Package allocator performs sticky, weighted variant assignment.
package allocator

import (
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/splitkit/splitkit/internal/audience"
	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/identity"
	"github.com/splitkit/splitkit/internal/storage"
)

// AssignmentSink receives the audit event emitted when a fresh assignment
// is made. Satisfied by *recorder.Recorder.
type AssignmentSink interface {
	RecordAssignment(exp *experiment.Experiment, v *experiment.Variant, userID string)
}

type Allocator struct {
	registry *experiment.Registry
	store    storage.Store
	ids      *identity.Provider
	client   audience.ClientContext
	events   AssignmentSink
	log      *zap.Logger

	// mu serializes the read-check-write on the assignment table so two
	// concurrent Assign calls for the same key cannot both draw.
	mu   sync.Mutex
	rand func() float64
}

func New(registry *experiment.Registry, store storage.Store, ids *identity.Provider,
	client audience.ClientContext, events AssignmentSink, log *zap.Logger) *Allocator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Allocator{
		registry: registry,
		store:    store,
		ids:      ids,
		client:   client,
		events:   events,
		log:      log,
		rand:     rand.Float64,
	}
}

// SetRandSource overrides the uniform [0,1) draw used for selection.
func (a *Allocator) SetRandSource(f func() float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rand = f
}

// Assign returns the caller's variant for the experiment, drawing and
// persisting one on first call. It returns (nil, nil) when the experiment
// is unknown, not running, or the client fails audience targeting; the
// caller cannot tell those apart. Audience exclusion is never cached, so
// membership is re-evaluated on every call.
func (a *Allocator) Assign(experimentID string) (*experiment.Variant, error) {
	exp := a.registry.Get(experimentID)
	if exp == nil || exp.Status != experiment.StatusRunning {
		return nil, nil
	}

	if !audience.Matches(exp.Audience, a.client) {
		return nil, nil
	}

	if len(exp.Variants) == 0 {
		a.log.Warn("experiment has no variants", zap.String("experiment", exp.ID))
		return nil, nil
	}

	userID, err := a.ids.UserID()
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	assignments, err := storage.LoadAssignments(a.store)
	if err != nil {
		return nil, err
	}

	// Sticky path: honor a stored assignment as long as the variant still
	// exists in the definition.
	if variantID, ok := assignments[experimentID]; ok {
		if v := exp.Variant(variantID); v != nil {
			return v, nil
		}
	}

	v := a.draw(exp)

	assignments[experimentID] = v.ID
	if err := storage.SaveAssignments(a.store, assignments); err != nil {
		return nil, err
	}

	if a.events != nil {
		a.events.RecordAssignment(exp, v, userID)
	}

	return v, nil
}

// draw picks a variant proportionally to relative weight: a uniform value
// in [0, sum(weights)) is matched against the cumulative weight walk in
// definition order. If the walk never satisfies the draw (all weights
// zero), the last variant wins.
func (a *Allocator) draw(exp *experiment.Experiment) *experiment.Variant {
	var total float64
	for i := range exp.Variants {
		total += exp.Variants[i].Weight
	}

	r := a.rand() * total

	var cumulative float64
	for i := range exp.Variants {
		cumulative += exp.Variants[i].Weight
		if r < cumulative {
			return &exp.Variants[i]
		}
	}
	return &exp.Variants[len(exp.Variants)-1]
}
