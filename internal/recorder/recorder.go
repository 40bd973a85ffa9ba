// Package recorder appends conversion and assignment events to the local
// event log and forwards them, best effort, to a remote collector. The
// local log is the system of record; remote delivery is advisory.
package recorder

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/identity"
	"github.com/splitkit/splitkit/internal/storage"
)

// Sink receives events for remote delivery. Enqueue must never block.
type Sink interface {
	Enqueue(experiment.Result)
}

// NopSink discards everything. Used offline and in tests.
type NopSink struct{}

func (NopSink) Enqueue(experiment.Result) {}

type Recorder struct {
	store storage.Store
	ids   *identity.Provider
	sink  Sink
	log   *zap.Logger
	now   func() time.Time
}

func New(store storage.Store, ids *identity.Provider, sink Sink, log *zap.Logger) *Recorder {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		store: store,
		ids:   ids,
		sink:  sink,
		log:   log,
		now:   time.Now,
	}
}

// RecordConversion attributes one metric occurrence to the caller's current
// assignment for the experiment. Without a prior assignment the call is a
// silent no-op. Failures are logged and swallowed, never surfaced to the
// caller.
func (r *Recorder) RecordConversion(experimentID, metric string, value float64) {
	assignments, err := storage.LoadAssignments(r.store)
	if err != nil {
		r.log.Warn("failed to load assignments", zap.String("experiment", experimentID), zap.Error(err))
		return
	}

	variantID, ok := assignments[experimentID]
	if !ok {
		r.log.Debug("conversion without assignment, dropping",
			zap.String("experiment", experimentID), zap.String("metric", metric))
		return
	}

	userID, err := r.ids.UserID()
	if err != nil {
		r.log.Warn("failed to resolve user id", zap.Error(err))
		return
	}

	r.record(experiment.Result{
		ID:           uuid.NewString(),
		ExperimentID: experimentID,
		VariantID:    variantID,
		UserID:       userID,
		Timestamp:    r.now().UnixMilli(),
		Metrics:      map[string]float64{metric: value},
	})
}

// RecordAssignment emits the audit event written when a variant is first
// allocated to a user.
func (r *Recorder) RecordAssignment(exp *experiment.Experiment, v *experiment.Variant, userID string) {
	r.log.Info("variant assigned",
		zap.String("experiment", exp.ID),
		zap.String("experiment_name", exp.Name),
		zap.String("variant", v.ID),
		zap.String("variant_name", v.Name),
		zap.Bool("is_control", v.IsControl))

	r.record(experiment.Result{
		ID:           uuid.NewString(),
		ExperimentID: exp.ID,
		VariantID:    v.ID,
		UserID:       userID,
		Timestamp:    r.now().UnixMilli(),
		Metrics:      map[string]float64{"assignment": 1},
	})
}

func (r *Recorder) record(res experiment.Result) {
	if err := storage.AppendEvent(r.store, res); err != nil {
		r.log.Warn("failed to append event", zap.String("experiment", res.ExperimentID), zap.Error(err))
		return
	}
	r.sink.Enqueue(res)
}
