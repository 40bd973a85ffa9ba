package experiment

import (
	"encoding/json"
	"fmt"
	"os"
)

// Registry is an immutable catalog of experiment definitions, constructed
// once at process start. Changing experiments means redeploying the
// registry contents.
type Registry struct {
	byID  map[string]*Experiment
	order []string
}

// NewRegistry builds a registry from in-code definitions. Duplicate ids are
// rejected so a bad config deploy fails loudly instead of shadowing tests.
func NewRegistry(experiments []Experiment) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Experiment, len(experiments))}
	for i := range experiments {
		e := experiments[i]
		if e.ID == "" {
			return nil, fmt.Errorf("experiment %d has no id", i)
		}
		if _, dup := r.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate experiment id %q", e.ID)
		}
		r.byID[e.ID] = &e
		r.order = append(r.order, e.ID)
	}
	return r, nil
}

// LoadRegistry reads experiment definitions from a JSON file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	var experiments []Experiment
	if err := json.Unmarshal(data, &experiments); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return NewRegistry(experiments)
}

// Get returns the experiment with the given id, or nil when unknown.
func (r *Registry) Get(id string) *Experiment {
	return r.byID[id]
}

// Active returns the experiments with status running, in definition order.
func (r *Registry) Active() []*Experiment {
	var active []*Experiment
	for _, id := range r.order {
		if e := r.byID[id]; e.Status == StatusRunning {
			active = append(active, e)
		}
	}
	return active
}

// All returns every experiment in definition order.
func (r *Registry) All() []*Experiment {
	all := make([]*Experiment, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.byID[id])
	}
	return all
}
