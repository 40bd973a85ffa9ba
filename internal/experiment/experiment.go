package experiment

import "time"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// DeviceClass is the coarse device bucket used for audience targeting.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceDesktop DeviceClass = "desktop"
)

// Experiment is one A/B test definition. Definitions are immutable after
// registry construction; status transitions happen by redeploying the
// registry contents, never through this package.
type Experiment struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Variants         []Variant `json:"variants"`
	Audience         *Audience `json:"audience,omitempty"`
	StartAt          time.Time `json:"start_at,omitempty"`
	EndAt            time.Time `json:"end_at,omitempty"`
	Status           Status    `json:"status"`
	PrimaryMetric    string    `json:"primary_metric"`
	SecondaryMetrics []string  `json:"secondary_metrics,omitempty"`
}

// Variant is one treatment arm. Weight is relative, not a percentage:
// allocation is proportional to weight / sum(weights).
type Variant struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Weight    float64        `json:"weight"`
	IsControl bool           `json:"is_control,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
}

// Audience restricts which clients are eligible for assignment. A zero-value
// field means no constraint on that dimension; all set fields must match.
type Audience struct {
	UserType  string      `json:"user_type,omitempty"`
	Device    DeviceClass `json:"device,omitempty"`
	Locations []string    `json:"locations,omitempty"`
	NewUser   *bool       `json:"new_user,omitempty"`
}

// Variant returns the variant with the given id, or nil.
func (e *Experiment) Variant(id string) *Variant {
	for i := range e.Variants {
		if e.Variants[i].ID == id {
			return &e.Variants[i]
		}
	}
	return nil
}

// Control returns the control variant, falling back to the first variant
// when none is flagged. Returns nil for an experiment with no variants.
func (e *Experiment) Control() *Variant {
	for i := range e.Variants {
		if e.Variants[i].IsControl {
			return &e.Variants[i]
		}
	}
	if len(e.Variants) > 0 {
		return &e.Variants[0]
	}
	return nil
}

// Result is one recorded metric occurrence attributed to a user's variant
// assignment. Append-only; cleared only by a full client reset.
type Result struct {
	ID           string             `json:"id,omitempty"`
	ExperimentID string             `json:"experiment_id"`
	VariantID    string             `json:"variant_id"`
	UserID       string             `json:"user_id"`
	Timestamp    int64              `json:"timestamp"` // epoch millis
	Metrics      map[string]float64 `json:"metrics"`
}
