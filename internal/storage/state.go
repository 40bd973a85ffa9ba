package storage

import (
	"encoding/json"
	"fmt"

	"github.com/splitkit/splitkit/internal/experiment"
)

// Assignments is the persisted experiment-id → variant-id table.
type Assignments map[string]string

// LoadAssignments decodes the assignment table, returning an empty table
// when none has been written yet.
func LoadAssignments(s Store) (Assignments, error) {
	raw, ok, err := s.Get(KeyAssignments)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}
	if !ok || raw == "" {
		return Assignments{}, nil
	}

	var a Assignments
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("failed to parse assignments: %w", err)
	}
	return a, nil
}

// SaveAssignments writes the whole assignment table back.
func SaveAssignments(s Store, a Assignments) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode assignments: %w", err)
	}
	if err := s.Set(KeyAssignments, string(raw)); err != nil {
		return fmt.Errorf("failed to write assignments: %w", err)
	}
	return nil
}

// LoadEvents decodes the local event log, oldest first.
func LoadEvents(s Store) ([]experiment.Result, error) {
	raw, ok, err := s.Get(KeyEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var events []experiment.Result
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, fmt.Errorf("failed to parse event log: %w", err)
	}
	return events, nil
}

// AppendEvent appends one result to the local event log.
func AppendEvent(s Store, r experiment.Result) error {
	events, err := LoadEvents(s)
	if err != nil {
		return err
	}
	events = append(events, r)

	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to encode event log: %w", err)
	}
	if err := s.Set(KeyEvents, string(raw)); err != nil {
		return fmt.Errorf("failed to write event log: %w", err)
	}
	return nil
}

// Reset clears everything splitkit persists for this client: identity,
// assignments, event log, and the returning-user marker.
func Reset(s Store) error {
	for _, key := range []string{KeyUserID, KeyAssignments, KeyEvents, KeyReturningUser} {
		if err := s.Delete(key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}
