// Package storage provides the client-side key/value state store backing
// identity, assignments, and the local event log. It stands in for browser
// local storage: small string values under fixed keys.
package storage

// Well-known keys. Everything splitkit persists client-side lives under
// one of these.
const (
	KeyUserID        = "splitkit_uid"
	KeyAssignments   = "splitkit_assignments"
	KeyEvents        = "splitkit_events"
	KeyReturningUser = "splitkit_returning"
	KeyAuthToken     = "splitkit_token"
)

// Store is the persistence contract. Get reports ok=false for a missing
// key; an error means the underlying medium failed, which callers treat
// differently from "not set yet".
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}
