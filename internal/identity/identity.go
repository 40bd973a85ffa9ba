// Package identity produces the stable anonymous id that sticky assignment
// keys on.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/splitkit/splitkit/internal/storage"
)

// Provider returns one stable id per client profile. The first call
// generates and persists it; later calls read it back.
type Provider struct {
	store storage.Store
}

func NewProvider(store storage.Store) *Provider {
	return &Provider{store: store}
}

// UserID returns the persisted anonymous id, generating one on first use.
// A storage read failure is surfaced as an error, never treated as "no id
// yet".
func (p *Provider) UserID() (string, error) {
	id, ok, err := p.store.Get(storage.KeyUserID)
	if err != nil {
		return "", fmt.Errorf("failed to read user id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}

	id = newID()
	if err := p.store.Set(storage.KeyUserID, id); err != nil {
		return "", fmt.Errorf("failed to persist user id: %w", err)
	}
	return id, nil
}

// newID builds a time component plus a random component, e.g.
// "lx3k9v2a-9f86d081". The time part keeps ids roughly sortable; the
// random part makes collisions across clients negligible.
func newID() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// Fall back to a timestamp-only id if crypto/rand fails
		return ts
	}
	return ts + "-" + hex.EncodeToString(buf)
}
