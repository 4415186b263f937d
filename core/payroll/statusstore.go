package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/trezcool/kazi/core"
)

// StatusStore persists paid/pending states.
type StatusStore interface {
	// GetStatus returns the entry for (employeeID, month) or ErrNotFound.
	GetStatus(ctx context.Context, employeeID int, month string) (StatusEntry, error)
	SetStatus(ctx context.Context, entry StatusEntry) error
}

// TwoTierStatusStore fronts the authoritative remote store with a local
// cache. When the remote is unreachable the store keeps operating off
// the cache in a degraded (possibly stale) mode; every degraded result
// is logged and reported to the caller, never swallowed.
type TwoTierStatusStore struct {
	remote StatusStore
	cache  StatusStore
	logger core.Logger
}

func NewTwoTierStatusStore(remote, cache StatusStore, logger core.Logger) *TwoTierStatusStore {
	return &TwoTierStatusStore{remote: remote, cache: cache, logger: logger}
}

// Get reads from the remote store, refreshing the cache on success. On
// remote failure it serves the cached entry and reports degraded=true.
func (s *TwoTierStatusStore) Get(ctx context.Context, employeeID int, month string) (entry StatusEntry, degraded bool, err error) {
	entry, err = s.remote.GetStatus(ctx, employeeID, month)
	if err == nil {
		if cerr := s.cache.SetStatus(ctx, entry); cerr != nil {
			s.logger.Warn(fmt.Sprintf("payroll: refreshing status cache: %v", cerr), cerr)
		}
		return entry, false, nil
	}
	if errors.Is(err, ErrNotFound) {
		return StatusEntry{}, false, err
	}

	s.logger.Warn(fmt.Sprintf("payroll: status store unreachable, serving cache: %v", err), err)
	entry, cerr := s.cache.GetStatus(ctx, employeeID, month)
	if cerr != nil {
		return StatusEntry{}, true, cerr
	}
	return entry, true, nil
}

// Set writes through to the cache first, then the remote. A remote
// failure leaves the entry recorded locally and reports degraded=true.
func (s *TwoTierStatusStore) Set(ctx context.Context, entry StatusEntry) (degraded bool, err error) {
	if cerr := s.cache.SetStatus(ctx, entry); cerr != nil {
		s.logger.Warn(fmt.Sprintf("payroll: writing status cache: %v", cerr), cerr)
	}
	if err = s.remote.SetStatus(ctx, entry); err != nil {
		s.logger.Warn(fmt.Sprintf("payroll: status store unreachable, recorded locally only: %v", err), err)
		return true, nil
	}
	return false, nil
}
