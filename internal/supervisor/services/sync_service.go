// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package services

import (
	"context"
	"fmt"
)

// StartStopManager matches the sync manager's lifecycle: Start spawns the
// internal goroutine and returns, Stop blocks until it has drained.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// SyncService runs the vector sync manager as a supervised service.
type SyncService struct {
	manager StartStopManager
}

// NewSyncService wraps manager.
func NewSyncService(manager StartStopManager) *SyncService {
	return &SyncService{manager: manager}
}

// Serve implements suture.Service: start, block on ctx, stop. A Start
// failure returns immediately so suture applies its restart policy.
func (s *SyncService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("sync manager start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("sync manager stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *SyncService) String() string {
	return "sync-manager"
}
