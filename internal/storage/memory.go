package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/saferides/internal/models"
)

// MemoryStore keeps everything in process. Used for local runs and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	rides     map[string]models.RideRequest
	scheduled map[string]models.ScheduledRide
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rides:     make(map[string]models.RideRequest),
		scheduled: make(map[string]models.ScheduledRide),
	}
}

func (m *MemoryStore) SaveRide(ctx context.Context, r *models.RideRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = *r
	return nil
}

func (m *MemoryStore) UpdateRide(ctx context.Context, r *models.RideRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = *r
	return nil
}

func (m *MemoryStore) ListRides(ctx context.Context, riderID string) ([]models.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.RideRequest, 0)
	for _, r := range m.rides {
		if r.RiderID == riderID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (m *MemoryStore) SaveScheduled(ctx context.Context, s *models.ScheduledRide) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled[s.ID] = *s
	return nil
}

func (m *MemoryStore) UpdateScheduled(ctx context.Context, s *models.ScheduledRide) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scheduled[s.ID]; !ok {
		return fmt.Errorf("%w: scheduled ride %s", models.ErrNotFound, s.ID)
	}
	m.scheduled[s.ID] = *s
	return nil
}

func (m *MemoryStore) GetScheduled(ctx context.Context, id string) (*models.ScheduledRide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scheduled[id]
	if !ok {
		return nil, fmt.Errorf("%w: scheduled ride %s", models.ErrNotFound, id)
	}
	cp := s
	return &cp, nil
}

func (m *MemoryStore) ListScheduled(ctx context.Context, riderID string, status models.ScheduleStatus) ([]models.ScheduledRide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ScheduledRide, 0)
	for _, s := range m.scheduled {
		if s.RiderID != riderID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	return out, nil
}
