package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"alert-registry/internal/models"
)

// MemoryStore keeps alerts in process memory. It is used in tests and when
// the service runs with DB_DSN=memory://.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	alerts map[int64]models.Alert
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		alerts: make(map[int64]models.Alert),
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) InsertAlert(_ context.Context, alert models.Alert) (models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert.ID = m.nextID
	alert.Timestamp = models.NormalizeTime(alert.Timestamp)
	m.nextID++
	m.alerts[alert.ID] = alert
	return alert, nil
}

func (m *MemoryStore) GetAlert(_ context.Context, id int64) (models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alert, ok := m.alerts[id]
	if !ok {
		return models.Alert{}, fmt.Errorf("alert %d: %w", id, models.ErrNotFound)
	}
	return alert, nil
}

func (m *MemoryStore) DeleteAlert(_ context.Context, id int64) (models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[id]
	if !ok {
		return models.Alert{}, fmt.Errorf("alert %d: %w", id, models.ErrNotFound)
	}
	delete(m.alerts, id)
	return alert, nil
}

func (m *MemoryStore) ListAlerts(_ context.Context, q models.ListQuery) ([]models.Alert, error) {
	matched := m.sorted(func(a models.Alert) bool {
		return q.Category == "" || a.Category == q.Category
	})
	return page(matched, q.Skip, q.Limit), nil
}

func (m *MemoryStore) ListAlertsInBox(_ context.Context, box models.BoundingBox, limit int) ([]models.Alert, error) {
	matched := m.sorted(func(a models.Alert) bool {
		return box.Contains(a.Latitude, a.Longitude)
	})
	return page(matched, 0, limit), nil
}

// Len reports how many alerts are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.alerts)
}

// sorted returns the alerts accepted by keep, newest first with ties broken by id.
func (m *MemoryStore) sorted(keep func(models.Alert) bool) []models.Alert {
	m.mu.RLock()
	out := make([]models.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if keep(a) {
			out = append(out, a)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func page(list []models.Alert, skip, limit int) []models.Alert {
	if skip >= len(list) {
		return []models.Alert{}
	}
	list = list[skip:]
	if limit >= 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
