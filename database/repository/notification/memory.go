package notificationRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"reservelt/database/repository"
	"reservelt/models"
)

// MemoryNotificationRepo is the in-process NotificationRepository.
type MemoryNotificationRepo struct {
	mu    sync.Mutex
	items []models.Notification
}

func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{}
}

func (r *MemoryNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	r.items = append(r.items, *n)
	return nil
}

func (r *MemoryNotificationRepo) ListForUser(_ context.Context, clerkID string, limit int64) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Notification{}
	for _, n := range r.items {
		if n.ClerkID == clerkID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryNotificationRepo) GetByID(_ context.Context, id string) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.items {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, fmt.Errorf("notification %s: %w", id, repository.ErrNotFound)
}

func (r *MemoryNotificationRepo) SetRead(_ context.Context, id string, read bool) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].IsRead = read
			r.items[i].UpdatedAt = time.Now().UTC()
			n := r.items[i]
			return &n, nil
		}
	}
	return nil, fmt.Errorf("notification %s: %w", id, repository.ErrNotFound)
}
