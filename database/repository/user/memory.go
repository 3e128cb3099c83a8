package userRepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reservelt/database/repository"
	"reservelt/models"

	"github.com/google/uuid"
)

// MemoryUserRepo is the in-process UserRepository.
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User // by clerk id
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]models.User)}
}

func (r *MemoryUserRepo) GetByClerkID(_ context.Context, clerkID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[clerkID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", clerkID, repository.ErrNotFound)
	}
	return &u, nil
}

func (r *MemoryUserRepo) Upsert(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored, ok := r.users[user.ClerkID]
	if !ok {
		stored = models.User{ID: uuid.New().String(), ClerkID: user.ClerkID, CreatedAt: now}
	}
	stored.Email = user.Email
	stored.Name = user.Name
	if user.FCMToken != "" {
		stored.FCMToken = user.FCMToken
	}
	if user.PayoutAccountID != "" {
		stored.PayoutAccountID = user.PayoutAccountID
	}
	stored.UpdatedAt = now
	r.users[user.ClerkID] = stored
	return &stored, nil
}
