package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservelt/database/repository"
	"reservelt/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetByClerkID retrieves a user by their clerk id.
func (r *MongoUserRepo) GetByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"clerk_id": clerkID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", clerkID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user with clerk id %s: %w", clerkID, err)
	}
	return &user, nil
}

// Upsert writes the mutable profile fields and keeps id and created_at from the first insert.
func (r *MongoUserRepo) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	set := bson.M{
		"email":      user.Email,
		"name":       user.Name,
		"updated_at": now,
	}
	// Empty values leave a stored token or payout account alone.
	if user.FCMToken != "" {
		set["fcm_token"] = user.FCMToken
	}
	if user.PayoutAccountID != "" {
		set["payout_account_id"] = user.PayoutAccountID
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"id": uuid.New().String(), "clerk_id": user.ClerkID, "created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.User
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"clerk_id": user.ClerkID}, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to upsert user %s: %w", user.ClerkID, err)
	}
	return &stored, nil
}
