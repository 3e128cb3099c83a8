package models

import "time"

// User is the local profile kept for a clerk identity. Only the fields the rental
// flow needs to reach a person or pay them out live here.
type User struct {
	ID              string    `bson:"id" json:"id"`
	ClerkID         string    `bson:"clerk_id" json:"clerkId"`
	Email           string    `bson:"email" json:"email"`
	Name            string    `bson:"name" json:"name"`
	FCMToken        string    `bson:"fcm_token,omitempty" json:"-"`
	PayoutAccountID string    `bson:"payout_account_id,omitempty" json:"payoutAccountId,omitempty"`
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updatedAt"`
}
