package otpRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservelt/database/repository"
	"reservelt/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOTPRepo implements OTPRepository using MongoDB.
type MongoOTPRepo struct {
	coll *mongo.Collection
}

// NewMongoOTPRepo creates the repository and its indexes. Expired codes are
// removed by a TTL index; until then they are inert because every read that
// matters filters on expires_at.
func NewMongoOTPRepo(db *mongo.Database) OTPRepository {
	repo := &MongoOTPRepo{coll: db.Collection("otps")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create otp indexes: %v\n", err)
	}
	return repo
}

func (r *MongoOTPRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "type", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(3600)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoOTPRepo) Upsert(ctx context.Context, code *models.OneTimeCode) (*models.OneTimeCode, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"booking_id": code.BookingID, "type": code.Type}
	update := bson.M{
		"$set": bson.M{
			"code":            code.Code,
			"expires_at":      code.ExpiresAt,
			"owner_verified":  false,
			"renter_verified": false,
			"updated_at":      code.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"id":         code.ID,
			"created_at": code.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.OneTimeCode
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to store code for booking %s: %w", code.BookingID, err)
	}
	return &stored, nil
}

func (r *MongoOTPRepo) Get(ctx context.Context, bookingID string, otpType models.OTPType) (*models.OneTimeCode, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var code models.OneTimeCode
	err := r.coll.FindOne(ctx, bson.M{"booking_id": bookingID, "type": otpType}).Decode(&code)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s code for booking %s: %w", otpType, bookingID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch code for booking %s: %w", bookingID, err)
	}
	return &code, nil
}

func (r *MongoOTPRepo) MarkVerified(ctx context.Context, bookingID string, otpType models.OTPType, code string, party models.Party, now time.Time) (*models.OneTimeCode, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"booking_id": bookingID,
		"type":       otpType,
		"code":       code,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{verifiedField(party): true, "updated_at": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before models.OneTimeCode
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s code for booking %s: %w", otpType, bookingID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to verify code for booking %s: %w", bookingID, err)
	}
	return &before, nil
}
