package paymentRepo

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

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

func NewMongoPaymentRepo(db *mongo.Database) PaymentRepository {
	repo := &MongoPaymentRepo{coll: db.Collection("payments")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create payment indexes: %v\n", err)
	}
	return repo
}

// ensureIndexes also enforces "one completed payment per booking" at the store level.
func (r *MongoPaymentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "charge_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_completed_payment_per_booking").
				SetPartialFilterExpression(bson.M{"status": models.PaymentRecordCompleted}),
		},
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepo) GetByChargeID(ctx context.Context, chargeID string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var payment models.Payment
	if err := r.coll.FindOne(ctx, bson.M{"charge_id": chargeID}).Decode(&payment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("payment for charge %s: %w", chargeID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch payment for charge %s: %w", chargeID, err)
	}
	return &payment, nil
}

func (r *MongoPaymentRepo) FindByBooking(ctx context.Context, bookingID string) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payments for booking %s: %w", bookingID, err)
	}
	defer cursor.Close(ctx)

	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}

func (r *MongoPaymentRepo) UpdateIf(ctx context.Context, chargeID string, from []models.PaymentRecordStatus, patch Patch) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"charge_id": chargeID}
	if len(from) > 0 {
		filter["status"] = bson.M{"$in": from}
	}
	update := bson.M{"$set": patch.setDocument(time.Now().UTC())}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Payment
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update payment for charge %s: %w", chargeID, err)
	}
	count, err := r.coll.CountDocuments(ctx, bson.M{"charge_id": chargeID})
	if err != nil {
		return nil, fmt.Errorf("failed to check payment for charge %s: %w", chargeID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("payment for charge %s: %w", chargeID, repository.ErrNotFound)
	}
	return nil, fmt.Errorf("payment for charge %s: %w", chargeID, repository.ErrConditionNotMet)
}
