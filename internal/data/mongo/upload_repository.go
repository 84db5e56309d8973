// Package mongo stores the statement upload history in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/upload"
)

const (
	// UploadCollectionName is the name of the upload history collection in MongoDB
	UploadCollectionName = "statement_uploads"
)

// UploadIndexes returns the indexes the upload collection relies on
func UploadIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "upload_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("upload_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "card_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("card_id_created_at"),
		},
	}
}

// UploadRepository implements the upload.Repository interface for MongoDB
type UploadRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewUploadRepository(logger *slog.Logger, db *mongo.Database) upload.Repository {
	return &UploadRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new upload record.
// Returns ErrDuplicateRecord if the upload id is already recorded.
func (r *UploadRepository) Create(ctx context.Context, record *upload.Record) error {
	collection := r.db.Collection(UploadCollectionName)

	_, err := collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return upload.ErrDuplicateRecord{UploadID: record.UploadID}
		}
		r.logger.Error("Failed to create upload record",
			"upload_id", record.UploadID.String(),
			"error", err)
		return fmt.Errorf("failed to create upload record: %w", err)
	}

	return nil
}

// GetByUploadID returns ErrRecordNotFound if the upload is unknown
func (r *UploadRepository) GetByUploadID(ctx context.Context, uploadID uuid.UUID) (*upload.Record, error) {
	collection := r.db.Collection(UploadCollectionName)

	filter := bson.M{"upload_id": uploadID}
	var record upload.Record
	err := collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, upload.ErrRecordNotFound{UploadID: uploadID}
		}
		r.logger.Error("Failed to get upload record",
			"upload_id", uploadID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get upload record: %w", err)
	}

	return &record, nil
}

// GetByCardID retrieves paginated upload records for a card, newest first
func (r *UploadRepository) GetByCardID(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]*upload.Record, error) {
	collection := r.db.Collection(UploadCollectionName)

	filter := bson.M{"card_id": cardID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get upload records",
			"card_id", cardID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get upload records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*upload.Record, 0)
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode upload records",
			"card_id", cardID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode upload records: %w", err)
	}

	return records, nil
}

func (r *UploadRepository) CountByCardID(ctx context.Context, cardID uuid.UUID) (int64, error) {
	collection := r.db.Collection(UploadCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"card_id": cardID})
	if err != nil {
		r.logger.Error("Failed to count upload records",
			"card_id", cardID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count upload records: %w", err)
	}

	return count, nil
}

// UpdateStatus sets the status, failure reason and processed timestamp.
// Returns ErrRecordNotFound if the record doesn't exist.
func (r *UploadRepository) UpdateStatus(ctx context.Context, uploadID uuid.UUID, status shared.UploadStatus, reason string) error {
	collection := r.db.Collection(UploadCollectionName)

	filter := bson.M{"upload_id": uploadID}
	update := bson.M{
		"$set": bson.M{
			"status":         status,
			"failure_reason": reason,
			"processed_at":   time.Now().UTC(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to update upload record status",
			"upload_id", uploadID.String(),
			"status", string(status),
			"error", err)
		return fmt.Errorf("failed to update upload record status: %w", err)
	}

	if result.MatchedCount == 0 {
		return upload.ErrRecordNotFound{UploadID: uploadID}
	}

	return nil
}

// Save writes the processing outcome of a record. Identity fields are left untouched.
func (r *UploadRepository) Save(ctx context.Context, record *upload.Record) error {
	collection := r.db.Collection(UploadCollectionName)

	filter := bson.M{"upload_id": record.UploadID}
	update := bson.M{
		"$set": bson.M{
			"status":            record.Status,
			"format":            record.Format,
			"statement_id":      record.StatementID,
			"statement_date":    record.StatementDate,
			"transaction_count": record.TransactionCount,
			"skipped_rows":      record.SkippedRows,
			"failure_reason":    record.FailureReason,
			"processed_at":      record.ProcessedAt,
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to save upload record",
			"upload_id", record.UploadID.String(),
			"error", err)
		return fmt.Errorf("failed to save upload record: %w", err)
	}

	if result.MatchedCount == 0 {
		return upload.ErrRecordNotFound{UploadID: record.UploadID}
	}

	return nil
}
