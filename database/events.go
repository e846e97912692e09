package database

import (
	"fmt"

	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wlvchandler/rollup-settlement-core/database/models"
)

func buildEventFilter(f models.EventFilter) bson.M {
	filter := bson.M{}
	if f.Kind != "" {
		filter["kind"] = f.Kind
	}
	if f.User != "" {
		filter["user"] = f.User
	}
	if f.Operator != "" {
		filter["operator"] = f.Operator
	}
	return filter
}

// BatchCreateEvents inserts events in a single unordered write, the same
// tolerance for partial failure the teacher's batch deposit/withdrawal
// inserts use: a duplicate sequence number (the recorder re-delivering an
// event it already wrote, e.g. after a restart) is not an error.
func (db *Database) BatchCreateEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	collection := db.collection("events")
	documents := make([]interface{}, len(events))
	for i, ev := range events {
		documents[i] = ev
	}

	_, err := collection.InsertMany(ctx, documents, options.InsertMany().SetOrdered(false))
	if err != nil {
		if writeErr, ok := err.(mongo.BulkWriteException); ok {
			successfulInserts := len(events) - len(writeErr.WriteErrors)
			if successfulInserts > 0 && db.logger != nil {
				db.logger.Info("partially inserted events",
					"successful", successfulInserts,
					"failed", len(writeErr.WriteErrors))
			}
			allDuplicates := true
			for _, we := range writeErr.WriteErrors {
				if we.Code != 11000 {
					allDuplicates = false
					break
				}
			}
			if allDuplicates {
				return nil
			}
		}
		return fmt.Errorf("failed to insert events: %w", err)
	}

	return nil
}

// GetEvents returns a filtered, paginated, newest-first view of the
// event log.
func (db *Database) GetEvents(ctx context.Context, filter models.EventFilter, page, pageSize int64) (*models.PaginatedResult, error) {
	collection := db.collection("events")
	mongoFilter := buildEventFilter(filter)
	skip := (page - 1) * pageSize

	total, err := collection.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "sequence", Value: -1}}).
		SetSkip(skip).
		SetLimit(pageSize)

	cursor, err := collection.Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	items := make([]interface{}, len(events))
	for i, ev := range events {
		items[i] = ev
	}

	return &models.PaginatedResult{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}
