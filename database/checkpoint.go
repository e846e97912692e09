package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wlvchandler/rollup-settlement-core/database/models"
)

// GetLastRecordedSequence returns the highest event sequence number the
// recorder has durably persisted for source, or 0 if it has never run.
func (db *Database) GetLastRecordedSequence(ctx context.Context, source string) (uint64, error) {
	collection := db.collection("last_recorded_sequence")

	var result models.LastRecordedSequence
	err := collection.FindOne(ctx, bson.D{{Key: "source", Value: source}}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get last recorded sequence: %w", err)
	}
	return result.Sequence, nil
}

func (db *Database) UpdateLastRecordedSequence(ctx context.Context, source string, sequence uint64) error {
	collection := db.collection("last_recorded_sequence")

	filter := bson.D{{Key: "source", Value: source}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "sequence", Value: sequence}}}}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update last recorded sequence: %w", err)
	}
	return nil
}
