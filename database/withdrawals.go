package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wlvchandler/rollup-settlement-core/database/models"
)

// UpsertWithdrawal writes withdrawal as the current projection for its
// ID.
func (db *Database) UpsertWithdrawal(ctx context.Context, withdrawal models.Withdrawal) error {
	collection := db.collection("withdrawals")
	filter := bson.D{{Key: "id", Value: withdrawal.ID}}
	update := bson.D{{Key: "$set", Value: withdrawal}}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert withdrawal: %w", err)
	}
	return nil
}

func (db *Database) GetWithdrawal(ctx context.Context, id string) (models.Withdrawal, error) {
	collection := db.collection("withdrawals")

	var withdrawal models.Withdrawal
	if err := collection.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&withdrawal); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Withdrawal{}, err
		}
		return models.Withdrawal{}, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return withdrawal, nil
}

func (db *Database) GetWithdrawalsByUser(ctx context.Context, user string) ([]models.Withdrawal, error) {
	collection := db.collection("withdrawals")

	cursor, err := collection.Find(ctx, bson.D{{Key: "user", Value: user}})
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer cursor.Close(ctx)

	var withdrawals []models.Withdrawal
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, fmt.Errorf("failed to decode withdrawals: %w", err)
	}
	return withdrawals, nil
}
