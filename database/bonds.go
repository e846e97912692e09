package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wlvchandler/rollup-settlement-core/database/models"
)

// UpsertOperatorBond writes bond as the current projection for its
// Operator.
func (db *Database) UpsertOperatorBond(ctx context.Context, bond models.OperatorBond) error {
	collection := db.collection("bonds")
	filter := bson.D{{Key: "operator", Value: bond.Operator}}
	update := bson.D{{Key: "$set", Value: bond}}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert operator bond: %w", err)
	}
	return nil
}

func (db *Database) GetOperatorBond(ctx context.Context, operator string) (models.OperatorBond, error) {
	collection := db.collection("bonds")

	var bond models.OperatorBond
	if err := collection.FindOne(ctx, bson.D{{Key: "operator", Value: operator}}).Decode(&bond); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.OperatorBond{}, err
		}
		return models.OperatorBond{}, fmt.Errorf("failed to get operator bond: %w", err)
	}
	return bond, nil
}
