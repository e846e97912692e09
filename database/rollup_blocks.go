package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wlvchandler/rollup-settlement-core/database/models"
)

// UpsertRollupBlock writes block as the current projection for its
// Number, creating the document on first sight and overwriting it on
// every later status change (challenged, finalized).
func (db *Database) UpsertRollupBlock(ctx context.Context, block models.RollupBlock) error {
	collection := db.collection("rollup_blocks")
	filter := bson.D{{Key: "number", Value: block.Number}}
	update := bson.D{{Key: "$set", Value: block}}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert rollup block: %w", err)
	}
	return nil
}

func (db *Database) GetRollupBlock(ctx context.Context, number uint64) (models.RollupBlock, error) {
	collection := db.collection("rollup_blocks")

	var block models.RollupBlock
	if err := collection.FindOne(ctx, bson.D{{Key: "number", Value: number}}).Decode(&block); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.RollupBlock{}, err
		}
		return models.RollupBlock{}, fmt.Errorf("failed to get rollup block: %w", err)
	}
	return block, nil
}

func (db *Database) GetRollupBlocksByOperator(ctx context.Context, operator string) ([]models.RollupBlock, error) {
	collection := db.collection("rollup_blocks")

	cursor, err := collection.Find(ctx, bson.D{{Key: "operator", Value: operator}})
	if err != nil {
		return nil, fmt.Errorf("failed to query rollup blocks: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []models.RollupBlock
	if err := cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode rollup blocks: %w", err)
	}
	return blocks, nil
}
