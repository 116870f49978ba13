package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"advisory-api/internal/model"
)

const (
	codeNamespaceExists    = 48
	codeDocumentValidation = 121
)

// validators mirror the CHECK constraints of the postgres schema.
func validators() map[string]bson.D {
	return map[string]bson.D{
		colBusinesses: {{Key: "$jsonSchema", Value: bson.D{
			{Key: "bsonType", Value: "object"},
			{Key: "required", Value: bson.A{"businessId", "name", "description"}},
			{Key: "properties", Value: bson.D{
				{Key: "name", Value: bson.D{{Key: "bsonType", Value: "string"}, {Key: "minLength", Value: 1}}},
				{Key: "description", Value: bson.D{{Key: "bsonType", Value: "string"}, {Key: "minLength", Value: 1}}},
			}},
		}}},
		colAppointments: {{Key: "$jsonSchema", Value: bson.D{
			{Key: "bsonType", Value: "object"},
			{Key: "required", Value: bson.A{"business", "user", "date", "type", "status"}},
			{Key: "properties", Value: bson.D{
				{Key: "business", Value: bson.D{{Key: "bsonType", Value: "objectId"}}},
				{Key: "user", Value: bson.D{{Key: "bsonType", Value: "objectId"}}},
				{Key: "date", Value: bson.D{{Key: "bsonType", Value: "date"}}},
				{Key: "type", Value: bson.D{{Key: "enum", Value: bson.A{
					string(model.MeetingRemote), string(model.MeetingOnsite),
				}}}},
				{Key: "status", Value: bson.D{{Key: "enum", Value: bson.A{
					string(model.StatusScheduled), string(model.StatusCompleted), string(model.StatusCancelled),
				}}}},
			}},
		}}},
	}
}

// ensureValidators creates the collections with their validator, or
// replaces the validator on collections that already exist.
func ensureValidators(ctx context.Context, db *mongo.Database) error {
	for col, v := range validators() {
		err := db.CreateCollection(ctx, col, options.CreateCollection().SetValidator(v))
		if err == nil {
			continue
		}
		if !hasCode(err, codeNamespaceExists) {
			return fmt.Errorf("mongo: create %s: %w", col, err)
		}
		cmd := bson.D{{Key: "collMod", Value: col}, {Key: "validator", Value: v}}
		if err := db.RunCommand(ctx, cmd).Err(); err != nil {
			return fmt.Errorf("mongo: validator on %s: %w", col, err)
		}
	}
	return nil
}

func hasCode(err error, code int32) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == int(code) {
				return true
			}
		}
	}
	return false
}
