package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// wrapError maps driver errors onto the package sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// findOne decodes a single document. A miss is reported as ErrNotFound.
func findOne[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...options.Lister[options.FindOneOptions]) (*T, error) {
	var result T
	if err := col.FindOne(ctx, filter, opts...).Decode(&result); err != nil {
		return nil, wrapError(err)
	}
	return &result, nil
}

// findMany decodes every document matched by filter.
func findMany[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	results := []*T{}
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapError(err)
	}
	return results, nil
}

// updateFields applies $set to the document with the given _id.
func updateFields(ctx context.Context, col *mongo.Collection, id bson.ObjectID, set bson.D) error {
	res, err := col.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// objectID parses a hex id. Malformed ids are reported as ErrNotFound since
// no document can carry them.
func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return bson.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// emailCI matches an email case-insensitively and exactly.
func emailCI(email string) bson.Regex {
	return bson.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(email)) + "$", Options: "i"}
}

// containsCI matches a substring case-insensitively.
func containsCI(s string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// indexSpec describes one index created at startup.
type indexSpec struct {
	keys    bson.D
	unique  bool
	partial bson.D
}

func ensureIndexes(ctx context.Context, col *mongo.Collection, specs []indexSpec) error {
	models := make([]mongo.IndexModel, 0, len(specs))
	for _, s := range specs {
		opts := options.Index()
		if s.unique {
			opts.SetUnique(true)
		}
		if len(s.partial) > 0 {
			opts.SetPartialFilterExpression(s.partial)
		}
		models = append(models, mongo.IndexModel{Keys: s.keys, Options: opts})
	}
	if len(models) == 0 {
		return nil
	}
	_, err := col.Indexes().CreateMany(ctx, models)
	return wrapError(err)
}
