package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/hr-portal-backend/internal/model"
)

// globalScope keys documents that are shared by every employee.
const globalScope = "global"

// PortalDocRepo serves the employee-portal documents. Each document is created
// from defaults on first read.
type PortalDocRepo struct{ db *mongo.Database }

func NewPortalDocRepo(db *mongo.Database) *PortalDocRepo { return &PortalDocRepo{db: db} }

// GetOrCreate returns the document of kind for employeeID, inserting defaults
// when none exists. An empty employeeID addresses the shared document.
func (r *PortalDocRepo) GetOrCreate(ctx context.Context, kind model.PortalDocKind, employeeID string, defaults map[string]any) (map[string]any, error) {
	filter := bson.D{{Key: "scope", Value: globalScope}}
	if employeeID != "" {
		filter = bson.D{{Key: "employeeId", Value: employeeID}}
	}
	now := time.Now().UTC()
	onInsert := bson.M{"createdAt": now, "updatedAt": now}
	for k, v := range defaults {
		onInsert[k] = v
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc bson.M
	err := r.db.Collection(string(kind)).
		FindOneAndUpdate(ctx, filter, bson.D{{Key: "$setOnInsert", Value: onInsert}}, opts).
		Decode(&doc)
	if err != nil {
		return nil, wrapError(err)
	}
	out, _ := plain(doc).(map[string]any)
	return out, nil
}

// plain converts decoded BSON values into JSON-friendly Go values.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = plain(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = plain(val)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.A:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = plain(val)
		}
		return s
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = plain(val)
		}
		return s
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}
