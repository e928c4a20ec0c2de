package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/hr-portal-backend/internal/model"
)

// userDoc is the stored shape of a user. Field names match the documents
// written by the other portals sharing these databases.
type userDoc struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Name       string        `bson:"name"`
	Email      string        `bson:"email"`
	Password   string        `bson:"password"`
	Role       string        `bson:"role,omitempty"`
	IsActive   *bool         `bson:"isActive,omitempty"`
	EmployeeID string        `bson:"employeeId,omitempty"`
	Department string        `bson:"department,omitempty"`
	Company    string        `bson:"company,omitempty"`
	Phone      string        `bson:"phone,omitempty"`
	Avatar     string        `bson:"avatar,omitempty"`
	Portals    []string      `bson:"portals,omitempty"`
	CreatedAt  time.Time     `bson:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt"`
}

func (d *userDoc) toModel() *model.User {
	return &model.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         model.ParseRole(d.Role),
		Status:       model.StatusFromActive(d.IsActive),
		EmployeeID:   d.EmployeeID,
		Department:   d.Department,
		Company:      d.Company,
		Phone:        d.Phone,
		Avatar:       d.Avatar,
		Portals:      d.Portals,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func boolPtr(b bool) *bool { return &b }

// UserRepo stores users in a MongoDB collection. The same type backs the
// primary login store and each portal's shadow store.
type UserRepo struct{ col *mongo.Collection }

func NewUserRepo(db *mongo.Database, collection string) *UserRepo {
	return &UserRepo{col: db.Collection(collection)}
}

// EnsureIndexes creates the unique email index.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.col, []indexSpec{
		{keys: bson.D{{Key: "email", Value: 1}}, unique: true},
	})
}

// FindByEmail matches email case-insensitively.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	d, err := findOne[userDoc](ctx, r.col, bson.D{{Key: "email", Value: emailCI(email)}})
	if err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

// FindByEmailExact matches email byte for byte.
func (r *UserRepo) FindByEmailExact(ctx context.Context, email string) (*model.User, error) {
	d, err := findOne[userDoc](ctx, r.col, bson.D{{Key: "email", Value: email}})
	if err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	d, err := findOne[userDoc](ctx, r.col, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

// FindByIDs returns the users matching ids. Unknown or malformed ids are skipped.
func (r *UserRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := objectID(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*model.User{}, nil
	}
	docs, err := findMany[userDoc](ctx, r.col, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}})
	if err != nil {
		return nil, err
	}
	out := make([]*model.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	docs, err := findMany[userDoc](ctx, r.col, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*model.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// Create inserts u and sets its ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	d := userDoc{
		Name:       u.Name,
		Email:      model.NormalizeEmail(u.Email),
		Password:   u.PasswordHash,
		Role:       string(u.Role),
		IsActive:   boolPtr(u.Status.Active()),
		EmployeeID: u.EmployeeID,
		Department: u.Department,
		Company:    u.Company,
		Phone:      u.Phone,
		Avatar:     u.Avatar,
		Portals:    u.Portals,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	res, err := r.col.InsertOne(ctx, d)
	if err != nil {
		return wrapError(err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		u.ID = oid.Hex()
	}
	u.Email = d.Email
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// Update applies p to the user with the given id and returns the result.
func (r *UserRepo) Update(ctx context.Context, id string, p model.UserPatch) (*model.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if p.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *p.Name})
	}
	if p.Email != nil {
		set = append(set, bson.E{Key: "email", Value: model.NormalizeEmail(*p.Email)})
	}
	if p.PasswordHash != nil {
		set = append(set, bson.E{Key: "password", Value: *p.PasswordHash})
	}
	if p.Role != nil {
		set = append(set, bson.E{Key: "role", Value: string(*p.Role)})
	}
	if p.Status != nil {
		set = append(set, bson.E{Key: "isActive", Value: p.Status.Active()})
	}
	if p.Portals != nil {
		set = append(set, bson.E{Key: "portals", Value: *p.Portals})
	}
	if p.Phone != nil {
		set = append(set, bson.E{Key: "phone", Value: *p.Phone})
	}
	if err := updateFields(ctx, r.col, oid, set); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Upsert makes sure a user with u.Email exists and returns it. An existing
// record is matched case-insensitively. When overwrite is set, its name, role
// and status are replaced by u's. Otherwise it is returned unchanged. The
// password hash is only written on insert.
func (r *UserRepo) Upsert(ctx context.Context, u *model.User, overwrite bool) (*model.User, error) {
	existing, err := r.FindByEmail(ctx, u.Email)
	switch {
	case err == nil:
		if !overwrite {
			return existing, nil
		}
		name, role, status := u.Name, u.Role, u.Status
		return r.Update(ctx, existing.ID, model.UserPatch{Name: &name, Role: &role, Status: &status})
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	now := time.Now().UTC()
	email := model.NormalizeEmail(u.Email)
	onInsert := bson.D{
		{Key: "email", Value: email},
		{Key: "password", Value: u.PasswordHash},
		{Key: "createdAt", Value: now},
	}
	fields := bson.D{
		{Key: "name", Value: u.Name},
		{Key: "role", Value: string(u.Role)},
		{Key: "isActive", Value: u.Status.Active()},
		{Key: "updatedAt", Value: now},
	}
	update := bson.D{{Key: "$setOnInsert", Value: append(onInsert, fields...)}}
	if overwrite {
		update = bson.D{
			{Key: "$setOnInsert", Value: onInsert},
			{Key: "$set", Value: fields},
		}
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var d userDoc
	err = r.col.FindOneAndUpdate(ctx, bson.D{{Key: "email", Value: email}}, update, opts).Decode(&d)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent upsert won the insert; the record now exists
		return r.FindByEmail(ctx, email)
	}
	if err != nil {
		return nil, wrapError(err)
	}
	return d.toModel(), nil
}
