package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/hr-portal-backend/internal/model"
)

const attendanceCollection = "employee_checkins"

type attendanceDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	EmployeeID   string        `bson:"employeeId"`
	Date         string        `bson:"date"`
	CheckInTime  time.Time     `bson:"checkInTime"`
	CheckOutTime *time.Time    `bson:"checkOutTime"`
	TotalMinutes float64       `bson:"totalMinutes"`
	Status       string        `bson:"status"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (d *attendanceDoc) toModel() *model.AttendanceRecord {
	return &model.AttendanceRecord{
		ID:           d.ID.Hex(),
		EmployeeID:   d.EmployeeID,
		Date:         d.Date,
		CheckInTime:  d.CheckInTime,
		CheckOutTime: d.CheckOutTime,
		TotalMinutes: d.TotalMinutes,
		Status:       model.AttendanceStatus(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// AttendanceRepo stores daily check-in records.
type AttendanceRepo struct{ col *mongo.Collection }

func NewAttendanceRepo(db *mongo.Database) *AttendanceRepo {
	return &AttendanceRepo{col: db.Collection(attendanceCollection)}
}

// EnsureIndexes creates the lookup index and the partial unique index that
// allows at most one checked-in record per employee and day.
func (r *AttendanceRepo) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.col, []indexSpec{
		{keys: bson.D{{Key: "employeeId", Value: 1}, {Key: "date", Value: -1}, {Key: "checkInTime", Value: -1}}},
		{
			keys:    bson.D{{Key: "employeeId", Value: 1}, {Key: "date", Value: 1}},
			unique:  true,
			partial: bson.D{{Key: "status", Value: string(model.AttendanceCheckedIn)}},
		},
	})
}

// InsertCheckIn stores a new open record. A concurrent open record for the
// same employee and day makes it fail with ErrDuplicate.
func (r *AttendanceRepo) InsertCheckIn(ctx context.Context, rec *model.AttendanceRecord) error {
	d := attendanceDoc{
		EmployeeID:   rec.EmployeeID,
		Date:         rec.Date,
		CheckInTime:  rec.CheckInTime,
		TotalMinutes: 0,
		Status:       string(model.AttendanceCheckedIn),
		CreatedAt:    rec.CheckInTime,
		UpdatedAt:    rec.CheckInTime,
	}
	res, err := r.col.InsertOne(ctx, d)
	if err != nil {
		return wrapError(err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	rec.Status = model.AttendanceCheckedIn
	rec.CreatedAt, rec.UpdatedAt = d.CreatedAt, d.UpdatedAt
	return nil
}

// FindOpen returns the checked-in record for employeeID on date.
func (r *AttendanceRepo) FindOpen(ctx context.Context, employeeID, date string) (*model.AttendanceRecord, error) {
	d, err := findOne[attendanceDoc](ctx, r.col, bson.D{
		{Key: "employeeId", Value: employeeID},
		{Key: "date", Value: date},
		{Key: "status", Value: string(model.AttendanceCheckedIn)},
	})
	if err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

// FindLatest returns the most recent record of the day, open or closed.
func (r *AttendanceRepo) FindLatest(ctx context.Context, employeeID, date string) (*model.AttendanceRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "checkInTime", Value: -1}})
	d, err := findOne[attendanceDoc](ctx, r.col, bson.D{
		{Key: "employeeId", Value: employeeID},
		{Key: "date", Value: date},
	}, opts)
	if err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

// Close checks out an open record. It only applies while the record is still
// checked in; a record closed concurrently yields ErrConflict.
func (r *AttendanceRepo) Close(ctx context.Context, id string, at time.Time, minutes float64) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "status", Value: string(model.AttendanceCheckedIn)}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "checkOutTime", Value: at},
			{Key: "totalMinutes", Value: minutes},
			{Key: "status", Value: string(model.AttendanceCheckedOut)},
			{Key: "updatedAt", Value: at},
		}}},
	)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// History returns up to limit records, newest day first.
func (r *AttendanceRepo) History(ctx context.Context, employeeID string, limit int) ([]*model.AttendanceRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "checkInTime", Value: -1}}).
		SetLimit(int64(limit))
	docs, err := findMany[attendanceDoc](ctx, r.col, bson.D{{Key: "employeeId", Value: employeeID}}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*model.AttendanceRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}
