package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/hr-portal-backend/internal/model"
)

const ticketCollection = "queries"

type ticketDoc struct {
	ID                   bson.ObjectID  `bson:"_id,omitempty"`
	Platform             string         `bson:"platform"`
	CustomerName         string         `bson:"customerName"`
	CustomerMobile       string         `bson:"customerMobile"`
	CustomerEmail        string         `bson:"customerEmail,omitempty"`
	CompanyName          string         `bson:"companyName,omitempty"`
	Location             string         `bson:"location,omitempty"`
	CustomerQuery        string         `bson:"customerQuery"`
	AgentRemark          string         `bson:"agentRemark,omitempty"`
	QueryReceivedDate    time.Time      `bson:"queryReceivedDate"`
	AgentCallingDate     *time.Time     `bson:"agentCallingDate,omitempty"`
	Status               string         `bson:"status"`
	AssignedTo           *bson.ObjectID `bson:"assignedTo"`
	CreatedBy            bson.ObjectID  `bson:"createdBy"`
	QueryType            string         `bson:"queryType,omitempty"`
	HowDidYouHearAboutUs string         `bson:"howDidYouHearAboutUs,omitempty"`
	CreatedAt            time.Time      `bson:"createdAt"`
	UpdatedAt            time.Time      `bson:"updatedAt"`
}

func (d *ticketDoc) toModel() *model.Ticket {
	t := &model.Ticket{
		ID:                   d.ID.Hex(),
		Platform:             model.Platform(d.Platform),
		CustomerName:         d.CustomerName,
		CustomerMobile:       d.CustomerMobile,
		CustomerEmail:        d.CustomerEmail,
		CompanyName:          d.CompanyName,
		Location:             d.Location,
		CustomerQuery:        d.CustomerQuery,
		AgentRemark:          d.AgentRemark,
		QueryReceivedDate:    d.QueryReceivedDate,
		AgentCallingDate:     d.AgentCallingDate,
		Status:               model.TicketStatus(d.Status),
		CreatedBy:            d.CreatedBy.Hex(),
		QueryType:            d.QueryType,
		HowDidYouHearAboutUs: d.HowDidYouHearAboutUs,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if d.AssignedTo != nil {
		t.AssignedTo = d.AssignedTo.Hex()
	}
	return t
}

// optionalID converts an optional hex reference. Empty or malformed input is nil.
func optionalID(id string) *bson.ObjectID {
	if id == "" {
		return nil
	}
	oid, err := objectID(id)
	if err != nil {
		return nil
	}
	return &oid
}

// TicketRepo persists query-tracker tickets.
type TicketRepo struct{ col *mongo.Collection }

func NewTicketRepo(db *mongo.Database) *TicketRepo {
	return &TicketRepo{col: db.Collection(ticketCollection)}
}

func (r *TicketRepo) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.col, []indexSpec{
		{keys: bson.D{{Key: "createdBy", Value: 1}}},
		{keys: bson.D{{Key: "assignedTo", Value: 1}}},
		{keys: bson.D{{Key: "status", Value: 1}}},
		{keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
}

func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	creator, err := objectID(t.CreatedBy)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if t.QueryReceivedDate.IsZero() {
		t.QueryReceivedDate = now
	}
	d := ticketDoc{
		Platform:             string(t.Platform),
		CustomerName:         t.CustomerName,
		CustomerMobile:       t.CustomerMobile,
		CustomerEmail:        t.CustomerEmail,
		CompanyName:          t.CompanyName,
		Location:             t.Location,
		CustomerQuery:        t.CustomerQuery,
		AgentRemark:          t.AgentRemark,
		QueryReceivedDate:    t.QueryReceivedDate,
		AgentCallingDate:     t.AgentCallingDate,
		Status:               string(t.Status),
		AssignedTo:           optionalID(t.AssignedTo),
		CreatedBy:            creator,
		QueryType:            t.QueryType,
		HowDidYouHearAboutUs: t.HowDidYouHearAboutUs,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	res, err := r.col.InsertOne(ctx, d)
	if err != nil {
		return wrapError(err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		t.ID = oid.Hex()
	}
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}

func (r *TicketRepo) FindByID(ctx context.Context, id string) (*model.Ticket, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	d, err := findOne[ticketDoc](ctx, r.col, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return nil, err
	}
	return d.toModel(), nil
}

// Update applies p. createdBy is never part of a patch.
func (r *TicketRepo) Update(ctx context.Context, id string, p model.TicketPatch) (*model.Ticket, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	str := func(key string, v *string) {
		if v != nil {
			set = append(set, bson.E{Key: key, Value: *v})
		}
	}
	if p.Platform != nil {
		set = append(set, bson.E{Key: "platform", Value: string(*p.Platform)})
	}
	str("customerName", p.CustomerName)
	str("customerMobile", p.CustomerMobile)
	str("customerEmail", p.CustomerEmail)
	str("companyName", p.CompanyName)
	str("location", p.Location)
	str("customerQuery", p.CustomerQuery)
	str("agentRemark", p.AgentRemark)
	str("queryType", p.QueryType)
	str("howDidYouHearAboutUs", p.HowDidYouHearAboutUs)
	if p.QueryReceivedDate != nil {
		set = append(set, bson.E{Key: "queryReceivedDate", Value: *p.QueryReceivedDate})
	}
	if p.AgentCallingDate != nil {
		set = append(set, bson.E{Key: "agentCallingDate", Value: *p.AgentCallingDate})
	}
	if p.Status != nil {
		set = append(set, bson.E{Key: "status", Value: string(*p.Status)})
	}
	if p.AssignedTo != nil {
		set = append(set, bson.E{Key: "assignedTo", Value: optionalID(*p.AssignedTo)})
	}
	if err := updateFields(ctx, r.col, oid, set); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of tickets, newest first, plus the total match count.
// A zero Limit returns every match.
func (r *TicketRepo) List(ctx context.Context, f model.TicketFilter) ([]*model.Ticket, int64, error) {
	filter := ticketFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetSkip(f.Skip()).SetLimit(int64(f.Limit))
	}
	docs, err := findMany[ticketDoc](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*model.Ticket, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, total, nil
}

// ticketFilter builds the query document. Visibility and search are separate
// $and clauses so a search never widens what a user may see.
func ticketFilter(f model.TicketFilter) bson.D {
	var and bson.A
	if f.Status != "" {
		and = append(and, bson.D{{Key: "status", Value: string(f.Status)}})
	}
	if f.AssignedTo != "" {
		and = append(and, bson.D{{Key: "assignedTo", Value: optionalID(f.AssignedTo)}})
	}
	if f.CreatedBy != "" {
		and = append(and, bson.D{{Key: "createdBy", Value: optionalID(f.CreatedBy)}})
	}
	if f.VisibleTo != "" {
		me := optionalID(f.VisibleTo)
		and = append(and, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "createdBy", Value: me}},
			bson.D{{Key: "assignedTo", Value: me}},
		}}})
	}
	if f.Search != "" {
		rx := containsCI(f.Search)
		and = append(and, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "customerName", Value: rx}},
			bson.D{{Key: "customerMobile", Value: rx}},
			bson.D{{Key: "queryType", Value: rx}},
		}}})
	}
	if len(and) == 0 {
		return bson.D{}
	}
	return bson.D{{Key: "$and", Value: and}}
}
