package appointments

import (
	"context"
	"time"

	"dern-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, appt models.Appointment) error
	GetByID(ctx context.Context, id string) (models.Appointment, error)
	// ListActiveByTechnician returns the technician's appointments that still hold time,
	// ordered by start time then id, leaving out excludeID when it is set.
	ListActiveByTechnician(ctx context.Context, technicianID, excludeID string) ([]models.Appointment, error)
	ListByTechnicianInRange(ctx context.Context, technicianID string, start, end time.Time) ([]models.Appointment, error)
	// Update writes appt only while the stored document still has expectedStatus and
	// expectedUpdatedAt; otherwise it reports mongo.ErrNoDocuments.
	Update(ctx context.Context, appt models.Appointment, expectedStatus string, expectedUpdatedAt time.Time) (models.Appointment, error)
	Cancel(ctx context.Context, id, reason string, at time.Time, by string) (models.Appointment, error)
	List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Appointment, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
}

// TechnicianLookup resolves a technician record. A missing record is reported as
// mongo.ErrNoDocuments.
type TechnicianLookup interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, appt models.Appointment) error {
	_, err := r.col.InsertOne(ctx, appt)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.Appointment, error) {
	var appt models.Appointment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&appt); err != nil {
		return models.Appointment{}, err
	}
	return appt, nil
}

func (r *MongoRepository) ListActiveByTechnician(ctx context.Context, technicianID, excludeID string) ([]models.Appointment, error) {
	query := bson.M{
		"technician": technicianID,
		"status":     bson.M{"$nin": models.InactiveStatuses},
	}
	if excludeID != "" {
		query["_id"] = bson.M{"$ne": excludeID}
	}
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, query, opts)
}

func (r *MongoRepository) ListByTechnicianInRange(ctx context.Context, technicianID string, start, end time.Time) ([]models.Appointment, error) {
	query := bson.M{
		"technician": technicianID,
		"status":     bson.M{"$nin": models.InactiveStatuses},
		"startTime":  bson.M{"$lte": end},
		"endTime":    bson.M{"$gte": start},
	}
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, query, opts)
}

// Update writes the updatable fields of appt. Ownership, cancellation and creation
// fields are never part of the update document. The filter pins the status and
// updatedAt that were read, so a cancel or update committed in between is not overwritten.
func (r *MongoRepository) Update(ctx context.Context, appt models.Appointment, expectedStatus string, expectedUpdatedAt time.Time) (models.Appointment, error) {
	set := bson.M{
		"startTime":         appt.StartTime,
		"endTime":           appt.EndTime,
		"status":            appt.Status,
		"serviceType":       appt.ServiceType,
		"priority":          appt.Priority,
		"estimatedDuration": appt.EstimatedDuration,
		"notes":             appt.Notes,
		"updatedAt":         appt.UpdatedAt,
	}
	if appt.ActualDuration > 0 {
		set["actualDuration"] = appt.ActualDuration
	}
	if appt.Location != nil {
		set["location"] = appt.Location
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Appointment
	filter := bson.M{
		"_id":       appt.ID,
		"status":    expectedStatus,
		"updatedAt": expectedUpdatedAt,
	}
	if err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return models.Appointment{}, err
	}
	return updated, nil
}

// Cancel touches only the cancellation fields and matches only appointments that are not
// already canceled, so a concurrent cancel surfaces as mongo.ErrNoDocuments.
func (r *MongoRepository) Cancel(ctx context.Context, id, reason string, at time.Time, by string) (models.Appointment, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$ne": models.AppointmentStatusCanceled},
	}
	update := bson.M{
		"$set": bson.M{
			"status":             models.AppointmentStatusCanceled,
			"cancellationReason": reason,
			"canceledAt":         at,
			"canceledBy":         by,
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Appointment
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return models.Appointment{}, err
	}
	return updated, nil
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Appointment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "startTime", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	return r.find(ctx, r.filterToBSON(filter), opts)
}

func (r *MongoRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, r.filterToBSON(filter))
}

func (r *MongoRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Appointment, error) {
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Appointment, 0)
	for cursor.Next(ctx) {
		var appt models.Appointment
		if err := cursor.Decode(&appt); err != nil {
			return nil, err
		}
		items = append(items, appt)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepository) filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.Participant != "" {
		query["$or"] = bson.A{
			bson.M{"client": filter.Participant},
			bson.M{"technician": filter.Participant},
		}
	}
	if filter.Technician != "" {
		query["technician"] = filter.Technician
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}
