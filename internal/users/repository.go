package users

import (
	"context"
	"strings"
	"time"

	"dern-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdateAvailability(ctx context.Context, id, availability string, now time.Time) (models.User, error)
	Upsert(ctx context.Context, user models.User) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *MongoRepository) UpdateAvailability(ctx context.Context, id, availability string, now time.Time) (models.User, error) {
	filter := bson.M{"_id": id, "role": models.UserRoleTechnician}
	update := bson.M{
		"$set": bson.M{
			"availability": availability,
			"updatedAt":    now,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return models.User{}, err
	}
	return updated, nil
}

// Upsert inserts the user or refreshes an existing record with the same email. The id
// of an existing record is kept.
func (r *MongoRepository) Upsert(ctx context.Context, user models.User) error {
	filter := bson.M{"email": user.Email}
	update := bson.M{
		"$set": bson.M{
			"name":         user.Name,
			"passwordHash": user.PasswordHash,
			"role":         user.Role,
			"isActive":     user.IsActive,
			"availability": user.Availability,
			"updatedAt":    user.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":       user.ID,
			"createdAt": user.CreatedAt,
		},
	}
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
