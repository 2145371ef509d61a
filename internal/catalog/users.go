package catalog

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gitKheang/library-management-system/internal/circulation"
	"github.com/gitKheang/library-management-system/internal/models"
)

type MongoUsers struct {
	Coll *mongo.Collection
}

func NewMongoUsers(coll *mongo.Collection) *MongoUsers {
	return &MongoUsers{Coll: coll}
}

func (u *MongoUsers) Find(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := u.Coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, circulation.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (u *MongoUsers) Delete(ctx context.Context, userID string) error {
	res, err := u.Coll.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return circulation.ErrUserNotFound
	}
	return nil
}

func (u *MongoUsers) Count(ctx context.Context) (int64, error) {
	return u.Coll.CountDocuments(ctx, bson.M{})
}
