// Package catalog holds the Mongo-backed book and user stores consumed by
// the circulation service. The HTTP handlers query the same collections
// directly for their list/search views.
package catalog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gitKheang/library-management-system/internal/circulation"
)

type MongoBooks struct {
	Coll *mongo.Collection
}

func NewMongoBooks(coll *mongo.Collection) *MongoBooks {
	return &MongoBooks{Coll: coll}
}

func (b *MongoBooks) Delete(ctx context.Context, bookID string) error {
	res, err := b.Coll.DeleteOne(ctx, bson.M{"_id": bookID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return circulation.ErrBookNotFound
	}
	return nil
}

func (b *MongoBooks) CountActive(ctx context.Context) (int64, error) {
	return b.Coll.CountDocuments(ctx, bson.M{"isActive": true})
}
