package copypool

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gitKheang/library-management-system/internal/models"
)

// MongoPool is the production Pool backed by the bookCopies collection.
type MongoPool struct {
	Copies *mongo.Collection
}

func NewMongoPool(copies *mongo.Collection) *MongoPool {
	return &MongoPool{Copies: copies}
}

func (p *MongoPool) AddCopies(ctx context.Context, bookID, title string, count int) ([]models.Copy, error) {
	if count <= 0 {
		return nil, nil
	}

	existing, err := p.Copies.CountDocuments(ctx, bson.M{"bookId": bookID})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	copies := make([]models.Copy, 0, count)
	docs := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		c := models.Copy{
			ID:        uuid.NewString(),
			BookID:    bookID,
			CopyCode:  CopyCode(title, int(existing)+i+1),
			Status:    models.CopyAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		}
		copies = append(copies, c)
		docs = append(docs, c)
	}

	if _, err := p.Copies.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return copies, nil
}

func (p *MongoPool) ClaimAvailableCopy(ctx context.Context, bookID string) (models.Copy, error) {
	// Single conditional update: only a copy still AVAILABLE matches, so
	// concurrent claims cannot both win the same copy.
	var claimed models.Copy
	err := p.Copies.FindOneAndUpdate(ctx,
		bson.M{"bookId": bookID, "status": models.CopyAvailable},
		bson.M{"$set": bson.M{"status": models.CopyBorrowed, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&claimed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Copy{}, ErrNoCopiesAvailable
		}
		return models.Copy{}, err
	}
	return claimed, nil
}

func (p *MongoPool) ReleaseCopy(ctx context.Context, copyID string) error {
	_, err := p.Copies.UpdateOne(ctx,
		bson.M{"_id": copyID},
		bson.M{"$set": bson.M{"status": models.CopyAvailable, "updatedAt": time.Now()}},
	)
	return err
}

func (p *MongoPool) Counts(ctx context.Context, bookID string) (int64, int64, error) {
	cursor, err := p.Copies.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"bookId": bookID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"available": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.CopyAvailable}}, 1, 0,
			}}},
		}}},
	})
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total     int64 `bson:"total"`
		Available int64 `bson:"available"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, nil
	}
	return results[0].Total, results[0].Available, nil
}

func (p *MongoPool) SetStatus(ctx context.Context, copyID string, status models.CopyStatus) error {
	res, err := p.Copies.UpdateOne(ctx,
		bson.M{"_id": copyID},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCopyNotFound
	}
	return nil
}

func (p *MongoPool) CopiesForBook(ctx context.Context, bookID string) ([]models.Copy, error) {
	cursor, err := p.Copies.Find(ctx, bson.M{"bookId": bookID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var copies []models.Copy
	if err := cursor.All(ctx, &copies); err != nil {
		return nil, err
	}
	return copies, nil
}

func (p *MongoPool) DeleteForBook(ctx context.Context, bookID string) error {
	_, err := p.Copies.DeleteMany(ctx, bson.M{"bookId": bookID})
	return err
}
