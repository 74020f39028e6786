package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"komisearch/internal/domain"
)

const estimatesCollection = "estimates"

// ResultRepository keeps one document per (board size, stone listing).
type ResultRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewResultRepository(log *zap.SugaredLogger, mongo *mongo.Database) *ResultRepository {
	return &ResultRepository{
		log:   log,
		mongo: mongo,
	}
}

func rowFilter(size int, stones string) bson.M {
	return bson.M{
		"board_size": size,
		"stones":     stones,
	}
}

func (r *ResultRepository) SaveRow(ctx context.Context, row domain.Row) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	_, err := r.mongo.Collection(estimatesCollection).ReplaceOne(ctx, rowFilter(row.Size, row.Stones), row, opts)
	if err != nil {
		r.log.Errorw("failed to save estimate", "size", row.Size, "stones", row.Stones, "error", err)
		return err
	}
	return nil
}

// ListRows returns stored rows for one board size (all sizes when size is 0),
// ordered by size, stone count and listing.
func (r *ResultRepository) ListRows(ctx context.Context, size int) ([]domain.Row, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{}
	if size > 0 {
		filter["board_size"] = size
	}
	opts := options.Find().SetSort(bson.D{{Key: "board_size", Value: 1}, {Key: "num_stones", Value: 1}, {Key: "stones", Value: 1}})

	cursor, err := r.mongo.Collection(estimatesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []domain.Row
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
