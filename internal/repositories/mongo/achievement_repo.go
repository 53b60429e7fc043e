package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prepwise/prepwise/internal/models"
)

type AchievementRepository interface {
	// GrantIfAbsent inserts the (user, type) grant if it does not exist yet
	// and reports whether this call created it. Safe to run concurrently; the
	// unique index makes the upsert race-free.
	GrantIfAbsent(ctx context.Context, userID, achievementType string, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Achievement, error)
}

type achievementRepo struct {
	col *mongo.Collection
}

func NewAchievementRepo(db *mongo.Database) AchievementRepository {
	return &achievementRepo{col: db.Collection("achievements")}
}

func (r *achievementRepo) GrantIfAbsent(ctx context.Context, userID, achievementType string, at time.Time) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID, "achievement_type": achievementType},
		bson.M{"$setOnInsert": bson.M{
			"user_id":          userID,
			"achievement_type": achievementType,
			"unlocked_at":      at.UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// lost the upsert race: someone else granted it
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (r *achievementRepo) ListByUser(ctx context.Context, userID string) ([]models.Achievement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "unlocked_at", Value: 1}})

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Achievement{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
