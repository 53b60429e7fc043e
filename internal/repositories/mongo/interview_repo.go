package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prepwise/prepwise/internal/models"
	"github.com/prepwise/prepwise/internal/utils"
)

type InterviewRepository interface {
	Create(ctx context.Context, iv *models.Interview) error
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	Finalize(ctx context.Context, id string, status models.InterviewStatus, endedAt time.Time, durationSeconds float64, transcript []models.TranscriptEntry, questionsAsked int) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Interview, error)
	CountCompleted(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type interviewRepo struct {
	col *mongo.Collection
}

func NewInterviewRepo(db *mongo.Database) InterviewRepository {
	return &interviewRepo{col: db.Collection("interviews")}
}

func (r *interviewRepo) Create(ctx context.Context, iv *models.Interview) error {
	if iv.StartedAt.IsZero() {
		iv.StartedAt = time.Now().UTC()
	}
	if iv.Transcript == nil {
		iv.Transcript = []models.TranscriptEntry{}
	}
	res, err := r.col.InsertOne(ctx, iv)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		iv.ID = oid
	}
	return nil
}

func (r *interviewRepo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrNotFound
	}

	var iv models.Interview
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&iv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &iv, err
}

func (r *interviewRepo) Finalize(ctx context.Context, id string, status models.InterviewStatus, endedAt time.Time, durationSeconds float64, transcript []models.TranscriptEntry, questionsAsked int) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.ErrNotFound
	}
	if transcript == nil {
		transcript = []models.TranscriptEntry{}
	}

	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"status":           status,
			"ended_at":         endedAt.UTC(),
			"duration_seconds": durationSeconds,
			"transcript":       transcript,
			"questions_asked":  questionsAsked,
		}},
	)
	return err
}

func (r *interviewRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Interview{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *interviewRepo) CountCompleted(ctx context.Context, userID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"user_id": userID, "status": models.StatusCompleted})
}

func (r *interviewRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}
