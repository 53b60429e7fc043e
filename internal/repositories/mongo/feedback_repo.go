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

type FeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	GetByInterviewID(ctx context.Context, interviewID string) (*models.Feedback, error)
	// BestScore returns the highest overall score across the user's feedback
	// records, or 0 when none exist.
	BestScore(ctx context.Context, userID string) (int, error)
	DeleteByInterviewID(ctx context.Context, interviewID string) error
}

type feedbackRepo struct {
	col *mongo.Collection
}

func NewFeedbackRepo(db *mongo.Database) FeedbackRepository {
	return &feedbackRepo{col: db.Collection("feedbacks")}
}

func (r *feedbackRepo) Create(ctx context.Context, fb *models.Feedback) error {
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, fb)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		fb.ID = oid
	}
	return nil
}

func (r *feedbackRepo) GetByInterviewID(ctx context.Context, interviewID string) (*models.Feedback, error) {
	var fb models.Feedback
	err := r.col.FindOne(ctx, bson.M{"interview_id": interviewID}).Decode(&fb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &fb, err
}

func (r *feedbackRepo) BestScore(ctx context.Context, userID string) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "overall_score", Value: -1}})

	var fb models.Feedback
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&fb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return fb.OverallScore, nil
}

func (r *feedbackRepo) DeleteByInterviewID(ctx context.Context, interviewID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"interview_id": interviewID})
	return err
}
