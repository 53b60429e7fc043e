package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ValidGrades = []string{"A+", "A", "B+", "B", "C+", "C", "D", "F"}

type CategoryScores struct {
	Communication     int `bson:"communication" json:"communication"`
	TechnicalAccuracy int `bson:"technical_accuracy" json:"technicalAccuracy"`
	Confidence        int `bson:"confidence" json:"confidence"`
	Clarity           int `bson:"clarity" json:"clarity"`
	Relevance         int `bson:"relevance" json:"relevance"`
}

type QuestionFeedback struct {
	Question    string `bson:"question" json:"question"`
	UserAnswer  string `bson:"user_answer" json:"userAnswer"`
	Score       int    `bson:"score" json:"score"`
	Feedback    string `bson:"feedback" json:"feedback"`
	IdealAnswer string `bson:"ideal_answer" json:"idealAnswer"`
}

// FeedbackData is the evaluation produced by the scoring pass, before it is
// bound to an interview. Scores are always clamped to [0,100] and Grade is
// always one of ValidGrades by the time a value of this type leaves the scorer.
type FeedbackData struct {
	OverallScore     int                `bson:"overall_score" json:"overallScore"`
	Grade            string             `bson:"grade" json:"grade"`
	CategoryScores   CategoryScores     `bson:"category_scores" json:"categoryScores"`
	Strengths        []string           `bson:"strengths" json:"strengths"`
	Improvements     []string           `bson:"improvements" json:"improvements"`
	QuestionFeedback []QuestionFeedback `bson:"question_feedback" json:"questionFeedback"`
	OverallFeedback  string             `bson:"overall_feedback" json:"overallFeedback"`
}

type Feedback struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterviewID string             `bson:"interview_id" json:"interview_id"`
	UserID      string             `bson:"user_id" json:"user_id"`

	FeedbackData `bson:",inline"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
