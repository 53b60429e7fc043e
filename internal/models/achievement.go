package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AchievementInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// AchievementCatalog is ordered; the evaluator walks it top to bottom.
var AchievementCatalog = []AchievementInfo{
	{ID: "first_interview", Title: "First Steps", Description: "Completed your first mock interview", Icon: "trophy"},
	{ID: "five_interviews", Title: "Getting Serious", Description: "Completed 5 mock interviews", Icon: "fire"},
	{ID: "ten_interviews", Title: "Interview Pro", Description: "Completed 10 mock interviews", Icon: "star"},
	{ID: "score_70", Title: "Good Performance", Description: "Scored 70+ in an interview", Icon: "medal"},
	{ID: "score_85", Title: "Excellent", Description: "Scored 85+ in an interview", Icon: "gem"},
	{ID: "score_95", Title: "Near Perfect", Description: "Scored 95+ in an interview", Icon: "crown"},
	{ID: "streak_3", Title: "Consistent", Description: "Practiced 3 days in a row", Icon: "flame"},
	{ID: "streak_7", Title: "Dedicated", Description: "Practiced 7 days in a row", Icon: "rocket"},
	{ID: "streak_30", Title: "Unstoppable", Description: "Practiced 30 days in a row", Icon: "lightning"},
}

func AchievementByID(id string) (AchievementInfo, bool) {
	for _, a := range AchievementCatalog {
		if a.ID == id {
			return a, true
		}
	}
	return AchievementInfo{}, false
}

type Achievement struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"user_id" json:"user_id"`
	AchievementType string             `bson:"achievement_type" json:"achievement_type"`
	UnlockedAt      time.Time          `bson:"unlocked_at" json:"unlocked_at"`
}
