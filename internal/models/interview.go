package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InterviewStatus string

const (
	StatusInProgress InterviewStatus = "in-progress"
	StatusCompleted  InterviewStatus = "completed"
	StatusAbandoned  InterviewStatus = "abandoned"
)

type Speaker string

const (
	SpeakerAI   Speaker = "ai"
	SpeakerUser Speaker = "user"
)

// TranscriptEntry timestamps are elapsed seconds since session start, net of paused time.
type TranscriptEntry struct {
	Speaker   Speaker `bson:"speaker" json:"speaker"`
	Text      string  `bson:"text" json:"text"`
	Timestamp float64 `bson:"timestamp" json:"timestamp"`
}

type InterviewConfig struct {
	Role            string   `bson:"role" json:"role"`
	Type            string   `bson:"type" json:"type"`                       // technical|behavioral|hr|system-design|mixed
	Difficulty      string   `bson:"difficulty" json:"difficulty"`           // easy|medium|hard|expert
	ExperienceLevel string   `bson:"experience_level" json:"experienceLevel"` // fresher|junior|mid|senior
	Duration        int      `bson:"duration" json:"duration"`               // minutes, one of 5|10|15|20
	FocusAreas      []string `bson:"focus_areas,omitempty" json:"focusAreas,omitempty"`
	InterviewStyle  string   `bson:"interview_style" json:"interviewStyle"` // friendly|neutral|challenging
	CompanyStyle    string   `bson:"company_style" json:"companyStyle"`     // faang|startup|corporate|general
	Mode            string   `bson:"mode" json:"mode"`                      // practice|assessment
	ResumeText      string   `bson:"resume_text,omitempty" json:"resumeText,omitempty"`
	JobDescription  string   `bson:"job_description,omitempty" json:"jobDescription,omitempty"`
}

type Interview struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID string             `bson:"user_id" json:"user_id"`

	Status InterviewStatus `bson:"status" json:"status"`
	Config InterviewConfig `bson:"config" json:"config"`

	Transcript     []TranscriptEntry `bson:"transcript" json:"transcript"`
	QuestionsAsked int               `bson:"questions_asked" json:"questions_asked"`

	StartedAt       time.Time  `bson:"started_at" json:"started_at"`
	EndedAt         *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	DurationSeconds float64    `bson:"duration_seconds" json:"duration_seconds"`
}
