package live

import "github.com/prepwise/prepwise/internal/models"

// Outbound session event names. The websocket layer wraps each payload in
// an envelope {"type": <event>, "data": <payload>}.
const (
	EventInterviewStarted    = "interview-started"
	EventAIThinking          = "ai-thinking"
	EventAIResponseText      = "ai-response-text"
	EventAISpeaking          = "ai-speaking"
	EventYourTurn            = "your-turn"
	EventUserTranscriptFinal = "user-transcript-final"
	EventTimeUpdate          = "time-update"
	EventInterviewPaused     = "interview-paused"
	EventInterviewResumed    = "interview-resumed"
	EventInterviewEnding     = "interview-ending"
	EventGeneratingFeedback  = "generating-feedback"
	EventInterviewComplete   = "interview-complete"
	EventInterviewError      = "interview-error"
)

// Emitter delivers one outbound event to the connected client. Implementations
// must tolerate being called from multiple goroutines.
type Emitter interface {
	Emit(event string, data any)
}

type StartedPayload struct {
	InterviewID string `json:"interviewId"`
}

type TextPayload struct {
	Text string `json:"text"`
}

// SpeakingPayload carries the AI utterance; NoSpeak tells the client to skip
// speech synthesis (set on closing statements and during forced termination).
type SpeakingPayload struct {
	Text    string `json:"text"`
	NoSpeak bool   `json:"noSpeak"`
}

type TimeUpdatePayload struct {
	Elapsed   float64 `json:"elapsed"`
	Total     float64 `json:"total"`
	Remaining float64 `json:"remaining"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type CompletePayload struct {
	InterviewID     string                   `json:"interviewId"`
	FeedbackID      *string                  `json:"feedbackId"`
	Feedback        *models.FeedbackData     `json:"feedback"`
	NewAchievements []models.AchievementInfo `json:"newAchievements"`
}
