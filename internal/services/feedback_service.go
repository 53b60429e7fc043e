package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prepwise/prepwise/internal/cache"
	"github.com/prepwise/prepwise/internal/models"
	"github.com/prepwise/prepwise/internal/providers/llm"
	mongorepo "github.com/prepwise/prepwise/internal/repositories/mongo"
	"github.com/prepwise/prepwise/internal/utils"
)

const (
	scoreTimeout     = 60 * time.Second
	feedbackCacheTTL = 10 * time.Minute
)

type FeedbackService interface {
	// Score runs the one-shot scoring pass over the full transcript and
	// persists the resulting feedback record. A malformed collaborator
	// response degrades to a neutral fallback record; only collaborator
	// unavailability or a persistence failure surface as an error.
	Score(ctx context.Context, interviewID, userID string, cfg models.InterviewConfig, transcript []models.TranscriptEntry) (*models.Feedback, error)
	GetByInterview(ctx context.Context, userID, interviewID string) (*models.Feedback, error)
	DeleteByInterview(ctx context.Context, interviewID string) error
}

type feedbackService struct {
	feedbacks mongorepo.FeedbackRepository
	llm       llm.Provider
	cache     cache.Cache
	log       *logrus.Logger
}

func NewFeedbackService(feedbacks mongorepo.FeedbackRepository, provider llm.Provider, c cache.Cache, log *logrus.Logger) FeedbackService {
	return &feedbackService{feedbacks: feedbacks, llm: provider, cache: c, log: log}
}

func feedbackCacheKey(interviewID string) string { return "feedback:" + interviewID }

func (s *feedbackService) Score(ctx context.Context, interviewID, userID string, cfg models.InterviewConfig, transcript []models.TranscriptEntry) (*models.Feedback, error) {
	const op = "FeedbackService.Score"

	if interviewID == "" || userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview id and user id are required", nil)
	}

	cctx, cancel := context.WithTimeout(ctx, scoreTimeout)
	defer cancel()

	raw, err := s.llm.ScoreJSON(cctx, buildScoringPrompt(cfg, transcript))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "scoring call failed", err)
	}

	data := parseFeedbackJSON(raw, s.log)

	fb := &models.Feedback{
		InterviewID:  interviewID,
		UserID:       userID,
		FeedbackData: data,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.feedbacks.Create(ctx, fb); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist feedback", err)
	}

	if err := s.cache.SetJSON(ctx, feedbackCacheKey(interviewID), fb, feedbackCacheTTL); err != nil {
		s.log.WithError(err).Debug("feedback cache set failed")
	}
	return fb, nil
}

func (s *feedbackService) GetByInterview(ctx context.Context, userID, interviewID string) (*models.Feedback, error) {
	const op = "FeedbackService.GetByInterview"

	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview id is required", nil)
	}

	var cached models.Feedback
	if hit, err := s.cache.GetJSON(ctx, feedbackCacheKey(interviewID), &cached); err == nil && hit {
		if cached.UserID != userID {
			return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
		}
		return &cached, nil
	}

	fb, err := s.feedbacks.GetByInterviewID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "feedback not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get feedback", err)
	}
	if fb.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}

	if err := s.cache.SetJSON(ctx, feedbackCacheKey(interviewID), fb, feedbackCacheTTL); err != nil {
		s.log.WithError(err).Debug("feedback cache set failed")
	}
	return fb, nil
}

func (s *feedbackService) DeleteByInterview(ctx context.Context, interviewID string) error {
	const op = "FeedbackService.DeleteByInterview"

	if err := s.feedbacks.DeleteByInterviewID(ctx, interviewID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete feedback", err)
	}
	if err := s.cache.Del(ctx, feedbackCacheKey(interviewID)); err != nil {
		s.log.WithError(err).Debug("feedback cache del failed")
	}
	return nil
}

func buildScoringPrompt(cfg models.InterviewConfig, transcript []models.TranscriptEntry) string {
	var tb strings.Builder
	for _, e := range transcript {
		speaker := "Candidate"
		if e.Speaker == models.SpeakerAI {
			speaker = "Interviewer"
		}
		fmt.Fprintf(&tb, "%s: %s\n", speaker, e.Text)
	}

	return fmt.Sprintf(`You are an expert interview evaluator. Analyze the following %s interview transcript for a %s position (%s difficulty, %s level).

TRANSCRIPT:
%s
Provide a detailed, honest evaluation. Be specific with examples from the transcript. Reference actual things the candidate said.

You MUST respond with ONLY valid JSON (no markdown, no code fences, no extra text) in exactly this format:
{
  "overallScore": <number 0-100>,
  "grade": "<one of: A+, A, B+, B, C+, C, D, F>",
  "categoryScores": {
    "communication": <number 0-100>,
    "technicalAccuracy": <number 0-100>,
    "confidence": <number 0-100>,
    "clarity": <number 0-100>,
    "relevance": <number 0-100>
  },
  "strengths": ["<strength 1>", "<strength 2>", "<strength 3>"],
  "improvements": ["<improvement 1>", "<improvement 2>", "<improvement 3>"],
  "questionFeedback": [
    {
      "question": "<the question asked>",
      "userAnswer": "<summary of user's answer>",
      "score": <number 0-100>,
      "feedback": "<specific feedback for this answer>",
      "idealAnswer": "<what an ideal answer would include>"
    }
  ],
  "overallFeedback": "<2-3 paragraph detailed summary with specific examples from the transcript>"
}

SCORING GUIDE:
- A+ (95-100): Exceptional across all areas
- A (85-94): Excellent with minor gaps
- B+ (75-84): Good with room for improvement
- B (65-74): Satisfactory but notable weaknesses
- C+ (55-64): Below average, significant improvements needed
- C (45-54): Poor performance in multiple areas
- D (30-44): Very weak
- F (0-29): Failed to demonstrate competency`,
		cfg.Type, cfg.Role, cfg.Difficulty, cfg.ExperienceLevel, tb.String())
}

type rawQuestionFeedback struct {
	Question    string   `json:"question"`
	UserAnswer  string   `json:"userAnswer"`
	Score       *float64 `json:"score"`
	Feedback    string   `json:"feedback"`
	IdealAnswer string   `json:"idealAnswer"`
}

type rawFeedback struct {
	OverallScore   *float64 `json:"overallScore"`
	Grade          string   `json:"grade"`
	CategoryScores struct {
		Communication     *float64 `json:"communication"`
		TechnicalAccuracy *float64 `json:"technicalAccuracy"`
		Confidence        *float64 `json:"confidence"`
		Clarity           *float64 `json:"clarity"`
		Relevance         *float64 `json:"relevance"`
	} `json:"categoryScores"`
	Strengths        []string              `json:"strengths"`
	Improvements     []string              `json:"improvements"`
	QuestionFeedback []rawQuestionFeedback `json:"questionFeedback"`
	OverallFeedback  string                `json:"overallFeedback"`
}

// parseFeedbackJSON validates and clamps whatever the collaborator returned.
// It never fails: unparseable output yields a neutral fallback record.
func parseFeedbackJSON(raw string, log *logrus.Logger) models.FeedbackData {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var parsed rawFeedback
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		log.WithError(err).Error("failed to parse feedback JSON")
		return fallbackFeedback()
	}

	data := models.FeedbackData{
		OverallScore: clampScore(parsed.OverallScore, 50),
		Grade:        coerceGrade(parsed.Grade),
		CategoryScores: models.CategoryScores{
			Communication:     clampScore(parsed.CategoryScores.Communication, 50),
			TechnicalAccuracy: clampScore(parsed.CategoryScores.TechnicalAccuracy, 50),
			Confidence:        clampScore(parsed.CategoryScores.Confidence, 50),
			Clarity:           clampScore(parsed.CategoryScores.Clarity, 50),
			Relevance:         clampScore(parsed.CategoryScores.Relevance, 50),
		},
		Strengths:        parsed.Strengths,
		Improvements:     parsed.Improvements,
		QuestionFeedback: []models.QuestionFeedback{},
		OverallFeedback:  parsed.OverallFeedback,
	}
	if data.Strengths == nil {
		data.Strengths = []string{}
	}
	if data.Improvements == nil {
		data.Improvements = []string{}
	}
	for _, qf := range parsed.QuestionFeedback {
		question := qf.Question
		if question == "" {
			question = "Question not recorded"
		}
		data.QuestionFeedback = append(data.QuestionFeedback, models.QuestionFeedback{
			Question:    question,
			UserAnswer:  qf.UserAnswer,
			Score:       clampScore(qf.Score, 0),
			Feedback:    qf.Feedback,
			IdealAnswer: qf.IdealAnswer,
		})
	}
	return data
}

func clampScore(v *float64, def int) int {
	if v == nil || math.IsNaN(*v) {
		return def
	}
	n := int(math.Round(*v))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func coerceGrade(g string) string {
	for _, valid := range models.ValidGrades {
		if g == valid {
			return g
		}
	}
	return "C"
}

func fallbackFeedback() models.FeedbackData {
	return models.FeedbackData{
		OverallScore: 50,
		Grade:        "C",
		CategoryScores: models.CategoryScores{
			Communication:     50,
			TechnicalAccuracy: 50,
			Confidence:        50,
			Clarity:           50,
			Relevance:         50,
		},
		Strengths:        []string{"Completed the interview"},
		Improvements:     []string{"Could not generate detailed feedback"},
		QuestionFeedback: []models.QuestionFeedback{},
		OverallFeedback:  "The feedback could not be fully generated. Please try again.",
	}
}
