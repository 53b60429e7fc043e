package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/prepwise/prepwise/internal/models"
	mongorepo "github.com/prepwise/prepwise/internal/repositories/mongo"
	pgrepo "github.com/prepwise/prepwise/internal/repositories/postgres"
	"github.com/prepwise/prepwise/internal/utils"
)

type InterviewService interface {
	Start(ctx context.Context, userID string, cfg models.InterviewConfig) (*models.Interview, error)
	Finalize(ctx context.Context, id string, status models.InterviewStatus, endedAt time.Time, durationSeconds float64, transcript []models.TranscriptEntry, questionsAsked int) error
	Get(ctx context.Context, userID, id string) (*models.Interview, error)
	List(ctx context.Context, userID string) ([]models.Interview, error)
	Delete(ctx context.Context, userID, id string) error
}

type interviewService struct {
	interviews mongorepo.InterviewRepository
	users      pgrepo.UserRepository
	log        *logrus.Logger
}

func NewInterviewService(interviews mongorepo.InterviewRepository, users pgrepo.UserRepository, log *logrus.Logger) InterviewService {
	return &interviewService{interviews: interviews, users: users, log: log}
}

func (s *interviewService) Start(ctx context.Context, userID string, cfg models.InterviewConfig) (*models.Interview, error) {
	const op = "InterviewService.Start"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	iv := &models.Interview{
		UserID:    userID,
		Status:    models.StatusInProgress,
		Config:    cfg,
		StartedAt: time.Now().UTC(),
	}
	if err := s.interviews.Create(ctx, iv); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create interview", err)
	}

	// remember the setup for next-session prefill; best effort
	if _, err := s.users.EnsureUser(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("ensure user failed")
	} else if raw, err := json.Marshal(cfg); err == nil {
		if err := s.users.SaveLastInterviewConfig(ctx, userID, datatypes.JSON(raw)); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("save last interview config failed")
		}
	}

	return iv, nil
}

func (s *interviewService) Finalize(ctx context.Context, id string, status models.InterviewStatus, endedAt time.Time, durationSeconds float64, transcript []models.TranscriptEntry, questionsAsked int) error {
	const op = "InterviewService.Finalize"

	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "interview id is required", nil)
	}
	if err := s.interviews.Finalize(ctx, id, status, endedAt, durationSeconds, transcript, questionsAsked); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to finalize interview", err)
	}
	return nil
}

func (s *interviewService) Get(ctx context.Context, userID, id string) (*models.Interview, error) {
	const op = "InterviewService.Get"

	iv, err := s.interviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	if iv.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return iv, nil
}

func (s *interviewService) List(ctx context.Context, userID string) ([]models.Interview, error) {
	const op = "InterviewService.List"

	out, err := s.interviews.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return out, nil
}

func (s *interviewService) Delete(ctx context.Context, userID, id string) error {
	const op = "InterviewService.Delete"

	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.interviews.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete interview", err)
	}
	return nil
}
