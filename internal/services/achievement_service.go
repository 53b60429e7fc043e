package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prepwise/prepwise/internal/models"
	mongorepo "github.com/prepwise/prepwise/internal/repositories/mongo"
	pgrepo "github.com/prepwise/prepwise/internal/repositories/postgres"
	"github.com/prepwise/prepwise/internal/utils"
)

type AchievementService interface {
	// OnInterviewCompleted updates the user's practice streak and evaluates
	// the grant predicates. It returns only achievements whose grant was
	// created by this invocation. Idempotent per calendar day for streaks
	// and per (user, type) for grants.
	OnInterviewCompleted(ctx context.Context, userID string) ([]models.AchievementInfo, error)
	List(ctx context.Context, userID string) ([]models.Achievement, error)
	Streak(ctx context.Context, userID string) (models.Streak, error)
}

type achievementService struct {
	users        pgrepo.UserRepository
	interviews   mongorepo.InterviewRepository
	feedbacks    mongorepo.FeedbackRepository
	achievements mongorepo.AchievementRepository
	log          *logrus.Logger

	now func() time.Time
}

func NewAchievementService(
	users pgrepo.UserRepository,
	interviews mongorepo.InterviewRepository,
	feedbacks mongorepo.FeedbackRepository,
	achievements mongorepo.AchievementRepository,
	log *logrus.Logger,
) AchievementService {
	return &achievementService{
		users:        users,
		interviews:   interviews,
		feedbacks:    feedbacks,
		achievements: achievements,
		log:          log,
		now:          time.Now,
	}
}

func (s *achievementService) OnInterviewCompleted(ctx context.Context, userID string) ([]models.AchievementInfo, error) {
	const op = "AchievementService.OnInterviewCompleted"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	streak, err := s.updateStreak(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update streak", err)
	}

	completed, err := s.interviews.CountCompleted(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count interviews", err)
	}
	best, err := s.feedbacks.BestScore(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read best score", err)
	}

	checks := []struct {
		ok bool
		id string
	}{
		{completed >= 1, "first_interview"},
		{completed >= 5, "five_interviews"},
		{completed >= 10, "ten_interviews"},
		{best >= 70, "score_70"},
		{best >= 85, "score_85"},
		{best >= 95, "score_95"},
		{streak.Current >= 3, "streak_3"},
		{streak.Current >= 7, "streak_7"},
		{streak.Current >= 30, "streak_30"},
	}

	granted := []models.AchievementInfo{}
	now := s.now().UTC()
	for _, check := range checks {
		if !check.ok {
			continue
		}
		inserted, err := s.achievements.GrantIfAbsent(ctx, userID, check.id, now)
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"user_id":     userID,
				"achievement": check.id,
			}).Warn("achievement grant failed")
			continue
		}
		if inserted {
			if info, ok := models.AchievementByID(check.id); ok {
				granted = append(granted, info)
			}
		}
	}
	return granted, nil
}

// updateStreak applies the calendar-day rule: same day is a no-op, exactly
// one day later increments, any larger gap resets to 1.
func (s *achievementService) updateStreak(ctx context.Context, userID string) (models.Streak, error) {
	u, err := s.users.EnsureUser(ctx, userID)
	if err != nil {
		return models.Streak{}, err
	}

	now := s.now().UTC()
	today := truncateDay(now)

	current := u.StreakCurrent
	if u.LastInterviewAt != nil {
		lastDay := truncateDay(u.LastInterviewAt.UTC())
		diffDays := int(today.Sub(lastDay).Hours() / 24)
		switch {
		case diffDays == 0:
			return u.Streak(), nil
		case diffDays == 1:
			current++
		default:
			current = 1
		}
	} else {
		current = 1
	}

	longest := u.StreakLongest
	if current > longest {
		longest = current
	}

	if err := s.users.UpdateStreak(ctx, userID, current, longest, now); err != nil {
		return models.Streak{}, err
	}
	return models.Streak{Current: current, Longest: longest, LastInterviewAt: &now}, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *achievementService) List(ctx context.Context, userID string) ([]models.Achievement, error) {
	const op = "AchievementService.List"

	out, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list achievements", err)
	}
	return out, nil
}

func (s *achievementService) Streak(ctx context.Context, userID string) (models.Streak, error) {
	const op = "AchievementService.Streak"

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return models.Streak{}, nil
		}
		return models.Streak{}, utils.E(utils.CodeInternal, op, "failed to get user", err)
	}
	return u.Streak(), nil
}
