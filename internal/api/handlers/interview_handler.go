package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/prepwise/prepwise/internal/models"
	"github.com/prepwise/prepwise/internal/services"
)

type InterviewHandler struct {
	interviews   services.InterviewService
	feedback     services.FeedbackService
	achievements services.AchievementService
	log          *logrus.Logger
}

func NewInterviewHandler(interviews services.InterviewService, feedback services.FeedbackService, achievements services.AchievementService, log *logrus.Logger) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, feedback: feedback, achievements: achievements, log: log}
}

func (h *InterviewHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.interviews.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": out})
}

func (h *InterviewHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	iv, err := h.interviews.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

func (h *InterviewHandler) GetFeedback(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fb, err := h.feedback.GetByInterview(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

func (h *InterviewHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.interviews.Delete(c.Request.Context(), userID, id); err != nil {
		writeError(c, err)
		return
	}
	// cascade: an interview's feedback has no life of its own
	if err := h.feedback.DeleteByInterview(c.Request.Context(), id); err != nil {
		h.log.WithError(err).WithField("interview_id", id).Warn("feedback cascade delete failed")
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

type achievementView struct {
	models.AchievementInfo
	UnlockedAt string `json:"unlocked_at"`
}

func (h *InterviewHandler) Achievements(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	granted, err := h.achievements.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := []achievementView{}
	for _, a := range granted {
		info, ok := models.AchievementByID(a.AchievementType)
		if !ok {
			continue
		}
		out = append(out, achievementView{
			AchievementInfo: info,
			UnlockedAt:      a.UnlockedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"achievements": out})
}

func (h *InterviewHandler) Streak(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	st, err := h.achievements.Streak(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
