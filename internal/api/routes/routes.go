package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/prepwise/prepwise/internal/api/handlers"
	"github.com/prepwise/prepwise/internal/api/middleware"
)

type Deps struct {
	Auth      *handlers.AuthHandler
	Interview *handlers.InterviewHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Public
	r.POST("/auth/register", d.Auth.Register)
	r.POST("/auth/login", d.Auth.Login)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.GET("/auth/me", d.Auth.Me)

	auth.GET("/interviews", d.Interview.List)
	auth.GET("/interviews/:id", d.Interview.Get)
	auth.GET("/interviews/:id/feedback", d.Interview.GetFeedback)
	auth.DELETE("/interviews/:id", d.Interview.Delete)

	auth.GET("/achievements", d.Interview.Achievements)
	auth.GET("/streak", d.Interview.Streak)

	// WebSocket: one live interview per connection
	auth.GET("/ws/interview", d.WS.InterviewWS)
}
