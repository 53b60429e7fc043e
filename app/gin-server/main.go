package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/prepwise/prepwise/config"
	"github.com/prepwise/prepwise/internal/api/handlers"
	"github.com/prepwise/prepwise/internal/api/middleware"
	"github.com/prepwise/prepwise/internal/api/routes"
	"github.com/prepwise/prepwise/internal/cache"
	"github.com/prepwise/prepwise/internal/live"
	"github.com/prepwise/prepwise/internal/logger"
	"github.com/prepwise/prepwise/internal/models"
	"github.com/prepwise/prepwise/internal/providers/llm"
	mongorepo "github.com/prepwise/prepwise/internal/repositories/mongo"
	pgrepo "github.com/prepwise/prepwise/internal/repositories/postgres"
	"github.com/prepwise/prepwise/internal/services"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	log.Info("MongoDB connected")

	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("MongoDB index error")
	}

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init error")
	}
	log.Info("PostgreSQL connected")

	if err := config.PostgresDB.AutoMigrate(&models.User{}); err != nil {
		log.WithError(err).Fatal("PostgreSQL migrate error")
	}

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	log.Info("Redis connected")

	provider, err := llm.NewVertexGemini(ctx,
		os.Getenv("VERTEX_PROJECT_ID"),
		os.Getenv("VERTEX_LOCATION"),
		os.Getenv("VERTEX_MODEL"),
	)
	if err != nil {
		log.WithError(err).Fatal("Vertex AI init error")
	}
	defer provider.Close()

	mongoDB := config.MongoClient.Database(config.MongoDBName())

	interviewRepo := mongorepo.NewInterviewRepo(mongoDB)
	feedbackRepo := mongorepo.NewFeedbackRepo(mongoDB)
	achievementRepo := mongorepo.NewAchievementRepo(mongoDB)
	userRepo := pgrepo.NewUserRepo(config.PostgresDB)

	redisCache := cache.NewRedisCache(config.RedisClient)

	authSvc := services.NewAuthService(userRepo)
	interviewSvc := services.NewInterviewService(interviewRepo, userRepo, log)
	feedbackSvc := services.NewFeedbackService(feedbackRepo, provider, redisCache, log)
	achievementSvc := services.NewAchievementService(userRepo, interviewRepo, feedbackRepo, achievementRepo, log)

	manager := live.NewManager(live.Deps{
		Interviews:   interviewSvc,
		Feedback:     feedbackSvc,
		Achievements: achievementSvc,
		LLM:          provider,
		Log:          log,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:      handlers.NewAuthHandler(authSvc),
		Interview: handlers.NewInterviewHandler(interviewSvc, feedbackSvc, achievementSvc, log),
		WS:        handlers.NewWSHandler(manager, log),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
