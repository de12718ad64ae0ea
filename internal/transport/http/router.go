package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"smartplay-service/internal/app"
	"smartplay-service/internal/auth"
)

// NewRouter assembles the gin engine: public login and health endpoints plus
// a token-guarded group for gameplay.
func NewRouter(service *app.GameService, authManager *auth.Manager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := NewHandler(service, authManager)
	ws := NewWSHandler(service)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/auth/login", h.Login)

	authorized := r.Group("/")
	authorized.Use(AuthMiddleware(authManager))
	{
		authorized.GET("/questions/random", h.RandomQuestions)
		authorized.GET("/questions/generate", h.GenerateQuestion)
		authorized.GET("/questions/:id", h.GetQuestion)
		authorized.POST("/questions", h.CreateQuestion)

		authorized.POST("/responses/answer", h.SubmitAnswer)
		authorized.POST("/responses/:questionID/feedback", h.SetFeedback)
		authorized.GET("/responses/feedback", h.ListFeedback)

		authorized.GET("/leaderboard", h.Leaderboard)
		authorized.GET("/leaderboard/details", h.LeaderboardDetails)
		authorized.GET("/leaderboard/live", ws.Serve)
	}

	return r
}
