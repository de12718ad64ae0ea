package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartplay-service/internal/app"
	"smartplay-service/internal/auth"
	"smartplay-service/internal/domain"
)

// Handler exposes the game use cases over JSON.
type Handler struct {
	service *app.GameService
	auth    *auth.Manager
}

func NewHandler(service *app.GameService, authManager *auth.Manager) *Handler {
	return &Handler{service: service, auth: authManager}
}

type loginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password"`
}

type playerView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Login resolves the player by name, creating the account on first visit, and
// sets the session cookie alongside the JSON token for non-browser clients.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	player, err := h.service.LoginOrRegister(c.Request.Context(), req.Name, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, err := h.auth.Issue(player)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.SetCookie(accessTokenCookie, token, int(h.auth.Expiry().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"player": playerView{ID: player.ID, Name: player.Name, Score: player.Score},
	})
}

// RandomQuestions draws random questions, optionally restricted to a theme.
func (h *Handler) RandomQuestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	questions, err := h.service.RandomQuestions(c.Request.Context(), c.Query("theme"), limit)
	if errors.Is(err, domain.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no questions for theme"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load questions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *Handler) GetQuestion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}
	question, err := h.service.GetQuestion(c.Request.Context(), id)
	if errors.Is(err, domain.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load question"})
		return
	}
	c.JSON(http.StatusOK, question)
}

// GenerateQuestion drafts a new scenario question with the model and returns
// it without persisting; approving it is a separate POST /questions.
func (h *Handler) GenerateQuestion(c *gin.Context) {
	question, err := h.service.GenerateQuestion(c.Request.Context(), c.Query("theme"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate question"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": question.Theme, "text": question.Text})
}

type createQuestionRequest struct {
	Theme string `json:"theme" binding:"required"`
	Text  string `json:"text" binding:"required"`
}

func (h *Handler) CreateQuestion(c *gin.Context) {
	var req createQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "theme and text are required"})
		return
	}
	question, err := h.service.CreateQuestion(c.Request.Context(), req.Theme, req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, question)
}

type submitAnswerRequest struct {
	QuestionID int64  `json:"question_id" binding:"required"`
	AnswerText string `json:"answer_text"`
}

type evaluationView struct {
	QuestionID int64  `json:"question_id"`
	AnswerText string `json:"answer_text"`
	Verdict    string `json:"verdict"`
	Score      int    `json:"score"`
	Evaluation string `json:"evaluation"`
	Cached     bool   `json:"cached"`
}

// SubmitAnswer grades the player's free-text answer and returns the verdict.
func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question_id is required"})
		return
	}

	resp, cached, err := h.service.SubmitAnswer(c.Request.Context(), currentPlayerID(c), req.QuestionID, req.AnswerText)
	if errors.Is(err, domain.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not grade answer"})
		return
	}

	evaluation := resp.Evaluation()
	c.JSON(http.StatusOK, evaluationView{
		QuestionID: resp.QuestionID,
		AnswerText: resp.AnswerText,
		Verdict:    string(evaluation.Verdict),
		Score:      evaluation.Score,
		Evaluation: evaluation.Text,
		Cached:     cached,
	})
}

type feedbackRequest struct {
	Liked *bool `json:"liked" binding:"required"`
}

// SetFeedback records a like or dislike on the player's own evaluation.
func (h *Handler) SetFeedback(c *gin.Context) {
	questionID, err := strconv.ParseInt(c.Param("questionID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid question id"})
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "liked is required"})
		return
	}

	resp, err := h.service.SetFeedback(c.Request.Context(), currentPlayerID(c), questionID, *req.Liked)
	if errors.Is(err, domain.ErrResponseNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "response not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save feedback"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListFeedback returns the player's graded answers, filtered by ?liked=.
func (h *Handler) ListFeedback(c *gin.Context) {
	var liked *bool
	if raw := c.Query("liked"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "liked must be true or false"})
			return
		}
		liked = &parsed
	}

	rows, err := h.service.ListFeedback(c.Request.Context(), currentPlayerID(c), liked)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load responses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": rows})
}

func (h *Handler) Leaderboard(c *gin.Context) {
	board, err := h.service.Leaderboard(c.Request.Context(), c.Query("theme"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *Handler) LeaderboardDetails(c *gin.Context) {
	details, err := h.service.LeaderboardDetails(c.Request.Context(), c.Query("theme"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load leaderboard details"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"details": details})
}
