package domain

import "time"

// Verdict is the coarse GOOD/BAD classification of an answer.
type Verdict string

const (
	VerdictGood Verdict = "GOOD"
	VerdictBad  Verdict = "BAD"
)

// VerdictFromScore re-derives a verdict for stored rows that predate the
// verdict column: 3 and above counts as GOOD.
func VerdictFromScore(score int) Verdict {
	if score >= 3 {
		return VerdictGood
	}
	return VerdictBad
}

// Player represents a registered player and their accumulated score.
type Player struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Score        int       `json:"score"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Question is a scenario question belonging to a theme.
type Question struct {
	ID    int64  `json:"id"`
	Theme string `json:"theme"`
	Text  string `json:"questionText"`
}

// Evaluation is the judged outcome of a single answer.
type Evaluation struct {
	Text    string  `json:"evaluationText"`
	Verdict Verdict `json:"verdict"`
	Score   int     `json:"score"`
}

// StoredResponse is a player's latest answer to a question, together with its
// evaluation. There is at most one row per (player, question) pair; answering
// again overwrites it.
type StoredResponse struct {
	PlayerID       int64     `json:"playerId"`
	QuestionID     int64     `json:"questionId"`
	AnswerText     string    `json:"answerText"`
	Score          int       `json:"score"`
	Verdict        Verdict   `json:"verdict"`
	EvaluationText string    `json:"evaluationText"`
	Liked          *bool     `json:"liked,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Evaluation returns the response's evaluation, re-deriving the verdict for
// legacy rows stored without one.
func (r StoredResponse) Evaluation() Evaluation {
	verdict := r.Verdict
	if verdict != VerdictGood && verdict != VerdictBad {
		verdict = VerdictFromScore(r.Score)
	}
	return Evaluation{Text: r.EvaluationText, Verdict: verdict, Score: r.Score}
}

// LeaderboardEntry is a single ranked row of the scoreboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID int64  `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Leaderboard is the ordered scoreboard, optionally restricted to a theme.
type Leaderboard struct {
	Theme     string             `json:"theme,omitempty"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// LeaderboardDetail is one answered question in the leaderboard review view.
type LeaderboardDetail struct {
	PlayerName     string `json:"playerName"`
	Theme          string `json:"theme"`
	QuestionText   string `json:"questionText"`
	AnswerText     string `json:"answerText"`
	Score          int    `json:"score"`
	EvaluationText string `json:"evaluationText"`
}
