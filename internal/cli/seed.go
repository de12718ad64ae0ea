package cli

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"

	"smartplay-service/internal/config"
	"smartplay-service/internal/domain"
	"smartplay-service/internal/infra/postgres"
)

// NewSeedCmd loads scenario questions into the database.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load scenario questions into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with questions; built-in set when omitted")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	questions := defaultQuestions()
	if file != "" {
		questions, err = readQuestionsFile(file)
		if err != nil {
			return err
		}
	}

	db := openBun(cfg.Postgres.URL)
	defer db.Close()

	repo := postgres.NewQuestionRepository(db)
	n, err := repo.BulkCreate(ctx, questions)
	if err != nil {
		return err
	}
	log.Printf("seeded %d questions", n)
	return nil
}

func readQuestionsFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []struct {
		Theme string `json:"theme"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(raw))
	for _, q := range raw {
		questions = append(questions, domain.Question{Theme: q.Theme, Text: q.Text})
	}
	return questions, nil
}

// defaultQuestions is the starter set used for seeding and for the in-memory
// mode when no database is configured.
func defaultQuestions() []domain.Question {
	return []domain.Question{
		{Theme: "survival", Text: "You are lost in a dense forest as night falls and the temperature is dropping. What do you do?"},
		{Theme: "survival", Text: "Your boat capsizes two kilometres from shore in cold water. What is your plan?"},
		{Theme: "survival", Text: "A wildfire is approaching your campsite and the wind keeps shifting. How do you get out?"},
		{Theme: "work", Text: "A production deploy fails on a Friday evening and customers are affected. What now?"},
		{Theme: "work", Text: "A teammate keeps missing deadlines and the project is slipping. How do you handle it?"},
		{Theme: "work", Text: "You discover a serious bug in a feature you shipped last month. What do you do first?"},
		{Theme: "interview", Text: "Tell me about a time you had to resolve a conflict inside your team."},
		{Theme: "interview", Text: "Describe a project that failed and what you learned from it."},
		{Theme: "interview", Text: "Why should we pick you over a candidate with more experience?"},
		{Theme: "social", Text: "You arrive at a party where you know nobody and the host is busy. What do you do?"},
		{Theme: "social", Text: "A close friend asks for honest feedback on work you think is weak. What do you say?"},
		{Theme: "social", Text: "You witness a stranger being treated unfairly in public. How do you react?"},
	}
}
