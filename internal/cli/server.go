package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"smartplay-service/internal/app"
	"smartplay-service/internal/auth"
	"smartplay-service/internal/config"
	"smartplay-service/internal/eval"
	"smartplay-service/internal/infra/memory"
	pg "smartplay-service/internal/infra/postgres"
	rediscache "smartplay-service/internal/infra/redis"
	transport "smartplay-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		players   app.PlayerRepository
		questions app.QuestionRepository
		responses app.ResponseRepository
		board     app.LeaderboardSource
	)

	if cfg.Postgres.URL != "" {
		db := openBun(cfg.Postgres.URL)
		defer db.Close()

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		players = pg.NewPlayerRepository(db)
		questions = pg.NewQuestionRepository(db)
		responses = pg.NewResponseRepository(db)
		board = pg.NewLeaderboardSource(pool)
	} else {
		memPlayers := memory.NewPlayerRepository()
		memQuestions := memory.NewQuestionRepository()
		memResponses := memory.NewResponseRepository(memPlayers, memQuestions)
		if _, err := memQuestions.BulkCreate(ctx, defaultQuestions()); err != nil {
			return err
		}
		players = memPlayers
		questions = memQuestions
		responses = memResponses
		board = memory.NewLeaderboardSource(memPlayers, memQuestions, memResponses)
		log.Printf("no postgres url configured, using in-memory storage")
	}

	var invalidator app.LeaderboardInvalidator
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		boardTTL := config.Duration(cfg.Leaderboard.TTL, time.Minute)
		cache := rediscache.NewLeaderboardCache(redisClient, board, boardTTL)
		board = cache
		invalidator = cache
	}

	client := eval.NewHTTPModelClient(cfg.Model.URL, cfg.Model.Name, config.Duration(cfg.Model.Timeout, 0))
	evaluator := eval.NewEvaluator(client, responses)
	generator := eval.NewQuestionGenerator(client)

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = "dev-secret"
		log.Printf("JWT_SECRET not set, using insecure development secret")
	}
	authManager := auth.NewManager(secret, config.Duration(cfg.Auth.Expiry, 0))

	hub := app.NewLeaderboardHub()
	service := app.NewGameService(players, questions, responses, evaluator, generator, board, invalidator, hub)
	router := transport.NewRouter(service, authManager)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("starting smartplay service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
