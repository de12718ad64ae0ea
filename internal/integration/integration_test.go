package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"smartplay-service/internal/app"
	"smartplay-service/internal/domain"
	"smartplay-service/internal/eval"
	pg "smartplay-service/internal/infra/postgres"
	pgmigrations "smartplay-service/internal/infra/postgres/migrations"
	infraredis "smartplay-service/internal/infra/redis"
)

const judgeReply = `The answer commits to a concrete plan. It keeps the player safe. It uses the terrain sensibly. It could mention signalling for rescue. {"verdict": "GOOD", "score": 4}`

func TestAnswerFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": judgeReply},
		})
	}))
	defer model.Close()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	players := pg.NewPlayerRepository(db)
	questions := pg.NewQuestionRepository(db)
	responses := pg.NewResponseRepository(db)
	cache := infraredis.NewLeaderboardCache(redisClient, pg.NewLeaderboardSource(pool), time.Minute)
	client := eval.NewHTTPModelClient(model.URL, "llama3", 5*time.Second)
	evaluator := eval.NewEvaluator(client, responses)
	generator := eval.NewQuestionGenerator(client)
	service := app.NewGameService(players, questions, responses, evaluator, generator, cache, cache, app.NewLeaderboardHub())

	ada, err := service.LoginOrRegister(ctx, "ada", "")
	if err != nil {
		t.Fatalf("register ada: %v", err)
	}
	bob, err := service.LoginOrRegister(ctx, "bob", "")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	question, err := service.CreateQuestion(ctx, "survival", "You are lost in a forest at dusk. What do you do?")
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	resp, cached, err := service.SubmitAnswer(ctx, ada.ID, question.ID, "Follow a stream downhill.")
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if cached {
		t.Fatalf("first grading should call the model")
	}
	if resp.Score != 4 || resp.Verdict != domain.VerdictGood {
		t.Fatalf("unexpected evaluation: %+v", resp)
	}

	// The identical answer from another player reuses the stored evaluation.
	resp2, cached, err := service.SubmitAnswer(ctx, bob.ID, question.ID, "Follow a stream downhill.")
	if err != nil {
		t.Fatalf("submit cached answer: %v", err)
	}
	if !cached {
		t.Fatalf("expected cached evaluation for repeated answer")
	}
	if resp2.PlayerID != bob.ID || resp2.Score != resp.Score {
		t.Fatalf("expected bob's own row with cached score, got %+v", resp2)
	}

	board, err := service.Leaderboard(ctx, "")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(board.Entries))
	}
	for _, entry := range board.Entries {
		if entry.Score != 4 {
			t.Fatalf("expected both totals at 4, got %+v", board.Entries)
		}
	}

	// Re-answering overwrites the row and adjusts the total, not doubles it.
	if _, _, err := service.SubmitAnswer(ctx, ada.ID, question.ID, "Climb the tallest tree and wait."); err != nil {
		t.Fatalf("re-answer: %v", err)
	}
	adaNow, err := service.GetPlayer(ctx, ada.ID)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if adaNow.Score != 4 {
		t.Fatalf("expected total to stay 4 after re-answer, got %d", adaNow.Score)
	}

	if _, err := service.SetFeedback(ctx, ada.ID, question.ID, true); err != nil {
		t.Fatalf("set feedback: %v", err)
	}
	liked := true
	rows, err := service.ListFeedback(ctx, ada.ID, &liked)
	if err != nil {
		t.Fatalf("list feedback: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one liked row, got %d", len(rows))
	}

	details, err := service.LeaderboardDetails(ctx, "survival")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("expected two detail rows, got %d", len(details))
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "smartplay", "POSTGRES_PASSWORD": "smartpass", "POSTGRES_DB": "smartplaydb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://smartplay:smartpass@%s:%s/smartplaydb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
