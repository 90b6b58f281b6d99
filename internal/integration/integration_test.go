package integration

import (
	"context"
	"database/sql"
	"fmt"
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

	"trivia-arena/internal/domain"
	"trivia-arena/internal/game"
	pgarchive "trivia-arena/internal/infra/postgres"
	pgmigrations "trivia-arena/internal/infra/postgres/migrations"
	rediscache "trivia-arena/internal/infra/redis"
	"trivia-arena/internal/trivia"
)

func TestRoundArchiveEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	migrateArchive(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	archive := pgarchive.NewRoundArchive(pool)
	finished := time.Now().UTC().Truncate(time.Second)
	record := game.RoundRecord{
		RoundID:       1,
		Category:      "General Knowledge",
		Difficulty:    "Easy",
		QuestionCount: 5,
		Standings: []game.Standing{
			{ClientID: 1, Name: "Alice", Score: 4, Rank: 1},
			{ClientID: 2, Name: "Bob", Score: 2, Rank: 2},
		},
		FinishedAt: finished,
	}
	if err := archive.SaveRound(ctx, record); err != nil {
		t.Fatalf("save round: %v", err)
	}

	rounds, err := archive.RecentRounds(ctx, 10)
	if err != nil {
		t.Fatalf("recent rounds: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("expected 1 archived round, got %d", len(rounds))
	}
	got := rounds[0]
	if got.RoundID != 1 || got.Category != "General Knowledge" || got.QuestionCount != 5 {
		t.Fatalf("unexpected round: %+v", got)
	}
	if len(got.Standings) != 2 || got.Standings[0].Name != "Alice" || got.Standings[0].Rank != 1 {
		t.Fatalf("unexpected standings: %+v", got.Standings)
	}
}

func TestRedisContentCacheEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	provider := &countingProvider{}
	cache := rediscache.NewContentCache(redisClient, provider, 5*time.Minute)

	first, err := cache.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	second, err := cache.Categories(ctx)
	if err != nil {
		t.Fatalf("categories again: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", provider.calls)
	}
	if len(first) != 2 || len(second) != 2 || second[0].Name != "General Knowledge" {
		t.Fatalf("unexpected categories: %+v", second)
	}
}

type countingProvider struct {
	calls int
}

func (p *countingProvider) Categories(_ context.Context) ([]domain.Category, error) {
	p.calls++
	return []domain.Category{
		{ID: 9, Name: "General Knowledge"},
		{ID: 18, Name: "Science: Computers"},
	}, nil
}

func (p *countingProvider) Questions(_ context.Context, _ domain.Difficulty, _ *domain.Category, _ int) ([]domain.Question, error) {
	return nil, domain.ErrNoQuestions
}

var _ trivia.Provider = (*countingProvider)(nil)

func migrateArchive(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
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
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
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
