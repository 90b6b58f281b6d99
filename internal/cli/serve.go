package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trivia-arena/internal/config"
	"trivia-arena/internal/domain"
	"trivia-arena/internal/game"
	memorycache "trivia-arena/internal/infra/memory"
	pgarchive "trivia-arena/internal/infra/postgres"
	rediscache "trivia-arena/internal/infra/redis"
	"trivia-arena/internal/registry"
	transporthttp "trivia-arena/internal/transport/http"
	"trivia-arena/internal/transport/tcp"
	"trivia-arena/internal/trivia"
)

// NewServeCmd builds the CLI subcommand to start the game server.
func NewServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the trivia game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath)
		},
	}
}

func runServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	baseURL := cfg.Trivia.BaseURL
	if baseURL == "" {
		baseURL = trivia.DefaultBaseURL
	}
	var provider trivia.Provider = trivia.NewClient(baseURL, config.Duration(cfg.Trivia.Timeout, 10*time.Second))

	cacheTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		provider = rediscache.NewContentCache(redisClient, provider, cacheTTL)
	} else {
		provider = memorycache.NewContentCache(provider, cacheTTL)
	}

	reg := registry.New()
	queue := game.NewQueue()
	engine := game.NewEngine(queue, reg, provider, reg, log)
	if err := applyGameSettings(ctx, engine, cfg); err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		engine.SetArchiver(pgarchive.NewRoundArchive(pool))
	}

	tcpServer := tcp.NewServer(tcp.Config{
		RequestAddr:   cfg.Server.RequestAddr,
		PushAddr:      cfg.Server.PushAddr,
		PushAdvertise: cfg.Server.PushAdvertise,
	}, reg, queue, log)
	if err := tcpServer.Start(ctx); err != nil {
		return err
	}

	spectator := transporthttp.NewSpectatorHandler(engine, log)
	health := transporthttp.NewHealthHandler(map[string]transporthttp.Pinger{
		"tcp":    tcpServer,
		"engine": engine,
	})
	httpAddr := cfg.Server.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	httpServer := &http.Server{
		Addr:         httpAddr,
		Handler:      transporthttp.NewMux(spectator, health),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g.Go(func() error {
		engine.Run(ctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", httpAddr).Msg("spectator server up")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func applyGameSettings(ctx context.Context, engine *game.Engine, cfg config.Config) error {
	if raw := cfg.Game.RoundStartDelay; raw != "" {
		if err := engine.SetRoundStartDelay(config.Duration(raw, 15*time.Second)); err != nil {
			return err
		}
	}
	if raw := cfg.Game.AnswerDelay; raw != "" {
		if err := engine.SetAnswerDelay(config.Duration(raw, 15*time.Second)); err != nil {
			return err
		}
	}
	if raw := cfg.Game.NextQuestionDelay; raw != "" {
		if err := engine.SetNextQuestionDelay(config.Duration(raw, 5*time.Second)); err != nil {
			return err
		}
	}
	if cfg.Game.QuestionCount != 0 {
		if err := engine.SetQuestionCount(cfg.Game.QuestionCount); err != nil {
			return err
		}
	}
	if raw := cfg.Game.Difficulty; raw != "" {
		difficulty, err := domain.ParseDifficulty(raw)
		if err != nil {
			return err
		}
		engine.SetDifficulty(difficulty)
	}
	if raw := cfg.Game.Category; raw != "" {
		if err := engine.SetCategory(ctx, raw); err != nil {
			return err
		}
	}
	return nil
}
