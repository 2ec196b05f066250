package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/backend/internal/auth"
	authhandler "taskboard/backend/internal/auth/handler"
	authservice "taskboard/backend/internal/auth/service"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/db"
	"taskboard/backend/internal/logger"
	membershiprepo "taskboard/backend/internal/membership/repository"
	"taskboard/backend/internal/policy/engine"
	"taskboard/backend/internal/security"
	"taskboard/backend/internal/server"
	sessionrepo "taskboard/backend/internal/session/repository"
	taskhandler "taskboard/backend/internal/task/handler"
	taskrepo "taskboard/backend/internal/task/repository"
	teamhandler "taskboard/backend/internal/team/handler"
	teamrepo "taskboard/backend/internal/team/repository"
	userhandler "taskboard/backend/internal/user/handler"
	userrepo "taskboard/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog := logger.New(cfg.Env)
	defer zlog.Sync()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatalw("database", "error", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	teams := teamrepo.NewPostgresRepository(conn)
	members := membershiprepo.NewPostgresRepository(conn)
	tasks := taskrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)

	asserter, err := buildAsserter(cfg, users, sessions)
	if err != nil {
		zlog.Fatalw("asserter", "error", err)
	}

	eval, err := engine.NewOPAEvaluator()
	if err != nil {
		zlog.Fatalw("policy", "error", err)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	authSvc := authservice.NewAuthService(users, hasher, asserter)

	router := server.NewRouter(server.Deps{
		Asserter:       asserter,
		AuthHandler:    authhandler.New(authSvc, eval, cfg.AuthStrategy, zlog),
		UserHandler:    userhandler.New(users, eval, zlog),
		TeamHandler:    teamhandler.New(teams, members, eval, zlog),
		TaskHandler:    taskhandler.New(tasks, eval, zlog),
		AllowedOrigins: cfg.AllowedOrigins(),
		Log:            zlog,
	})

	srv := server.New(cfg.HTTPAddr, router, zlog)

	go func() {
		if err := srv.Start(); err != nil {
			zlog.Fatalw("serve", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zlog.Infow("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Errorw("shutdown", "error", err)
	}
	zlog.Infow("http server stopped")
}

// buildAsserter selects the identity assertion strategy from config.
func buildAsserter(cfg *config.Config, users userrepo.Repository, sessions sessionrepo.Repository) (auth.Asserter, error) {
	if cfg.AuthStrategy == config.StrategySession {
		return auth.NewSessionAsserter(sessions, users, cfg.SessionLifetime()), nil
	}
	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		return nil, err
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		return nil, err
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	return auth.NewTokenAsserter(tokens), nil
}
