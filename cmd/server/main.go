package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/avetisk/civic-voice/internal/auth"
	"github.com/avetisk/civic-voice/internal/config"
	"github.com/avetisk/civic-voice/internal/database"
	"github.com/avetisk/civic-voice/internal/handler"
	"github.com/avetisk/civic-voice/internal/middleware"
	"github.com/avetisk/civic-voice/internal/queue"
	"github.com/avetisk/civic-voice/internal/repository"
	"github.com/avetisk/civic-voice/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	proposals := repository.NewProposalRepo(db)
	suggestions := repository.NewSuggestionRepo(db)
	comments := repository.NewCommentRepo(db)
	notices := repository.NewNoticeRepo(db)
	votes := repository.NewVoteRepo(db)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays, users)
	authSvc := auth.NewService(users, issuer, cfg.BcryptCost)

	authHandler := handler.NewAuthHandler(cfg, authSvc)
	proposalHandler := handler.NewProposalHandler(proposals)
	suggestionHandler := handler.NewSuggestionHandler(suggestions, proposals, votes)
	commentHandler := handler.NewCommentHandler(comments, suggestions)
	noticeHandler := handler.NewNoticeHandler(notices)

	// Rate limiting degrades to pass-through when redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret, limiter)
	router.RegisterCivic(e, proposalHandler, suggestionHandler, commentHandler, noticeHandler, cfg.JWTSecret)

	// The activity consumer reconnects on its own; run it for the life of
	// the process.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
