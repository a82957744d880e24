package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-board/internal/config"
	"github.com/iliyamo/task-board/internal/database"
	"github.com/iliyamo/task-board/internal/handler"
	"github.com/iliyamo/task-board/internal/middleware"
	"github.com/iliyamo/task-board/internal/queue"
	"github.com/iliyamo/task-board/internal/repository"
	"github.com/iliyamo/task-board/internal/router"
	"github.com/iliyamo/task-board/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis may be absent; limiter and cache become pass-through and the
	// notifier silently drops events.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting / caching / notifications disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	projects := repository.NewProjectRepo(db)
	tickets := repository.NewTicketRepo(db)

	notifier := service.NewNotifier(rdb)
	rebalancer := service.NewRebalancer(tickets)
	mover := service.NewMover(tickets, rebalancer, notifier)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	projectH := handler.NewProjectHandler(projects)
	ticketH := handler.NewTicketHandler(tickets, projects, mover, notifier)
	ticketH.Activity = service.PublishTicketMoved

	// Activity consumer drains the RabbitMQ queue in the background and
	// reconnects on its own; a missing broker never blocks startup.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer: %v", err)
		}
	}()

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterBoard(e, projectH, ticketH, cfg.JWTSecret)
	router.RegisterDirectory(e, projectH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
