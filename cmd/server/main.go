package main // task-planner API server entry point

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-planner/internal/config"
	"github.com/iliyamo/task-planner/internal/database"
	"github.com/iliyamo/task-planner/internal/handler"
	"github.com/iliyamo/task-planner/internal/model"
	"github.com/iliyamo/task-planner/internal/queue"
	"github.com/iliyamo/task-planner/internal/repository"
	"github.com/iliyamo/task-planner/internal/router"
	"github.com/iliyamo/task-planner/internal/service"
)

func main() {
	// Best effort: a missing .env simply means config comes from the
	// real environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	// Redis is optional; without it the rate limiter passes through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}

	// Activity-log consumer for completed tasks. Runs its own
	// reconnect loop, so broker outages only cost events, not uptime.
	go queue.StartTaskConsumer()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tasks := repository.NewTaskRepo(db)

	authSvc := service.NewAuthService(cfg, db, users, tokens)
	taskSvc := service.NewTaskService(tasks)
	taskSvc.Completed = func(ctx context.Context, t model.Task) {
		ev := queue.TaskCompletedEvent{
			TaskID:      t.ID,
			UserID:      t.UserID,
			Title:       t.Title,
			Date:        t.Date,
			Priority:    t.Priority,
			CompletedAt: time.Now().UTC().Format(time.RFC3339),
		}
		// Detached from the request: publishing must never delay or
		// fail the mutation that triggered it.
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pcancel()
			_ = queue.PublishTaskCompleted(pctx, ev)
		}()
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, handler.NewAuthHandler(authSvc), handler.NewTaskHandler(taskSvc), cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
