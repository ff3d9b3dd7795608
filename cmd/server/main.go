package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/rachitkansal-dev/prayatak-backend/internal/config"
	"github.com/rachitkansal-dev/prayatak-backend/internal/database"
	"github.com/rachitkansal-dev/prayatak-backend/internal/handler"
	"github.com/rachitkansal-dev/prayatak-backend/internal/mailer"
	"github.com/rachitkansal-dev/prayatak-backend/internal/middleware"
	"github.com/rachitkansal-dev/prayatak-backend/internal/queue"
	"github.com/rachitkansal-dev/prayatak-backend/internal/repository"
	"github.com/rachitkansal-dev/prayatak-backend/internal/router"
	"github.com/rachitkansal-dev/prayatak-backend/internal/session"
	"github.com/rachitkansal-dev/prayatak-backend/internal/storage"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		slog.Error("database open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		slog.Error("schema migration failed", "err", err)
		os.Exit(1)
	}
	cancel()

	// Sessions live in Redis so any instance can resolve any cookie and a
	// deleted account's sessions die everywhere at once. Without Redis the
	// server still runs, with process-local sessions.
	rdb := config.NewRedisClient()
	var sessions session.Store
	if rdb != nil {
		sessions = session.NewRedisStore(rdb)
	} else {
		slog.Warn("redis unavailable, using in-memory sessions")
		sessions = session.NewMemoryStore()
	}

	// Mail: SMTP when configured, console otherwise.
	var mail mailer.Mailer
	smtpPort, _ := strconv.Atoi(cfg.SMTPPort)
	if m := mailer.NewSMTPMailer(cfg.SMTPHost, smtpPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom); m != nil {
		mail = m
	} else {
		slog.Warn("no SMTP relay configured, mail goes to the log")
		mail = &mailer.ConsoleMailer{}
	}

	// Email jobs go through RabbitMQ when a broker is reachable; the
	// consumer below does the actual sending. Otherwise dispatch degrades
	// to direct async sends in-process.
	var mailDispatch queue.Dispatcher
	if os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != "" {
		url := queue.BrokerURL()
		mailDispatch = &queue.AMQPDispatcher{URL: url}
		go queue.StartEmailConsumer(url, mail)
	} else {
		mailDispatch = &queue.DirectDispatcher{Mailer: mail}
	}

	uploader, err := storage.NewS3UploaderFromEnv(context.Background())
	if err != nil {
		slog.Error("object storage init failed", "err", err)
		os.Exit(1)
	}
	if uploader == nil {
		slog.Warn("no object storage configured, uploads use the default image")
	}

	users := repository.NewUserRepo(db)
	otps := repository.NewOTPRepo(db)
	blogs := repository.NewBlogRepo(db)
	comments := repository.NewCommentRepo(db)
	items := repository.NewItemRepo(db)
	contacts := repository.NewContactRepo(db)

	authH := handler.NewAuthHandler(cfg, users, otps, sessions, mailDispatch)
	profileH := handler.NewProfileHandler(cfg, users, blogs, comments, sessions)
	blogH := handler.NewBlogHandler(blogs, comments, uploaderOrNil(uploader))
	itemH := handler.NewItemHandler(items, uploaderOrNil(uploader))
	contactH := handler.NewContactHandler(contacts)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			slog.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e, db)
	router.RegisterUsers(e, authH, profileH, contactH, sessions, limiter)
	router.RegisterBlogs(e, blogH, sessions)
	router.RegisterLostFound(e, itemH, sessions)

	addr := ":" + cfg.Port
	slog.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// uploaderOrNil keeps the typed-nil *S3Uploader out of the Uploader
// interface so handlers can test for nil.
func uploaderOrNil(u *storage.S3Uploader) storage.Uploader {
	if u == nil {
		return nil
	}
	return u
}
