package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/devparmar16/campus-ease/internal/alerts"
	"github.com/devparmar16/campus-ease/internal/analytics"
	"github.com/devparmar16/campus-ease/internal/auth"
	"github.com/devparmar16/campus-ease/internal/cache"
	"github.com/devparmar16/campus-ease/internal/chat"
	"github.com/devparmar16/campus-ease/internal/config"
	"github.com/devparmar16/campus-ease/internal/courses"
	"github.com/devparmar16/campus-ease/internal/events"
	"github.com/devparmar16/campus-ease/internal/identity"
	"github.com/devparmar16/campus-ease/internal/lostfound"
	"github.com/devparmar16/campus-ease/internal/mailer"
	"github.com/devparmar16/campus-ease/internal/ml"
	"github.com/devparmar16/campus-ease/internal/reports"
	"github.com/devparmar16/campus-ease/internal/session"
	"github.com/devparmar16/campus-ease/internal/storage/postgres"
	"github.com/devparmar16/campus-ease/internal/storage/sqlite"
	"github.com/devparmar16/campus-ease/internal/uploads"
	"github.com/devparmar16/campus-ease/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const schemaPath = "sql/schema.sql"

func main() {
	migrate := flag.Bool("migrate", false, "run migrations and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.MustLoad()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, closeDB, err := openDB(cfg, *migrate)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer closeDB()
	if *migrate {
		logger.Info("migration completed")
		return
	}

	sessions := session.NewStore()
	up := uploads.NewStore(cfg.UploadDir, cfg.UploadBaseURL)
	mlClient := ml.NewClient(cfg.MLBaseURL, time.Duration(cfg.MLTimeoutSec)*time.Second)
	mail := mailer.New(cfg.SendGridAPIKey, cfg.SendGridFrom)

	hub := chat.NewHub(logger, time.Duration(cfg.TypingIdleSec)*time.Second)
	go hub.Run()

	chatSvc := &chat.Service{
		Logger:   logger,
		Store:    &chat.SQLStore{DB: db},
		Hub:      hub,
		Sessions: sessions,
	}
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.Connect(ctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		chatSvc.Cache = rdb
		logger.Info("feed cache enabled", "addr", cfg.RedisAddr)
	}

	r := gin.Default()
	r.Static(cfg.UploadBaseURL, cfg.UploadDir)

	api := r.Group("/api")
	usersSvc := users.RegisterPublic(api, logger, db, sessions, up, cfg)

	// /ws authenticates itself (query token or bearer header), so it sits
	// outside the middleware chain.
	chat.RegisterWS(api, hub, sessions, cfg.JWTSecret)

	authed := api.Group("/", auth.JWTMiddleware(cfg.JWTSecret))
	usersSvc.RegisterAuthed(authed)
	chat.Register(authed, chatSvc)

	reportsSvc := &reports.Service{Logger: logger, DB: db, ML: mlClient, Uploads: up}
	reports.Register(authed, reportsSvc)

	eventsSvc := &events.Service{Logger: logger, DB: db, Uploads: up}
	events.Register(authed, eventsSvc)

	coursesSvc := &courses.Service{Logger: logger, DB: db}
	courses.Register(authed, coursesSvc)

	lfSvc := &lostfound.Service{Logger: logger, DB: db, Uploads: up}
	lostfound.Register(authed, lfSvc)

	alertsSvc := &alerts.Service{Logger: logger, DB: db, Hub: hub, Mailer: mail}
	alerts.Register(authed, alertsSvc)

	admin := authed.Group("/admin", auth.RequireRole(identity.RoleAdmin))
	reports.RegisterAdmin(admin, reportsSvc)
	events.RegisterAdmin(admin, eventsSvc)
	courses.RegisterAdmin(admin, coursesSvc)
	alerts.RegisterAdmin(admin, alertsSvc)
	analytics.RegisterAdmin(admin, &analytics.Service{Logger: logger, DB: db})

	logger.Info("campus-ease listening", "addr", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// openDB picks Postgres when a DSN is configured and falls back to the
// embedded SQLite file otherwise.
func openDB(cfg config.Config, migrate bool) (*sql.DB, func(), error) {
	if cfg.PostgresDsn != "" {
		pg, err := postgres.New(cfg.PostgresDsn)
		if err != nil {
			return nil, nil, err
		}
		if migrate {
			if err := pg.Migrate(schemaPath); err != nil {
				return nil, nil, err
			}
		}
		return pg.Db, func() { pg.Db.Close() }, nil
	}

	lite, err := sqlite.New(cfg.SQLITEDsn)
	if err != nil {
		return nil, nil, err
	}
	if migrate {
		if err := lite.Migrate(schemaPath); err != nil {
			return nil, nil, err
		}
	}
	return lite.Db, func() { lite.Db.Close() }, nil
}
