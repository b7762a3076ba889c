package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/quangph-dn/rhythm-companion/internal/config"
	"github.com/quangph-dn/rhythm-companion/internal/database"
	"github.com/quangph-dn/rhythm-companion/internal/handler"
	"github.com/quangph-dn/rhythm-companion/internal/middleware"
	"github.com/quangph-dn/rhythm-companion/internal/queue"
	"github.com/quangph-dn/rhythm-companion/internal/repository"
	"github.com/quangph-dn/rhythm-companion/internal/router"
	"github.com/quangph-dn/rhythm-companion/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(context.Background(), cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the token deny-list, the auth rate limiter and the
	// catalog cache. All three degrade gracefully when it is absent.
	rdb := config.NewRedisClient()

	accounts := repository.NewAccountRepo(db)
	bans := repository.NewBanRepo(db)
	status := repository.NewGameStatusRepo(db)
	scores := repository.NewScoreRepo(db)
	songs := repository.NewSongRepo(db)
	blobs := repository.NewBlobRepo(db)
	deny := repository.NewTokenDenylist(rdb)

	mailer := service.NewMailer(cfg)

	authH := handler.NewAuthHandler(cfg, accounts, bans, status, scores, deny, mailer)
	statusH := handler.NewGameStatusHandler(status, scores)
	playerH := handler.NewPlayerHandler(accounts, status, bans)
	catalogCache := middleware.NewCatalogCache(rdb)
	songH := handler.NewSongHandler(songs, scores, blobs, catalogCache)

	authenticate := middleware.Authenticate(cfg, accounts, bans, deny)
	admin := middleware.RequireAdmin()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	// The game client and admin panel are served from other origins; cookies
	// ride along, so credentials must be allowed.
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOriginFunc:  func(string) (bool, error) { return true, nil },
		AllowCredentials: true,
	}))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, authenticate, limiter)
	router.RegisterGameStatus(e, statusH, authenticate)
	router.RegisterPlayers(e, playerH, authenticate, admin)
	router.RegisterSongs(e, songH, authenticate, admin, catalogCache.Middleware())

	// Expired bans are swept out hourly; the grace period keeps the most
	// recent history visible to admins for a day after expiry.
	go bans.StartExpirySweep(context.Background(), time.Hour, 24*time.Hour)

	go func() {
		if err := queue.StartModerationConsumer(); err != nil {
			log.Printf("moderation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
