package main // Entry point package

import (
	"log" // Logging library

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/school-portal/internal/auth"
	"github.com/iliyamo/school-portal/internal/backend"
	"github.com/iliyamo/school-portal/internal/config"
	"github.com/iliyamo/school-portal/internal/handler"
	"github.com/iliyamo/school-portal/internal/middleware"
	"github.com/iliyamo/school-portal/internal/router"
	"github.com/iliyamo/school-portal/internal/service"
	"github.com/iliyamo/school-portal/internal/session"
)

func main() {
	cfg := config.Load() // Load environment config

	e := echo.New()
	e.HideBanner = true
	e.Renderer = handler.NewRenderer()
	if cfg.Env == "dev" {
		e.Logger.SetLevel(glog.DEBUG)
	} else {
		e.Logger.SetLevel(glog.INFO)
	}
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	api := backend.New(cfg.AuthBaseURL, cfg.APIBaseURL, cfg.APITimeout)
	store := session.NewCookieStore(cfg.CookieName, cfg.CookieSecure)

	var pub service.Publisher = service.NopPublisher{}
	if cfg.AuditEnabled {
		amqpPub := service.NewAMQPPublisher(cfg.AMQPURL)
		defer amqpPub.Close()
		pub = amqpPub
	}
	audit := handler.NewAuditor(pub)
	authHandler := handler.NewAuthHandler(api, store, audit)

	// Login throttling is skipped when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	loginLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, store, authHandler.TooManyAttempts)

	router.RegisterRoutes(e, router.Deps{
		Store:      store,
		Resolver:   auth.NewResolver(api),
		Verifier:   auth.NewVerifier(api),
		Auth:       authHandler,
		Views:      &handler.ViewHandler{Data: api, Store: store},
		Audit:      audit,
		LoginLimit: loginLimit,
	})

	addr := ":" + cfg.Port                                                       // Address string with port
	log.Printf("listening on %s (env=%s, api=%s)", addr, cfg.Env, cfg.APIBaseURL) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
