package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	docs "github.com/tazhibayda/account-service/docs"
	"github.com/tazhibayda/account-service/internal/auth"
	"github.com/tazhibayda/account-service/internal/config"
	api "github.com/tazhibayda/account-service/internal/http"
	"github.com/tazhibayda/account-service/internal/log"
	"github.com/tazhibayda/account-service/internal/metrics"
	"github.com/tazhibayda/account-service/internal/oauth"
	"github.com/tazhibayda/account-service/internal/queue"
	"github.com/tazhibayda/account-service/internal/repo"
	"github.com/tazhibayda/account-service/internal/security"
	"github.com/tazhibayda/account-service/internal/session"
)

type directory interface {
	auth.Directory
	api.Pinger
}

// @title Account API
// @version 1.0.0
// @description Signup, login, Google sign-in and password reset.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.DDAgentHost != "" {
		tracer.Start(tracer.WithService(cfg.DDService), tracer.WithEnv(cfg.Env), tracer.WithAgentAddr(cfg.DDAgentHost+":8126"))
		defer tracer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var users directory
	switch cfg.Store {
	case "memory":
		logger.Warn("using in-memory user store; data is lost on restart")
		users = repo.NewMemory()
	default:
		store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatal("mongo connect", zap.Error(err))
		}
		defer store.Close(context.Background())
		if err := store.EnsureUserIndexes(ctx); err != nil {
			logger.Fatal("mongo indexes", zap.Error(err))
		}
		users = store
	}

	var keys *security.KeyManager
	if cfg.JWTActiveKey != "" {
		keys, err = security.NewKeyManager(cfg.JWTActiveKid, cfg.JWTActiveKey, cfg.JWTNextKid, cfg.JWTNextKey)
		if err != nil {
			logger.Fatal("load signing keys", zap.Error(err))
		}
	}
	issuer := session.NewIssuer(session.Options{
		Secret:     cfg.JWTSecret,
		Keys:       keys,
		TTL:        cfg.JWTTTL,
		CookieName: cfg.CookieName,
		Domain:     cfg.CookieDomain,
	})

	pub := queue.NewNoop()
	if cfg.RabbitURL != "" {
		rp, err := queue.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.Fatal("rabbit publisher", zap.Error(err))
		}
		pub = rp
	} else {
		logger.Warn("RABBIT_URL not set; reset links are not delivered")
	}
	defer pub.Close()

	google := oauth.NewGoogle(oauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURI:  cfg.GoogleRedirectURI,
	})

	svc := auth.NewService(users, security.NewHasher(cfg.BcryptCost), issuer, google,
		pub,
		auth.Options{
			ClientURL:        cfg.ClientURL,
			ClientLocalURL:   cfg.ClientLocalURL,
			ResetTokenTTL:    cfg.ResetTokenTTL,
			ExposeResetToken: cfg.ExposeResetToken,
		}, logger)

	metrics.MustRegister(prometheus.DefaultRegisterer)
	docs.SwaggerInfo.BasePath = "/"

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(api.NewHandler(svc, issuer, users), api.RouterOptions{
		Logger:  logger,
		Origins: cfg.AllowedOrigins(),
		Service: cfg.DDService,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()

	log.Infof("account-service listening on :%s (store=%s)", cfg.Port, cfg.Store)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Infof("signal: %s, shutting down", s)
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server error: %v", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
