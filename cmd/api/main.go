package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/mail"
	"storefront/internal/migrate"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
	wishlistrepo "storefront/internal/repository/wishlist"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	"storefront/internal/service/resolver"
	wishlistsvc "storefront/internal/service/wishlist"
)

const tokenPurgeInterval = time.Hour

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	userRepo := userrepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)

	var productLookups resolver.Source = productRepo
	var productCache *cache.ProductCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		productCache = cache.NewProductCache(rdb, productRepo, cfg.Redis.ProductTTL, logger)
		productLookups = productCache
		logger.Info("product cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.Dial(cfg.AMQP.URL, logger)
		if err != nil {
			logger.Fatal("connect to amqp", zap.Error(err))
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	orderOpts := []ordersvc.Option{ordersvc.WithPublisher(publisher)}
	if cfg.Mail.SendGridAPIKey != "" {
		mailer := mail.NewOrderMailer(mail.NewSendGridClient(cfg.Mail.SendGridAPIKey), cfg.Mail.From, logger)
		orderOpts = append(orderOpts, ordersvc.WithMailer(mailer, userRepo))
		logger.Info("order confirmation mail enabled", zap.String("from", cfg.Mail.From))
	}

	authService := authsvc.New(userRepo, tokenrepo.NewPostgres(dbpool), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	deps := httpserver.Deps{
		Auth:       authService,
		Categories: categorysvc.New(categoryrepo.NewPostgres(dbpool)),
		Cart:       cartsvc.New(cartRepo, productLookups, logger),
		Wishlist:   wishlistsvc.New(wishlistrepo.NewPostgres(dbpool, logger), productLookups, logger),
		Orders:     ordersvc.New(orderrepo.NewPostgres(dbpool, logger), cartRepo, productLookups, logger, orderOpts...),
	}
	if productCache != nil {
		deps.Products = productsvc.New(productRepo, productCache, productCache, logger)
	} else {
		deps.Products = productsvc.New(productRepo, productRepo, nil, logger)
	}

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps, httpserver.Options{
		Production:  cfg.Production(),
		CORSOrigins: cfg.CORSOrigins,
	})

	go purgeTokens(ctx, authService, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

// purgeTokens drops expired sessions until ctx is cancelled.
func purgeTokens(ctx context.Context, svc *authsvc.Service, logger *zap.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged expired tokens", zap.Int64("count", n))
			}
		}
	}
}
