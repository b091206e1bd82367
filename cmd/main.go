package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giftshop/auth"
	"giftshop/cache"
	"giftshop/checkout"
	"giftshop/config"
	"giftshop/controllers"
	"giftshop/database"
	"giftshop/logger"
	"giftshop/middleware"
	"giftshop/notification"
	"giftshop/routes"
	"giftshop/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "giftshop", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: cfg.AppEnv != "prod"})

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Error("mongo connect failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	db := client.Database(cfg.DBName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Error("ensure indexes failed", slog.Any("err", err))
		os.Exit(1)
	}

	users := store.NewUserStore(db.Collection(database.UsersCollection))
	blacklist := store.NewTokenStore(db.Collection(database.BlacklistedTokensColl))
	products := store.NewProductStore(db.Collection(database.ProductsCollection))
	categories := store.NewTaxonomyStore(db.Collection(database.CategoriesCollection))
	occasions := store.NewTaxonomyStore(db.Collection(database.OccasionsCollection))
	blogs := store.NewBlogStore(db.Collection(database.BlogsCollection))
	carts := store.NewCartStore(db.Collection(database.CartsCollection))
	wishlist := store.NewWishlistStore(db.Collection(database.WishlistsCollection))
	orders := store.NewOrderStore(db.Collection(database.OrdersCollection))

	var (
		locker cache.Locker
		idem   cache.Cache
	)
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis ping failed", slog.Any("err", err), slog.String("addr", cfg.RedisAddr))
			os.Exit(1)
		}
		locker, idem = cache.NewRedisLocker(rdb), cache.NewRedisCache(rdb)
		log.Info("using redis for checkout locks", slog.String("addr", cfg.RedisAddr))
	} else {
		mem := cache.NewMemory()
		locker, idem = mem, mem
		log.Warn("REDIS_ADDR not set, checkout locks are process-local")
	}

	var sender notification.Sender
	if cfg.SendGridAPIKey != "" {
		sender = notification.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFrom, "Giftshop")
	} else {
		sender = notification.NewLogSender(log)
		log.Warn("SENDGRID_API_KEY not set, order emails are only logged")
	}

	checkoutSvc := checkout.NewService(checkout.Deps{
		Carts:         carts,
		Products:      products,
		Orders:        orders,
		Users:         users,
		Locker:        locker,
		Idempotency:   idem,
		Notifier:      sender,
		OperatorEmail: cfg.OperatorEmail,
		Logger:        log,
	})

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL, blacklist)
	h := controllers.New(controllers.Deps{
		Users:        users,
		Blacklist:    blacklist,
		Tokens:       tokens,
		Products:     products,
		Categories:   categories,
		Occasions:    occasions,
		Blogs:        blogs,
		Carts:        carts,
		Wishlist:     wishlist,
		Orders:       orders,
		Placer:       checkoutSvc,
		IsAdminEmail: cfg.IsAdminEmail,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	})

	if cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))
	r.SetTrustedProxies(nil)
	routes.RegisterRoutes(r, h, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve error", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", slog.Any("err", err))
	}

	checkoutSvc.Wait()
	log.Info("bye")
}
