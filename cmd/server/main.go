package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/emberleaf/storefront/internal/api"
	"github.com/emberleaf/storefront/internal/cache"
	"github.com/emberleaf/storefront/internal/catalog"
	"github.com/emberleaf/storefront/internal/currency"
	"github.com/emberleaf/storefront/internal/rates"
	"github.com/emberleaf/storefront/internal/repository"
	"github.com/emberleaf/storefront/internal/service"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	CatalogDSN      string
	RatesURL        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	RefreshInterval time.Duration
	SweepInterval   time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "storefront"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CatalogDSN:      getEnv("CATALOG_DSN", "file:catalog.db"),
		RatesURL:        getEnv("RATES_URL", rates.DefaultEndpoint),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RefreshInterval: 6 * time.Hour,
		SweepInterval:   time.Hour,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoDB.Client().Disconnect(ctx); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}()
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	cartRepo := repository.NewMongoCartRepository(mongoDB)
	wishlistRepo := repository.NewMongoWishlistRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	if err := wishlistRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create wishlist indexes: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	store, err := catalog.Open(cfg.CatalogDSN)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer store.Close()

	provider := rates.NewProvider(ctx, rates.NewClient(cfg.RatesURL), rates.NewRedisCache(redisClient))
	if !provider.Fresh(time.Now()) {
		// Best effort; the provider serves cached or default rates until the
		// fetch lands.
		go provider.Refresh(context.Background())
	}

	converter := currency.NewConverter(provider)
	cartSvc := service.NewCartService(cartRepo, cache.NewRedisCache(redisClient), cache.NewRedisPreferences(redisClient), converter)
	wishlistSvc := service.NewWishlistService(wishlistRepo)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	go service.NewSweeper(cartRepo, cfg.SweepInterval).Run(runCtx)
	go refreshLoop(runCtx, provider, cfg.RefreshInterval)

	router := api.NewRouter(
		api.NewCartHandler(cartSvc, store, cfg.RequestTimeout),
		api.NewWishlistHandler(wishlistSvc, store, cfg.RequestTimeout),
		api.NewCatalogHandler(store, cartSvc, converter, cfg.RequestTimeout),
		api.NewCurrencyHandler(cartSvc, provider, cfg.RequestTimeout),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

// refreshLoop keeps the exchange rate table inside its freshness window.
func refreshLoop(ctx context.Context, provider *rates.Provider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !provider.Fresh(time.Now()) {
				provider.Refresh(ctx)
			}
		}
	}
}
