package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"wanderlist/auth"
	"wanderlist/cache"
	"wanderlist/catalog"
	"wanderlist/config"
	"wanderlist/db"
	"wanderlist/events"
	"wanderlist/lists"
	"wanderlist/logging"
	"wanderlist/maps"
	"wanderlist/middleware"
	"wanderlist/notify"
	"wanderlist/photos"
	"wanderlist/profile"
	"wanderlist/ratelim"
	"wanderlist/rdx"
	"wanderlist/routes"
	"wanderlist/search"
	"wanderlist/store"
	"wanderlist/toppicks"
)

// openStore returns the configured document store and, for mongo, the
// client to disconnect on shutdown.
func openStore(ctx context.Context, cfg config.Config) (store.Store, *mongo.Client, error) {
	if cfg.StoreDriver == "memory" {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return store.NewMemory(), nil, nil
	}
	client, database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Warn().Err(err).Msg("ensure indexes")
	}
	return store.NewMongo(database), client, nil
}

// openCaches returns the Redis-backed top picks and photo caches, or
// no-op caches when Redis is unreachable.
func openCaches(ctx context.Context, cfg config.Config) (toppicks.LocalCache, photos.URLCache, func()) {
	conn, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable; caching disabled")
		return rdx.Discard{}, rdx.Discard{}, func() {}
	}
	return rdx.NewKV(conn, "wanderlist:", 48*time.Hour),
		rdx.NewKV(conn, "wanderlist:photo:", 7*24*time.Hour),
		func() { _ = conn.Close() }
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.LogLevel, cfg.LogPretty)
	loc, _ := cfg.Location()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	st, mongoClient, err := openStore(ctx, cfg)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("open store")
	}
	pickCache, photoCache, closeRedis := openCaches(ctx, cfg)
	cancel()

	memo, err := cache.New(10_000, 30*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("attraction cache")
	}

	var photoSearch photos.Searcher
	if cfg.UnsplashKey != "" {
		photoSearch = photos.NewCached(photos.NewUnsplash(cfg.UnsplashURL, cfg.UnsplashKey, cfg.PhotoRate), photoCache)
	} else {
		log.Warn().Msg("UNSPLASH_ACCESS_KEY not set; activities use the placeholder image")
	}

	var providers []auth.Provider
	if cfg.GoogleClientID != "" {
		providers = append(providers, auth.NewGoogle(cfg.GoogleClientID))
	}
	authSvc := auth.NewService(st, auth.Config{Secret: []byte(cfg.JWTSecret), TokenTTL: cfg.TokenTTL}, providers...)

	bus := events.NewBus()
	cat := catalog.New(st, memo, cfg.TopPicksPageSize)

	registry := lists.NewRegistry(lists.Options{Store: st, Photos: photoSearch, Bus: bus})
	unsubAuth := authSvc.OnAuthStateChange(registry.HandleAuthState)
	defer unsubAuth()

	profiles := profile.NewService(profile.Options{
		Store:     st,
		Bus:       bus,
		UploadDir: cfg.UploadDir,
		PublicURL: cfg.PublicURL + "/static",
	})

	picks := toppicks.NewService(toppicks.Options{
		Catalog:     cat,
		Preferences: profiles,
		Cache:       pickCache,
		Size:        cfg.TopPicksSize,
		Location:    loc,
	})
	unsubPicks := toppicks.InvalidateOnPreferenceChange(bus, picks)
	defer unsubPicks()

	suggester := search.NewSuggester(st, cfg.SearchLimit)

	hub := notify.NewHub()
	go hub.Run()
	unsubHub := notify.Forward(bus, hub)
	defer unsubHub()

	var geocoder maps.Geocoder
	if cfg.MapsKey != "" {
		geocoder = maps.NewGoogle(cfg.GeocodeURL, cfg.MapsKey)
	} else {
		geocoder = maps.Disabled{}
	}

	router := httprouter.New()
	routes.RoutesWrapper(router, routes.Deps{
		Auth:     authSvc,
		Catalog:  cat,
		Lists:    registry,
		TopPicks: picks,
		Search:   suggester,
		Profile:  profiles,
		Geocoder: geocoder,
		Hub:      hub,
		WS: notify.Options{
			Verifier: authSvc,
			Suggest:  suggester.Suggest,
			Debounce: cfg.SearchDebounce,
		},
		PublicURL:   cfg.PublicURL,
		UploadDir:   cfg.UploadDir,
		RateLimiter: ratelim.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
	})

	// CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Client-ID", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(router)

	handler := middleware.RequestLogger(middleware.SecurityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Info().Msg("stopping notification hub")
		hub.Stop()
	})

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	memo.Close()
	closeRedis()
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("disconnect mongo")
		}
	}
	log.Info().Msg("server stopped")
}
