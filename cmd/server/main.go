package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-swipe-client/api"
	"github.com/jrsteele09/go-swipe-client/auth"
	"github.com/jrsteele09/go-swipe-client/auth/flowstate"
	"github.com/jrsteele09/go-swipe-client/internal/config"
	"github.com/jrsteele09/go-swipe-client/internal/telemetry"
	"github.com/jrsteele09/go-swipe-client/profiles"
	"github.com/jrsteele09/go-swipe-client/server"
	"github.com/jrsteele09/go-swipe-client/sessions"
	"github.com/jrsteele09/go-swipe-client/sessions/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const janitorInterval = time.Minute

var errPanicRecovered = errors.New("panic recovered")

func main() {
	for {
		err := run()
		if err == nil {
			break
		}
		if !errors.Is(err, errPanicRecovered) {
			log.Fatal().Err(err).Msg("error running server")
		}
		log.Error().Err(err).Msg("restarting server")
		time.Sleep(1 * time.Second)
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errPanicRecovered
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogger(c.GetLogLevel())
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Err(err).Msg("flushing traces failed")
		}
	}()

	store, cache, closeStores, err := newStores(ctx, c)
	if err != nil {
		return err
	}
	defer closeStores()

	transportOptions := api.TransportOptions{Burst: c.GetAPIRateBurst()}
	if c.GetEnableRateLimiting() {
		transportOptions.RateLimit = c.GetAPIRateLimit()
	}
	client := api.New(c.GetAPIURL(), api.NewTransport(nil, transportOptions))

	login, err := auth.NewLogin(ctx, c, c.GetAPIURL()+"/auth/login", flowstate.NewInMemoryRepo())
	if err != nil {
		return err
	}

	srv, err := server.New(c, client, login, store, cache)
	if err != nil {
		return err
	}
	defer srv.Close()
	go srv.RunJanitor(ctx, janitorInterval)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// newStores keeps sessions and the profile cache in Redis when REDIS_ADDR
// is set, and in memory otherwise.
func newStores(ctx context.Context, c config.Config) (sessions.Store, profiles.Cache, func(), error) {
	if c.GetRedisAddr() == "" {
		log.Warn().Msg("REDIS_ADDR not set; sessions are kept in memory")
		return sessions.NewInMemoryStore(), profiles.NewMemoryCache(), func() {}, nil
	}

	var sealer *sessions.Sealer
	if key := c.GetSessionSealKey(); key != "" {
		var err error
		if sealer, err = sessions.NewSealer(key); err != nil {
			return nil, nil, nil, err
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
		DB:       c.GetRedisDB(),
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, nil, fmt.Errorf("redis ping %s: %w", c.GetRedisAddr(), err)
	}
	log.Info().Str("addr", c.GetRedisAddr()).Bool("sealed", sealer != nil).Msg("using redis session store")

	prefix := c.GetRedisPrefix()
	closeFn := func() {
		if err := redisClient.Close(); err != nil {
			log.Err(err).Msg("closing redis failed")
		}
	}
	return redisstore.New(redisClient, prefix, sealer), profiles.NewRedisCache(redisClient, prefix), closeFn, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
