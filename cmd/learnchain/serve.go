package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/learnchain/adapters/backend"
	"github.com/layer-3/learnchain/adapters/events"
	"github.com/layer-3/learnchain/adapters/gateway"
	"github.com/layer-3/learnchain/adapters/store"
	"github.com/layer-3/learnchain/adapters/tokenizer"
	"github.com/layer-3/learnchain/adapters/wallet"
	"github.com/layer-3/learnchain/ports"
	"github.com/layer-3/learnchain/service"
	transport "github.com/layer-3/learnchain/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type ServeCmd struct {
	// Server configuration
	Listen       string        `help:"HTTP server listen address" default:":9000" env:"LEARNCHAIN_LISTEN"`
	CORSOrigins  []string      `help:"allowed CORS origins for browser front ends" env:"LEARNCHAIN_CORS_ORIGINS"`
	SecureCookie bool          `help:"mark the session cookie Secure (HTTPS only)" default:"false" env:"LEARNCHAIN_SECURE_COOKIE"`
	CookieKey    string        `help:"PEM file with the P-256 key signing session cookies; a random key is used when empty" env:"LEARNCHAIN_COOKIE_KEY"`
	SessionTTL   time.Duration `help:"session lifetime" default:"24h" env:"LEARNCHAIN_SESSION_TTL"`

	// Course backend
	BackendURL     string        `help:"course backend base URL" default:"https://learnchain-backend.onrender.com" env:"LEARNCHAIN_BACKEND_URL"`
	BackendTimeout time.Duration `help:"timeout of a single backend call" default:"30s" env:"LEARNCHAIN_BACKEND_TIMEOUT"`
	MaxTries       uint          `help:"attempts for idempotent backend reads" default:"1" env:"LEARNCHAIN_MAX_TRIES"`
	CacheCatalog   bool          `help:"cache the public course listing" default:"true" negatable:"" env:"LEARNCHAIN_CACHE_CATALOG"`
	Gateway        string        `help:"content gateway host or base URL" default:"ipfs.io" env:"LEARNCHAIN_GATEWAY"`

	// Session store and events
	RedisURL string `help:"Redis URL for sessions and events; in-memory when empty" default:"" env:"REDIS_URL"`

	// Server side wallet, at most one
	WalletKey        string `help:"hex private key of the server wallet" env:"LEARNCHAIN_WALLET_KEY" xor:"wallet"`
	WalletKeystore   string `help:"keystore directory of the server wallet" env:"LEARNCHAIN_WALLET_KEYSTORE" xor:"wallet"`
	WalletPassphrase string `help:"passphrase of the keystore wallet" env:"LEARNCHAIN_WALLET_PASSPHRASE"`
	WalletRPC        string `help:"JSON-RPC endpoint of an external wallet" env:"LEARNCHAIN_WALLET_RPC" xor:"wallet"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	logger := setupLogger(globals)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	signKey, err := c.signingKey()
	if err != nil {
		return err
	}

	api, err := backend.New(backend.Config{
		BaseURL:      c.BackendURL,
		HTTPClient:   &http.Client{Timeout: c.BackendTimeout},
		CacheCatalog: c.CacheCatalog,
		MaxTries:     c.MaxTries,
	})
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	resolver, err := gateway.New(c.Gateway)
	if err != nil {
		return fmt.Errorf("failed to create content gateway: %w", err)
	}

	sessionStore, publisher, closeInfra, err := c.infrastructure(ctx, globals.Debug)
	if err != nil {
		return err
	}
	defer closeInfra()

	signer, closeWallet, err := c.wallet(ctx)
	if err != nil {
		return err
	}
	defer closeWallet()

	eventPub := events.NewWatermillPublisher(publisher)
	sessions := service.NewSessionService(api, sessionStore, tokenizer.NewJWTTokenizer(signKey), eventPub, c.SessionTTL)
	marketplace := service.NewMarketplaceService(api, resolver, eventPub)

	if !globals.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.SetupRouter(sessions, marketplace, transport.Config{
		Wallet:       signer,
		Logger:       logger,
		CORSOrigins:  c.CORSOrigins,
		SecureCookie: c.SecureCookie,
	})

	srv := &http.Server{
		Addr:              c.Listen,
		Handler:           router,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024,
	}

	log.Info().
		Str("version", globals.Version).
		Str("addr", c.Listen).
		Str("backend", c.BackendURL).
		Bool("redis", c.RedisURL != "").
		Bool("wallet", signer != nil).
		Msg("Starting session gateway")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (c *ServeCmd) signingKey() (*ecdsa.PrivateKey, error) {
	if c.CookieKey != "" {
		key, err := tokenizer.LoadSigningKey(c.CookieKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load cookie key: %w", err)
		}
		return key, nil
	}

	log.Warn().Msg("No cookie key configured, sessions will not survive a restart")
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate cookie key: %w", err)
	}
	return key, nil
}

// infrastructure picks Redis for sessions and events when configured and
// in-process implementations otherwise.
func (c *ServeCmd) infrastructure(ctx context.Context, debug bool) (ports.SessionStore, message.Publisher, func(), error) {
	wmLogger := watermill.NewStdLogger(debug, false)

	if c.RedisURL == "" {
		log.Info().Msg("Using in-memory session store")
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		return store.NewMemoryStore(), pubSub, func() { _ = pubSub.Close() }, nil
	}

	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, nil, fmt.Errorf("failed to reach Redis: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		wmLogger,
	)
	if err != nil {
		_ = redisClient.Close()
		return nil, nil, nil, fmt.Errorf("failed to create Redis publisher: %w", err)
	}

	log.Info().Str("addr", opts.Addr).Msg("Using Redis session store")
	closeFn := func() {
		_ = publisher.Close()
		_ = redisClient.Close()
	}
	return store.NewRedisStore(redisClient), publisher, closeFn, nil
}

func (c *ServeCmd) wallet(ctx context.Context) (ports.Wallet, func(), error) {
	noop := func() {}

	switch {
	case c.WalletKey != "":
		w, err := wallet.NewKeyWalletFromHex(c.WalletKey)
		if err != nil {
			return nil, noop, err
		}
		log.Info().Str("address", w.Address()).Msg("Using key wallet")
		return w, noop, nil
	case c.WalletKeystore != "":
		log.Info().Str("dir", c.WalletKeystore).Msg("Using keystore wallet")
		return wallet.NewKeystoreWallet(c.WalletKeystore, c.WalletPassphrase), noop, nil
	case c.WalletRPC != "":
		w, err := wallet.DialRPCWallet(ctx, c.WalletRPC)
		if err != nil {
			return nil, noop, err
		}
		log.Info().Str("url", c.WalletRPC).Msg("Using RPC wallet")
		return w, w.Close, nil
	}

	log.Info().Msg("No server wallet, purchases need a browser signature")
	return nil, noop, nil
}

func setupLogger(globals *Globals) zerolog.Logger {
	level, err := zerolog.ParseLevel(globals.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if globals.Debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if globals.Debug {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Caller().Logger()
	}
	return logger
}
