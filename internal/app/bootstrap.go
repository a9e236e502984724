package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pilab-dev/shadow-interview/cache"
	boltcache "github.com/pilab-dev/shadow-interview/cache/bolt"
	rediscache "github.com/pilab-dev/shadow-interview/cache/redis"
	"github.com/pilab-dev/shadow-interview/config"
	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/pilab-dev/shadow-interview/identity/local"
	"github.com/pilab-dev/shadow-interview/internal/auth"
	"github.com/pilab-dev/shadow-interview/internal/federation"
	"github.com/pilab-dev/shadow-interview/internal/metrics"
	"github.com/pilab-dev/shadow-interview/log"
	"github.com/pilab-dev/shadow-interview/memory"
	"github.com/pilab-dev/shadow-interview/mongodb"
	"github.com/pilab-dev/shadow-interview/services"
	"github.com/pilab-dev/shadow-interview/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const keyPrefix = "shadow-interview"

// App is the composed client.
type App struct {
	Config   *config.ClientConfig
	Gateway  *services.AuthGateway
	Observer *services.SessionObserver
	Redirect *services.RedirectHandler
	Host     *Host

	provider *local.Provider
	bolt     *boltcache.Store
	closers  []func(context.Context)
}

type options struct {
	launchURL   string
	openBrowser func(string) error
	registerer  prometheus.Registerer
	hashCost    int
}

// Option customizes Bootstrap.
type Option func(*options)

// WithLaunchURL passes the URL the process was started with. A provider
// callback URL here lets redirect completion finish a pending sign-in.
func WithLaunchURL(url string) Option {
	return func(o *options) { o.launchURL = url }
}

// WithBrowserOpener replaces the system browser for interactive sign-in.
func WithBrowserOpener(open func(string) error) Option {
	return func(o *options) { o.openBrowser = open }
}

// WithRegisterer registers metrics with reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithHashCost sets the bcrypt cost for new passwords.
func WithHashCost(cost int) Option {
	return func(o *options) { o.hashCost = cost }
}

// Bootstrap wires stores, the identity provider, the gateway and the host
// from cfg. The host is not started.
func Bootstrap(ctx context.Context, cfg *config.ClientConfig, logger log.Logger, opts ...Option) (_ *App, err error) {
	o := options{registerer: prometheus.DefaultRegisterer, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = log.Nop()
	}

	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
		if err != nil {
			return nil, fmt.Errorf("init tracer provider: %w", err)
		}
		a.closers = append(a.closers, func(ctx context.Context) { tracing.Shutdown(ctx, tp) })
		logger.Debug(ctx, "TracerProvider initialized.")
	}
	if cfg.MetricsEnabled {
		metrics.InitCustomMetrics(o.registerer)
	}

	profiles, accounts, err := a.openProfileStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sessions, pending, err := a.openSessionStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.AccountsOutliveProcess() && cfg.SessionBackend != config.BackendMemory {
		logger.Warn(ctx, "Accounts are kept in memory; a session restored after restart is dropped", log.Fields{
			"store_backend":   cfg.StoreBackend,
			"session_backend": cfg.SessionBackend,
		})
	}

	var google *federation.GoogleProvider
	if cfg.GoogleConfigured() {
		google, err = federation.NewGoogleProvider(domain.IdPConfig{
			Name:         domain.ProviderGoogle,
			Type:         domain.IdPTypeOIDC,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
		})
		if err != nil {
			return nil, fmt.Errorf("configure google provider: %w", err)
		}
	}

	idpCfg := local.Config{
		Accounts:   accounts,
		Sessions:   sessions,
		Hasher:     auth.NewBcryptPasswordHasher(o.hashCost),
		SigningKey: cfg.SessionSigningKey,
		SessionTTL: time.Duration(cfg.SessionTTLHour) * time.Hour,
		Navigation: domain.NewNavigationContext(o.launchURL),
	}
	if google != nil && cfg.GoogleRedirectURL != "" {
		idpCfg.Redirect = federation.NewRedirectFlow(google, pending, cfg.GoogleRedirectURL, 0)
	}

	a.provider, err = local.New(ctx, idpCfg)
	if err != nil {
		return nil, fmt.Errorf("start identity provider: %w", err)
	}

	var federated domain.FederatedSignIn = services.NewUnsupportedSignIn(domain.ProviderGoogle)
	if google != nil && cfg.Runtime == config.RuntimeBrowser {
		var flowOpts []federation.LoopbackOption
		if o.openBrowser != nil {
			flowOpts = append(flowOpts, federation.WithBrowserOpener(o.openBrowser))
		}
		federated = services.NewPopupSignIn(federation.NewLoopbackFlow(google, cfg.OAuthCallbackPort, flowOpts...), a.provider)
	}

	policy, err := ParseReroutePolicy(cfg.ReroutePolicy)
	if err != nil {
		return nil, err
	}

	profileService := services.NewProfileService(profiles)
	a.Gateway = services.NewAuthGateway(a.provider, profileService, federated, a.provider)
	a.Observer = services.NewSessionObserver(a.provider)
	a.Redirect = services.NewRedirectHandler(a.provider, profileService)
	a.Host = NewHost(a.Redirect, a.Observer, policy, logger)

	logger.Info(ctx, "Client composed", log.Fields{
		"runtime":         cfg.Runtime,
		"store_backend":   cfg.StoreBackend,
		"session_backend": cfg.SessionBackend,
		"google":          google != nil,
		"reroute_policy":  policy.String(),
	})
	return a, nil
}

// openBolt opens the BOLT_PATH file once for every backend that uses it.
func (a *App) openBolt(cfg *config.ClientConfig) (*boltcache.Store, error) {
	if a.bolt != nil {
		return a.bolt, nil
	}
	db, err := boltcache.Open(cfg.BoltPath)
	if err != nil {
		return nil, err
	}
	a.bolt = db
	a.closers = append(a.closers, func(context.Context) { _ = db.Close() })
	return db, nil
}

func (a *App) openProfileStores(ctx context.Context, cfg *config.ClientConfig) (domain.ProfileRepository, domain.AccountRepository, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memory.NewProfileRepository(), memory.NewAccountRepository(), nil
	case config.BackendBolt:
		db, err := a.openBolt(cfg)
		if err != nil {
			return nil, nil, err
		}
		return boltcache.NewProfileRepository(db), boltcache.NewAccountRepository(db), nil
	}

	db, err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, mongodb.CloseMongoDB)

	accounts, err := mongodb.NewAccountRepository(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("init account repository: %w", err)
	}
	return mongodb.NewProfileRepository(db), accounts, nil
}

func (a *App) openSessionStores(ctx context.Context, cfg *config.ClientConfig) (domain.SessionPersistence, domain.PendingAuthStore, error) {
	switch cfg.SessionBackend {
	case config.BackendRedis:
		return a.openRedis(ctx, cfg)
	case config.BackendBolt:
		db, err := a.openBolt(cfg)
		if err != nil {
			return nil, nil, err
		}
		return boltcache.NewSessionStore(db), boltcache.NewPendingAuthStore(db), nil
	}

	sessions := cache.NewMemorySessionStore()
	pending := cache.NewMemoryPendingAuthStore()
	a.closers = append(a.closers, func(context.Context) {
		sessions.Close()
		pending.Close()
	})
	return sessions, pending, nil
}

func (a *App) openRedis(ctx context.Context, cfg *config.ClientConfig) (domain.SessionPersistence, domain.PendingAuthStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, func(context.Context) { _ = client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return rediscache.NewSessionStore(client, keyPrefix), rediscache.NewPendingAuthStore(client, keyPrefix), nil
}

// Close stops the host and the provider and releases the stores. It is safe
// to call more than once.
func (a *App) Close(ctx context.Context) {
	if a.Host != nil {
		a.Host.Close()
	}
	if a.provider != nil {
		a.provider.Close()
	}
	closers := a.closers
	a.closers = nil
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i](ctx)
	}
}
