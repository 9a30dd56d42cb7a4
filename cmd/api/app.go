package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ceitcs/buildbook/internal/account"
	"github.com/ceitcs/buildbook/internal/auth"
	"github.com/ceitcs/buildbook/internal/cart"
	"github.com/ceitcs/buildbook/internal/catalog"
	"github.com/ceitcs/buildbook/internal/checkout"
	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/config"
	"github.com/ceitcs/buildbook/internal/coupon"
	"github.com/ceitcs/buildbook/internal/dashboard"
	"github.com/ceitcs/buildbook/internal/events"
	"github.com/ceitcs/buildbook/internal/health"
	"github.com/ceitcs/buildbook/internal/lock"
	"github.com/ceitcs/buildbook/internal/notify"
	"github.com/ceitcs/buildbook/internal/obs"
	"github.com/ceitcs/buildbook/internal/order"
	"github.com/ceitcs/buildbook/internal/ratelimit"
	"github.com/ceitcs/buildbook/internal/resilience"
	"github.com/ceitcs/buildbook/internal/security"
)

// deps are the optional infrastructure clients. Nil fields select the
// in-process implementations.
type deps struct {
	Redis *redis.Client
	Tasks notify.Enqueuer
	Mail  common.EmailSender
}

type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	authMW    auth.Middleware
	idem      common.Idem
	limiter   ratelimit.Limiter
	readiness []health.Checker

	catalog   *catalog.Handler
	carts     *cart.Handler
	checkout  *checkout.Handler
	orders    *order.Handler
	accounts  *account.Handler
	dashboard *dashboard.Handler

	checkoutSvc *checkout.Service
	events      *events.MemoryStore
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, d deps) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	tokens, err := auth.NewTokens(auth.TokensConfig{Secret: cfg.JWTSecret, AccessTokenTTL: cfg.AccessTokenTTL})
	if err != nil {
		return nil, fmt.Errorf("initialise tokens: %w", err)
	}
	var authenticator auth.Authenticator = auth.BearerAuthenticator{Tokens: tokens, AccessCookie: cfg.AccessCookieName}
	if cfg.AuthMockRole != "" {
		authenticator = auth.Chain{authenticator, auth.StaticAuthenticator{Principal: auth.MockPrincipal(cfg.AuthMockRole)}}
		logger.Warn().Str("role", cfg.AuthMockRole).Msg("mock authentication enabled")
	}
	a.authMW = auth.Middleware{Authenticator: authenticator, Logger: logger}

	var (
		cartStore cart.Store
		locker    lock.Runner
	)
	if d.Redis != nil {
		cartStore = cart.RedisStore{R: d.Redis}
		locker = lock.Locker{R: d.Redis, RetryBackoff: cfg.LockRetryBackoff}
		a.limiter = ratelimit.SlidingWindow{Client: d.Redis, Prefix: "ratelimit:"}
		a.idem = common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL}
		a.readiness = append(a.readiness, health.RedisChecker{Client: d.Redis})
	} else {
		cartStore = cart.NewMemoryStore()
		locker = lock.NewLocal()
		a.limiter = ratelimit.NewMemoryFixedWindow("ratelimit:")
	}

	mail := d.Mail
	if mail == nil {
		mail = common.LogEmailSender{Logger: logger.With().Str("component", "mail").Logger(), From: cfg.NotifyEmailFrom}
	}
	mail = newMailer(cfg, logger, mail)
	emailNotifier := notify.EmailNotifier{Mail: mail, Enabled: cfg.NotifyEmailEnabled, TopicToggles: cfg.NotifyEmailTopics}
	a.events = events.NewMemoryStore(0)
	bus := &events.Bus{Store: a.events}
	if d.Tasks != nil {
		bus.Notifiers = append(bus.Notifiers, notify.TaskNotifier{
			Client:   d.Tasks,
			Queue:    cfg.TaskQueue,
			MaxRetry: cfg.TaskMaxRetry,
			Topics:   events.DefaultTopics(),
		})
	} else {
		bus.Notifiers = append(bus.Notifiers, emailNotifier)
	}

	products, err := catalog.NewService(catalog.ServiceConfig{})
	if err != nil {
		return nil, fmt.Errorf("initialise catalog: %w", err)
	}
	a.catalog = catalog.NewHandler(catalog.HandlerConfig{Service: products})

	cartSvc := &cart.Service{
		Store:    cartStore,
		Products: products,
		Coupons:  coupon.Default(),
		Locker:   locker,
		TTL:      cfg.CartTTL,
		Discount: cart.DiscountPolicy{
			Recompute:     cfg.CouponRecompute,
			CapAtSubtotal: cfg.CouponCapDiscount,
		},
	}
	a.carts = &cart.Handler{Svc: cartSvc}

	orders := order.NewRepository()
	a.orders = &order.Handler{Repo: orders}

	a.checkoutSvc = checkout.NewService(checkout.Config{
		Carts: cartSvc,
		Submitter: checkout.OrderSubmitter{
			Delay:  cfg.CheckoutSubmitDelay,
			Orders: orders,
			Pricer: cartSvc,
			Events: bus,
			Logger: logger,
		},
		Locker:  locker,
		LockTTL: cfg.LockTTL,
		Logger:  logger,
	})
	a.checkout = &checkout.Handler{Svc: a.checkoutSvc}

	accountSvc := account.NewService(account.NewMemoryStore(), tokens, bus, logger)
	if err := accountSvc.SeedDemoUsers(ctx, cfg.DemoUserPassword); err != nil {
		return nil, fmt.Errorf("seed demo users: %w", err)
	}
	a.accounts = &account.Handler{Service: accountSvc}

	dash, err := dashboard.NewService(orders)
	if err != nil {
		return nil, fmt.Errorf("initialise dashboard: %w", err)
	}
	a.dashboard = &dashboard.Handler{Svc: dash}

	return a, nil
}

type routerOptions struct {
	Metrics *obs.HTTPMetrics
	Tracing bool
	Pprof   http.Handler
}

func (a *app) routes(opts routerOptions) http.Handler {
	cfg := a.cfg
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(a.authMW.Authenticate)
	if opts.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if opts.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: opts.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: a.logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Location", "X-Request-Id", "X-Total-Count", "Retry-After"},
		AllowCredentials: len(cfg.CORSAllowedOrigins) > 0,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.EnableHSTS}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	if opts.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	if opts.Pprof != nil {
		r.Mount("/debug/pprof", opts.Pprof)
	}

	healthHandler := health.Handler{Checkers: a.readiness}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	signedIn := a.authMW.RequireRoles(common.RoleClient, common.RoleAdmin)
	admins := a.authMW.RequireRoles(common.RoleAdmin)
	couponLimit := a.rateLimit("coupon", cfg.RateLimitCouponPerMin)
	loginLimit := a.rateLimit("login", cfg.RateLimitLoginPerMin)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.CSRF{SessionCookie: cfg.AccessCookieName}.Middleware)

		v.Get("/categories", a.catalog.Categories)
		v.Get("/price-ranges", a.catalog.PriceRanges)
		v.Get("/products", a.catalog.Products)
		v.Get("/products/{slug}", a.catalog.ProductDetail)
		v.Get("/products/{slug}/related", a.catalog.Related)

		v.Route("/auth", func(ar chi.Router) {
			ar.With(loginLimit).Post("/register", a.accounts.Register)
			ar.With(loginLimit).Post("/login", a.accounts.Login)
			ar.Post("/password-strength", a.accounts.PasswordStrength)
			ar.With(a.authMW.RequireRoles()).Get("/me", a.accounts.Me)
		})

		v.Route("/carts", func(c chi.Router) {
			c.Use(security.NoStore)
			c.Post("/", a.carts.Create)
			c.Get("/{id}", a.carts.Get)
			c.Post("/{id}/items", a.carts.AddItem)
			c.Delete("/{id}/items", a.carts.Clear)
			c.Patch("/{id}/items/{itemId}", a.carts.UpdateItem)
			c.Delete("/{id}/items/{itemId}", a.carts.RemoveItem)
			c.With(couponLimit).Post("/{id}/coupon", a.carts.ApplyCoupon)
			c.Delete("/{id}/coupon", a.carts.RemoveCoupon)
		})

		v.Route("/checkout", func(c chi.Router) {
			c.Use(signedIn, security.NoStore)
			c.Post("/", a.checkout.Start)
			c.Get("/{id}", a.checkout.Get)
			c.Patch("/{id}/form", a.checkout.UpdateForm)
			c.Post("/{id}/next", a.checkout.Next)
			c.Post("/{id}/back", a.checkout.Back)
			c.With(a.idem.Middleware).Post("/{id}/submit", a.checkout.Submit)
		})

		v.Route("/orders", func(o chi.Router) {
			o.Use(signedIn, security.NoStore)
			o.Get("/", a.orders.List)
			o.Get("/{id}", a.orders.Get)
		})

		v.Route("/dashboard", func(d chi.Router) {
			d.Use(signedIn, security.NoStore)
			d.Get("/", a.dashboard.Overview)
			d.Get("/profile", a.dashboard.Profile)
			d.Get("/purchases", a.dashboard.Purchases)
			d.Get("/downloads", a.dashboard.Downloads)
			d.Get("/licenses", a.dashboard.Licenses)
			d.Get("/notifications", a.dashboard.Notifications)
		})

		v.Route("/admin", func(ad chi.Router) {
			ad.Use(admins, security.NoStore)
			ad.Get("/stats", a.dashboard.Stats)
			ad.Get("/products", a.dashboard.Products)
			ad.Get("/orders", a.dashboard.RecentOrders)
		})
	})

	return r
}

func (a *app) rateLimit(scope string, perMinute int) func(http.Handler) http.Handler {
	h := ratelimit.Handler{
		Limiter: a.limiter,
		Config:  ratelimit.Config{Key: ratelimit.ByClient(scope), Window: time.Minute, Max: perMinute},
		OnError: func(err error) {
			a.logger.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
		},
	}
	if perMinute <= 0 {
		h.Config.Key = nil
	}
	return h.Middleware
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newMailer(cfg *config.Config, logger zerolog.Logger, sender common.EmailSender) *resilience.Mailer {
	return &resilience.Mailer{
		Sender:      sender,
		Breaker:     resilience.NewBreaker("mail", 5, 0.5, cfg.MailBreakerOpenFor).WithLogger(logger),
		MaxAttempts: cfg.MailMaxAttempts,
		BaseBackoff: cfg.MailRetryBase,
		Jitter:      0.2,
	}
}
