package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/hr-portal-backend/internal/config"
	"github.com/iliyamo/hr-portal-backend/internal/database"
	"github.com/iliyamo/hr-portal-backend/internal/handler"
	"github.com/iliyamo/hr-portal-backend/internal/logging"
	"github.com/iliyamo/hr-portal-backend/internal/metrics"
	"github.com/iliyamo/hr-portal-backend/internal/middleware"
	"github.com/iliyamo/hr-portal-backend/internal/queue"
	"github.com/iliyamo/hr-portal-backend/internal/repository"
	"github.com/iliyamo/hr-portal-backend/internal/repository/memstore"
	"github.com/iliyamo/hr-portal-backend/internal/router"
	"github.com/iliyamo/hr-portal-backend/internal/service"
)

// stores bundles the backends for one run of the process.
type stores struct {
	primary    service.UserStore
	secondary  service.UserStore
	tickets    service.TicketStore
	attendance service.AttendanceStore
	docs       service.PortalDocStore
	directory  service.Directory

	critical map[string]handler.Check
	optional map[string]handler.Check
	closers  []func(context.Context)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	if cfg.JWTSecretDefaulted {
		log.Warn("JWT_SECRET not set, using the development secret")
	}
	loc, _ := time.LoadLocation(cfg.AttendanceTZ) // validated by config.Load

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, c := range st.closers {
			c(closeCtx)
		}
	}()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and response cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
		st.optional["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	m := metrics.New("hr_portal")

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.AMQP.Enabled {
		pub := service.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, log)
		defer pub.Close()
		events = pub
	}
	if cfg.AMQP.Enabled && cfg.AMQP.ConsumerEnabled {
		consumer := &queue.Consumer{URL: cfg.AMQP.URL, Queue: cfg.AMQP.Queue, LogDir: cfg.AMQP.LogDir, Log: log.Named("consumer")}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("activity consumer stopped", zap.Error(err))
			}
		}()
	}

	// services
	sharedAuth := service.NewAuthService(st.primary, st.directory, events, service.AuthOptions{
		Secret:       cfg.JWTSecret,
		TTL:          cfg.TokenTTL,
		BcryptCost:   cfg.BcryptCost,
		RequirePhone: true,
	}, log.Named("auth"))
	trackerAuth := service.NewAuthService(st.secondary, nil, events, service.AuthOptions{
		Secret:     cfg.JWTSecret,
		TTL:        cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
		UserIDOnly: true,
	}, log.Named("query_tracker_auth"))

	attendance := service.NewAttendanceService(st.attendance, events, loc, log.Named("attendance"))
	attendance.OnCheckIn = m.RecordCheckIn
	attendance.OnCheckOut = m.RecordCheckOut

	tickets := service.NewTicketService(st.tickets, st.secondary, events, log.Named("tickets"))
	adminUsers := service.NewAdminUsers(st.primary, cfg.BcryptCost, log.Named("admin_users"))
	portals := service.NewPortals(st.docs, st.directory, log.Named("portals"))

	primaryResolver := service.NewPrimaryResolver(log.Named("resolver"), st.primary)
	primaryResolver.Observe = m.ObserveResolution
	trackerResolver := service.NewQueryTrackerResolver(log.Named("resolver"), st.primary, st.secondary)
	trackerResolver.Observe = m.ObserveResolution

	// http
	handler.RequestTimeout = cfg.RequestTimeout

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(!cfg.IsProduction(), log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestLogger(log.Named("http")))
	e.Use(m.Middleware())

	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(sharedAuth),
		AdminUsers:   handler.NewAdminUsersHandler(adminUsers),
		Employee:     handler.NewEmployeeHandler(attendance, portals, nil),
		QueryTracker: handler.NewQueryTrackerHandler(tickets, trackerAuth),
		Portals:      handler.NewPortalsHandler(portals),
		Health:       &handler.HealthHandler{Critical: st.critical, Optional: st.optional},
		Metrics:      m.Handler(),
	}, router.Guards{
		SharedAuth:       middleware.Authenticate(cfg.JWTSecret, primaryResolver, nil),
		QueryTrackerAuth: middleware.Authenticate(cfg.JWTSecret, trackerResolver, nil),
		RateLimit:        middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.Named("ratelimit")),
		Cache:            middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log.Named("cache")),
	})

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	st := &stores{critical: map[string]handler.Check{}, optional: map[string]handler.Check{}}

	if cfg.StoreDriver == "memory" {
		log.Warn("using the in-memory store, data is lost on restart")
		st.primary = memstore.NewUsers()
		st.secondary = memstore.NewUsers()
		st.tickets = memstore.NewTickets()
		st.attendance = memstore.NewAttendance()
		st.docs = memstore.NewPortalDocs()
		st.directory = memstore.NewDirectory()
		return st, nil
	}

	pool, err := database.OpenMongo(ctx, cfg.Mongo, log.Named("mongo"))
	if err != nil {
		return nil, err
	}
	st.closers = append(st.closers, func(ctx context.Context) { _ = pool.Close(ctx) })
	st.critical["mongo"] = pool.Ping

	loginDB := pool.Database(cfg.Mongo.LoginDB)
	trackerDB := pool.Database(cfg.Mongo.QueryTrackerDB)
	employeeDB := pool.Database(cfg.Mongo.EmployeeDB)

	primary := repository.NewUserRepo(loginDB, cfg.Mongo.UsersCollection)
	secondary := repository.NewUserRepo(trackerDB, "users")
	tickets := repository.NewTicketRepo(trackerDB)
	attendance := repository.NewAttendanceRepo(employeeDB)

	idxCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	for name, ensure := range map[string]func(context.Context) error{
		"primary_users":   primary.EnsureIndexes,
		"secondary_users": secondary.EnsureIndexes,
		"tickets":         tickets.EnsureIndexes,
		"attendance":      attendance.EnsureIndexes,
	} {
		if err := ensure(idxCtx); err != nil {
			log.Warn("ensure indexes failed", zap.String("collection", name), zap.Error(err))
		}
	}

	st.primary = primary
	st.secondary = secondary
	st.tickets = tickets
	st.attendance = attendance
	st.docs = repository.NewPortalDocRepo(employeeDB)

	if cfg.MySQL.Enabled {
		db, err := database.OpenMySQL(ctx, cfg.MySQL)
		if err != nil {
			log.Warn("mysql directory unavailable, HRMS employee list disabled", zap.Error(err))
			return st, nil
		}
		if err := database.EnsureDirectorySchema(ctx, db); err != nil {
			log.Warn("mysql directory schema", zap.Error(err))
		}
		st.directory = repository.NewDirectoryRepo(db)
		st.optional["mysql"] = db.PingContext
		st.closers = append(st.closers, func(context.Context) { _ = db.Close() })
	}
	return st, nil
}
