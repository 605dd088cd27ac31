package main

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"

	"github.com/edumarket/edumarket/analytics"
	"github.com/edumarket/edumarket/auth"
	"github.com/edumarket/edumarket/catalog"
	"github.com/edumarket/edumarket/chat"
	"github.com/edumarket/edumarket/config"
	"github.com/edumarket/edumarket/mentorship"
	"github.com/edumarket/edumarket/metrics"
	"github.com/edumarket/edumarket/middleware/jwtware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := auth.DefaultLogger()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	if err := runMigrations(ctx, db); err != nil {
		log.Fatal(err)
	}

	collector := metrics.NewCollector()

	users := auth.NewUsersRepository(db)
	repo := auth.NewRepositoryManager(db)

	audit := auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		logger.Info("activity %s user=%s", event.EventType, event.UserID)
		return nil
	})
	sink := auth.MultiSink(collector.Sink(), audit)

	provider := auth.NewUserProvider(users)
	registry := auth.NewSessionRegistry(users)
	auther := auth.NewAuthenticator(provider, users, registry, cfg).
		WithActivitySink(sink)

	tokens := auth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		logger,
	)
	validator := auth.NewSessionValidator(tokens, users)

	courses := catalog.NewCoursesRepository(db)
	messages := chat.NewMessagesRepository(db)
	requests := mentorship.NewStudentRequestsRepository(db)

	courseService := catalog.NewService(courses, users)
	chatService := chat.NewService(messages, users)
	requestService := mentorship.NewService(requests, users,
		mentorship.WithServiceActivitySink(sink))
	analyticsService := analytics.NewService(courses, requests)

	app := fiber.New(fiber.Config{
		AppName: "edumarket",
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	protect := sessionGuard(validator, collector, cfg, "")
	tutorOnly := sessionGuard(validator, collector, cfg, auth.RoleTutor)

	auth.RegisterAuthRoutes(app, auth.NewAuthController(
		auth.WithRepositoryManager(repo),
		auth.WithAuthenticator(auther),
		auth.WithSessionValidator(validator),
		auth.WithControllerActivitySink(sink),
		auth.WithHashidUserIDs(cfg.HashidUserIDs),
	), protect)

	catalog.RegisterRoutes(app, catalog.NewController(
		catalog.WithService(courseService),
	), protect, tutorOnly)

	chat.RegisterRoutes(app, chat.NewController(
		chat.WithService(chatService),
	), protect)

	mentorship.RegisterRoutes(app, mentorship.NewController(
		mentorship.WithService(requestService),
	), protect)

	analytics.RegisterRoutes(app, analytics.NewController(
		analytics.WithService(analyticsService),
	), protect)

	app.Get("/metrics", collector.Handler())

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatal(err)
		}
	}()

	waitExitSignal()

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown: %v", err)
	}
	if err := db.Close(); err != nil {
		logger.Error("closing database: %v", err)
	}
}

// sessionGuard builds the token middleware with validation metrics. An
// empty role means any authenticated user passes.
func sessionGuard(v *auth.SessionValidator, collector *metrics.Collector, cfg auth.Config, role auth.UserRole) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SessionValidator: collector.InstrumentValidator(auth.MiddlewareValidator(v)),
		TokenLookup:      cfg.GetTokenLookup(),
		AuthScheme:       cfg.GetAuthScheme(),
		ContextKey:       cfg.GetContextKey(),
		RequiredRole:     string(role),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return auth.RespondWithError(c, err)
		},
	})
}

// runMigrations applies every package's embedded migrations in order.
func runMigrations(ctx context.Context, db *bun.DB) error {
	migrations := migrate.NewMigrations()

	sources := []embed.FS{
		auth.GetMigrationsFS(),
		catalog.GetMigrationsFS(),
		chat.GetMigrationsFS(),
		mentorship.GetMigrationsFS(),
	}

	for _, source := range sources {
		fsys, err := fs.Sub(source, "data/sql/migrations")
		if err != nil {
			return err
		}
		if err := migrations.Discover(fsys); err != nil {
			return err
		}
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	if _, err := migrator.Migrate(ctx); err != nil {
		return err
	}

	return nil
}

func waitExitSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
