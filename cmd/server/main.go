package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platekit/platekit/modules/restaurant"
	"github.com/platekit/platekit/modules/tenantadmin"
	"github.com/platekit/platekit/pkg/config"
	"github.com/platekit/platekit/pkg/httpserver"
	"github.com/platekit/platekit/pkg/logger"
	"github.com/platekit/platekit/pkg/pg"
	redisconn "github.com/platekit/platekit/pkg/redis"
	"github.com/platekit/platekit/pkg/requestid"
	"github.com/platekit/platekit/pkg/tenant"
)

type appConfig struct {
	ServiceName string        `env:"SERVICE_NAME" envDefault:"platekit"`
	LogLevel    slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   logger.Format `env:"LOG_FORMAT" envDefault:"json"`
}

func main() {
	ctx := context.Background()

	var (
		appCfg    appConfig
		httpCfg   httpserver.Config
		pgCfg     pg.Config
		tenantCfg tenant.Config
		adminCfg  tenantadmin.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&tenantCfg)
	config.MustLoad(&adminCfg)

	log := logger.New(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithFormat(appCfg.LogFormat),
		logger.WithService(appCfg.ServiceName),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	store, err := newDescriptorStore(ctx, tenantCfg)
	if err != nil {
		log.ErrorContext(ctx, "failed to initialize descriptor store", logger.Error(err))
		os.Exit(1)
	}

	registryOpts := []tenant.RegistryOption{
		tenant.WithAliasPolicy(tenantCfg.Policy()),
		tenant.WithTemplateParams(tenantCfg.TemplateParams()),
		tenant.WithRegistryLogger(log),
	}
	if tenantCfg.AutoMigrate {
		registryOpts = append(registryOpts, tenant.WithMigrator(newMigrator(pgCfg, log)))
	}
	registry := tenant.NewRegistry(store, registryOpts...)

	if tenantCfg.SeedFile != "" {
		if err := registry.LoadSeed(ctx, tenantCfg.SeedFile); err != nil {
			log.ErrorContext(ctx, "failed to load tenant seed file", logger.Error(err))
			os.Exit(1)
		}
	}

	opener := func(ctx context.Context, d *tenant.Descriptor) (*pgxpool.Pool, error) {
		return pg.Connect(ctx, d.Params.DSN(), pgCfg)
	}
	pools := tenant.NewPools(registry, opener, tenant.WithPoolsLogger(log))
	defer pools.Close()

	resolve := tenant.NewCompositeResolver(
		tenant.NewHeaderResolver(tenantCfg.Header),
		tenant.NewClaimsResolver([]byte(tenantCfg.SigningKey), registry.Policy()),
	)

	admin := tenantadmin.NewHandler(registry, pools, adminCfg, log)
	resources := restaurant.NewHandler(log)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/health", httpserver.HealthCheckHandler(ctx, log))
	r.Mount("/api/tenants", admin.Router())

	r.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(registry, pools, resolve, tenant.WithMiddlewareLogger(log)))
		r.Mount("/api", resources.Router())
	})

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.ErrorContext(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// newDescriptorStore selects the registry backend: process-local memory by
// default, Redis when registrations must be shared across instances.
func newDescriptorStore(ctx context.Context, cfg tenant.Config) (tenant.DescriptorStore, error) {
	switch cfg.Store {
	case "redis":
		var redisCfg redisconn.Config
		config.MustLoad(&redisCfg)
		client, err := redisconn.Connect(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		return tenant.NewRedisStore(client), nil
	default:
		return tenant.NewMemoryStore(), nil
	}
}

// newMigrator initializes the schema of a freshly provisioned tenant
// database. It opens a short-lived pool of its own so migration traffic
// never competes with request-serving pools.
func newMigrator(pgCfg pg.Config, log *slog.Logger) tenant.Migrator {
	return tenant.MigratorFunc(func(ctx context.Context, d *tenant.Descriptor) error {
		pool, err := pg.Connect(ctx, d.Params.DSN(), pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		return pg.Migrate(ctx, pool, pgCfg, log)
	})
}
