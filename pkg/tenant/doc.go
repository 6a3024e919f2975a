// Package tenant implements the tenant resolution and database-routing
// layer of a database-per-tenant backend: every tenant owns a physical
// database and each request is routed to the right one based on a header
// or token claim.
//
// The package has four cooperating parts:
//
//   - Registry maps aliases to connection parameters, supports dynamic
//     registration at runtime and auto-provisions unknown tenants whose
//     alias is derivable from a client identifier. Schema initialization
//     for a new tenant database runs at most once per alias.
//
//   - Pools owns the alias-to-handle cache of pgx connection pools.
//     Handles are opened lazily; a concurrent race for the same unseen
//     alias results in exactly one physical open. Evicted handles are
//     recreated transparently on next use.
//
//   - The context accessors bind the current tenant to a request-scoped
//     context.Context. Concurrent requests can never observe each other's
//     tenant, and the binding disappears with the request on every exit
//     path.
//
//   - Middleware is the request boundary adapter tying it together:
//     resolve indicator, ensure registration, warm handle, bind scope,
//     run handler. Requests without a usable indicator fail closed; there
//     is no default tenant.
//
// Basic wiring:
//
//	registry := tenant.NewRegistry(tenant.NewMemoryStore(),
//		tenant.WithTemplateParams(cfg.TemplateParams()),
//		tenant.WithMigrator(migrator),
//	)
//	pools := tenant.NewPools(registry, opener)
//	resolve := tenant.NewCompositeResolver(
//		tenant.NewHeaderResolver(cfg.Header),
//		tenant.NewClaimsResolver([]byte(cfg.SigningKey), registry.Policy()),
//	)
//	r.Use(tenant.Middleware(registry, pools, resolve))
//
// Handlers reach the current tenant's database through tenant.Conn:
//
//	db, err := tenant.Conn(r.Context())
//	if err != nil {
//		// programming error: handler mounted outside the tenant scope
//	}
package tenant
