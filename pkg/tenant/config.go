package tenant

// Config carries the environment-driven settings for the tenant routing
// layer: how requests indicate their tenant, how aliases are derived and
// which parameters auto-provisioned databases are synthesized from.
type Config struct {
	Header      string `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"`      // Header is the HTTP header carrying the tenant indicator.
	AliasPrefix string `env:"TENANT_ALIAS_PREFIX" envDefault:"client_"`    // AliasPrefix is prepended to aliases derived from client identifiers.
	SeedFile    string `env:"TENANT_SEED_FILE"`                            // SeedFile is an optional YAML file with statically registered tenants.
	AutoMigrate bool   `env:"TENANT_AUTO_MIGRATE" envDefault:"false"`      // AutoMigrate runs schema migrations on newly provisioned tenant databases.
	SigningKey  string `env:"TENANT_JWT_SIGNING_KEY"`                      // SigningKey verifies bearer tokens for the claims resolution path.
	Store       string `env:"TENANT_STORE" envDefault:"memory"`            // Store selects the descriptor store backend: "memory" or "redis".

	DBHost     string `env:"TENANT_DB_HOST" envDefault:"localhost"` // DBHost is the host auto-provisioned databases live on.
	DBPort     int    `env:"TENANT_DB_PORT" envDefault:"5432"`      // DBPort is the port auto-provisioned databases listen on.
	DBUser     string `env:"TENANT_DB_USER"`                        // DBUser is the user for auto-provisioned databases.
	DBPassword string `env:"TENANT_DB_PASSWORD"`                    // DBPassword is the password for auto-provisioned databases.
	DBSSLMode  string `env:"TENANT_DB_SSLMODE" envDefault:"disable"` // DBSSLMode is the sslmode for auto-provisioned databases.
}

// TemplateParams returns the connection-parameter template used to
// synthesize descriptors for auto-provisioned tenants. The database name is
// filled in per alias by the registry.
func (c Config) TemplateParams() ConnParams {
	return ConnParams{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		SSLMode:  c.DBSSLMode,
	}
}

// Policy returns the alias policy configured by the environment.
func (c Config) Policy() AliasPolicy {
	return AliasPolicy{Prefix: c.AliasPrefix}
}
