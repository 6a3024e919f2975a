package tenant

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout for statically known tenants, typically the
// tenants that existed before dynamic provisioning was introduced.
type seedFile struct {
	Tenants []seedTenant `yaml:"tenants"`
}

type seedTenant struct {
	Alias  string     `yaml:"alias"`
	Params ConnParams `yaml:",inline"`
}

// LoadSeed registers every tenant listed in a YAML seed file. Entries go
// through the normal Register path, so validation and first-seen schema
// initialization apply.
func (r *Registry) LoadSeed(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tenant seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse tenant seed file: %w", err)
	}

	for _, t := range seed.Tenants {
		if _, err := r.Register(ctx, t.Alias, t.Params); err != nil {
			return fmt.Errorf("seed tenant %q: %w", t.Alias, err)
		}
	}
	return nil
}
