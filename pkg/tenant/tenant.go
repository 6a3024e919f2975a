package tenant

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxAliasLength keeps aliases usable as database names and DNS labels.
	MaxAliasLength = 63
	MinAliasLength = 1
)

// aliasPattern restricts aliases to safe database/URL identifiers:
// alphanumeric start, then alphanumerics, underscores and hyphens.
var aliasPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ConnParams holds the physical connection parameters for one tenant database.
type ConnParams struct {
	Host     string `json:"host" yaml:"db_host"`
	Port     int    `json:"port" yaml:"db_port"`
	User     string `json:"user" yaml:"db_user"`
	Password string `json:"-" yaml:"db_password"`
	DBName   string `json:"db_name" yaml:"db_name"`
	SSLMode  string `json:"ssl_mode,omitempty" yaml:"ssl_mode"`
}

// Validate reports whether the parameters are complete enough to open
// a connection. Host and port fall back to defaults elsewhere; database
// name, user and password have no sane defaults.
func (p ConnParams) Validate() error {
	var missing []string
	if p.DBName == "" {
		missing = append(missing, "db_name")
	}
	if p.User == "" {
		missing = append(missing, "db_user")
	}
	if p.Password == "" {
		missing = append(missing, "db_password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// DSN renders the parameters as a postgres connection URL.
func (p ConnParams) DSN() string {
	host := p.Host
	if host == "" {
		host = "localhost"
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + p.DBName,
	}
	if p.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", p.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Descriptor is an immutable record mapping one alias to its database.
type Descriptor struct {
	Alias     string     `json:"alias"`
	Params    ConnParams `json:"params"`
	CreatedAt time.Time  `json:"created_at"`
}

// AliasPolicy is the canonicalization rule turning client identifiers
// into aliases. The rule is deterministic: the same input always yields
// the same alias. The prefix convention is configurable because the
// upstream identity provider owns the identifier format.
type AliasPolicy struct {
	// Prefix is prepended to derived aliases (e.g. "client_").
	Prefix string
}

// DefaultAliasPolicy uses the client_<id> convention.
func DefaultAliasPolicy() AliasPolicy {
	return AliasPolicy{Prefix: "client_"}
}

// Canonicalize normalizes an externally supplied identifier into an alias.
// Returns ErrInvalidIdentifier when the result is not a safe alias.
func (p AliasPolicy) Canonicalize(identifier string) (string, error) {
	alias := strings.ToLower(strings.TrimSpace(identifier))
	if n := len(alias); n < MinAliasLength || n > MaxAliasLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	if !aliasPattern.MatchString(alias) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	return alias, nil
}

// ForClientID derives the canonical alias for a numeric client identifier.
func (p AliasPolicy) ForClientID(id int64) string {
	return p.Prefix + strconv.FormatInt(id, 10)
}

// ForUsername derives the canonical alias for a client username.
// Returns ErrInvalidIdentifier when the username cannot form a safe alias.
func (p AliasPolicy) ForUsername(username string) (string, error) {
	return p.Canonicalize(p.Prefix + strings.TrimSpace(username))
}
