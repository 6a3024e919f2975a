package tenant

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultHeader is the header carrying the tenant indicator.
const DefaultHeader = "X-Tenant-ID"

// Resolver extracts a tenant identifier from an HTTP request.
// Returns empty string when the request carries no indicator at all;
// returns an error when an indicator is present but unusable.
type Resolver func(r *http.Request) (string, error)

// NewHeaderResolver extracts the tenant indicator from an HTTP header.
// Defaults to DefaultHeader when headerName is empty.
func NewHeaderResolver(headerName string) Resolver {
	if headerName == "" {
		headerName = DefaultHeader
	}

	return func(req *http.Request) (string, error) {
		value := strings.TrimSpace(req.Header.Get(headerName))
		if value == "" {
			return "", nil
		}
		// Reject garbage early so it never reaches the registry.
		if _, err := (AliasPolicy{}).Canonicalize(value); err != nil {
			return "", err
		}
		return value, nil
	}
}

// claims carries the tenant-identifying fields an authenticated principal
// may embed in its token.
type claims struct {
	Alias          string `json:"alias"`
	ClientID       any    `json:"client_id"`
	ClientUsername string `json:"client_username"`
	jwt.RegisteredClaims
}

// NewClaimsResolver extracts the tenant indicator from the claims of a
// bearer token. Resolution order matches the identity provider's contract:
// an explicit alias claim wins, then client_id, then client_username.
// A request without an Authorization header resolves to empty; a present
// but invalid token is an error.
func NewClaimsResolver(signingKey []byte, policy AliasPolicy) Resolver {
	return func(req *http.Request) (string, error) {
		authHeader := req.Header.Get("Authorization")
		if authHeader == "" {
			return "", nil
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", fmt.Errorf("%w: malformed authorization header", ErrMissingTenant)
		}

		var c claims
		_, err := jwt.ParseWithClaims(parts[1], &c, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return signingKey, nil
		})
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrMissingTenant, err)
		}

		switch {
		case c.Alias != "":
			return c.Alias, nil
		case c.ClientID != nil:
			id, err := clientIDToInt(c.ClientID)
			if err != nil {
				return "", err
			}
			return policy.ForClientID(id), nil
		case c.ClientUsername != "":
			return policy.ForUsername(c.ClientUsername)
		default:
			return "", nil
		}
	}
}

// clientIDToInt accepts the number and string encodings identity providers
// use for the client_id claim.
func clientIDToInt(v any) (int64, error) {
	switch id := v.(type) {
	case float64:
		return int64(id), nil
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: client_id %q", ErrInvalidIdentifier, id)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: client_id of type %T", ErrInvalidIdentifier, v)
	}
}

// NewCompositeResolver tries resolvers in order and returns the first
// non-empty identifier. Errors short-circuit: an unusable indicator must
// fail the request, not fall through to a weaker resolution path.
func NewCompositeResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) (string, error) {
		for _, resolve := range resolvers {
			id, err := resolve(r)
			if err != nil {
				return "", err
			}
			if id != "" {
				return id, nil
			}
		}
		return "", nil
	}
}
