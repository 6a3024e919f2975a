package tenant_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platekit/platekit/pkg/tenant"
)

var testSigningKey = []byte("test-signing-key")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return token
}

func TestHeaderResolver(t *testing.T) {
	t.Parallel()

	resolve := tenant.NewHeaderResolver("")

	t.Run("reads the default header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tenant.DefaultHeader, "client_42")

		id, err := resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "client_42", id)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tenant.DefaultHeader, "  client_42  ")

		id, err := resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "client_42", id)
	})

	t.Run("absent header resolves to empty", func(t *testing.T) {
		t.Parallel()

		id, err := resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("rejects unusable values", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tenant.DefaultHeader, "../etc/passwd")

		_, err := resolve(req)
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
	})

	t.Run("honors a custom header name", func(t *testing.T) {
		t.Parallel()

		custom := tenant.NewHeaderResolver("X-Restaurant")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Restaurant", "client_9")

		id, err := custom(req)
		require.NoError(t, err)
		assert.Equal(t, "client_9", id)
	})
}

func TestClaimsResolver(t *testing.T) {
	t.Parallel()

	resolve := tenant.NewClaimsResolver(testSigningKey, tenant.DefaultAliasPolicy())

	bearer := func(t *testing.T, claims jwt.MapClaims) *http.Request {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		return req
	}

	t.Run("explicit alias claim wins", func(t *testing.T) {
		t.Parallel()

		req := bearer(t, jwt.MapClaims{
			"alias":     "client_7",
			"client_id": 99,
		})

		id, err := resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "client_7", id)
	})

	t.Run("derives alias from numeric client_id", func(t *testing.T) {
		t.Parallel()

		id, err := resolve(bearer(t, jwt.MapClaims{"client_id": 42}))
		require.NoError(t, err)
		assert.Equal(t, "client_42", id)
	})

	t.Run("derives alias from string client_id", func(t *testing.T) {
		t.Parallel()

		id, err := resolve(bearer(t, jwt.MapClaims{"client_id": "42"}))
		require.NoError(t, err)
		assert.Equal(t, "client_42", id)
	})

	t.Run("rejects non-numeric string client_id", func(t *testing.T) {
		t.Parallel()

		_, err := resolve(bearer(t, jwt.MapClaims{"client_id": "forty-two"}))
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
	})

	t.Run("falls back to client_username", func(t *testing.T) {
		t.Parallel()

		id, err := resolve(bearer(t, jwt.MapClaims{"client_username": "AcmeDiner"}))
		require.NoError(t, err)
		assert.Equal(t, "client_acmediner", id)
	})

	t.Run("rejects a username that cannot form an alias", func(t *testing.T) {
		t.Parallel()

		_, err := resolve(bearer(t, jwt.MapClaims{"client_username": "acme diner"}))
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
	})

	t.Run("token without tenant claims resolves to empty", func(t *testing.T) {
		t.Parallel()

		id, err := resolve(bearer(t, jwt.MapClaims{"sub": "someone"}))
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("no authorization header resolves to empty", func(t *testing.T) {
		t.Parallel()

		id, err := resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("rejects malformed authorization header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "tokenwithoutscheme")

		_, err := resolve(req)
		assert.ErrorIs(t, err, tenant.ErrMissingTenant)
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		t.Parallel()

		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"alias": "client_7",
			"exp":   time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("wrong-key"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		_, err = resolve(req)
		assert.ErrorIs(t, err, tenant.ErrMissingTenant)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		t.Parallel()

		req := bearer(t, jwt.MapClaims{
			"alias": "client_7",
			"exp":   time.Now().Add(-time.Hour).Unix(),
		})

		_, err := resolve(req)
		assert.ErrorIs(t, err, tenant.ErrMissingTenant)
	})
}

func TestCompositeResolver(t *testing.T) {
	t.Parallel()

	t.Run("first non-empty result wins", func(t *testing.T) {
		t.Parallel()

		resolve := tenant.NewCompositeResolver(
			func(*http.Request) (string, error) { return "", nil },
			func(*http.Request) (string, error) { return "client_1", nil },
			func(*http.Request) (string, error) { return "client_2", nil },
		)

		id, err := resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, "client_1", id)
	})

	t.Run("errors short-circuit later resolvers", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("bad indicator")
		resolve := tenant.NewCompositeResolver(
			func(*http.Request) (string, error) { return "", boom },
			func(*http.Request) (string, error) { return "client_1", nil },
		)

		_, err := resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("all empty resolves to empty", func(t *testing.T) {
		t.Parallel()

		resolve := tenant.NewCompositeResolver(
			func(*http.Request) (string, error) { return "", nil },
		)

		id, err := resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, id)
	})
}
