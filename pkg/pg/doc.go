// Package pg provides the PostgreSQL plumbing under the tenant routing
// layer: opening pgx/v5 connection pools from per-tenant DSNs, applying
// goose/v3 schema migrations to newly provisioned tenant databases, and
// classifying common Postgres errors.
//
// Connect deliberately performs no internal retry: a tenant database that
// is unreachable at request time must surface as an error to the request,
// not stall the routing layer.
package pg
