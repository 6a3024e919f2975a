// Package httpserver wraps net/http's Server with graceful shutdown on
// context cancellation or termination signals, environment-driven
// configuration and health probe handlers.
package httpserver
