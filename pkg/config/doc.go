// Package config loads typed configuration structs from environment
// variables (with optional .env support for local development). Each
// struct type is parsed once per process and cached, so components can
// load their own configuration independently without re-reading the
// environment.
package config
