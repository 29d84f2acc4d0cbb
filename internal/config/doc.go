// Package config loads runtime settings for the hifz server and CLI from
// HIFZ_* environment variables, an optional config.yaml and an optional
// .env file, and validates them before any component is constructed.
package config
