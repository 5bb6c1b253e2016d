// Package infra provides shared infrastructure components used across
// the application: logging and rate limiting.
package infra
