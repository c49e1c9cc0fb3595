// Package backend provides the Inkwell API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and JWT issuance
// - internal/realtime: WebSocket presence directory and notification push
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/cache: Redis client used by rate limiting
// - internal/middleware: HTTP middleware (auth, rate limiting, metrics)
// - internal/metrics: Prometheus instrumentation
// - internal/logger: Structured logging setup

// See the individual package documentation for detailed API reference.
package backend
