// Package config provides 12-factor configuration management for the portal engine.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags in cmd/server override environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, response compression)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Navigation: Location of the static navigation catalog
//   - Catalog: Where program catalogs are fetched from (HTTP or directory)
//   - Modules: Script module root, hot reload, launch timeout
//
// Environment Variables:
//   - PORT, HOST, HTTP_COMPRESS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - NAVIGATION_PATH
//   - CATALOG_BASE_URL, CATALOG_URL_TEMPLATE, CATALOG_DIR, CATALOG_TIMEOUT, CATALOG_RPS
//   - MODULES_ROOT, MODULES_WATCH, MODULES_LAUNCH_TIMEOUT
package config
