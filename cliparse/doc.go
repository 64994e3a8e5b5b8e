// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: sqlite file URL or PostgreSQL connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - StoreTimeout: limit for a single store operation (default: 5s)
  - LogLevel: slog level (default: info)
  - BootstrapAdmin: user promoted to global admin at startup (optional)

# Environment Variables

Flags fall back to environment variables:

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	STORE_TIMEOUT   → -store-timeout
	LOG_LEVEL       → -log-level
	BOOTSTRAP_ADMIN → -bootstrap-admin

CLI flags take precedence over environment variables. main loads a .env
file into the environment before ParseFlags runs.
*/
package cliparse
