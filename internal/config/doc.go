// Package config provides centralized configuration management for the
// consolidation service. It handles loading from multiple sources,
// validation, and a type-safe API for the rest of the application.
//
// # Configuration Sources
//
// Configuration is loaded in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. An optional YAML file
//	3. Built-in defaults (lowest priority)
//
// All environment variables use the FINCON_* prefix:
//
//	FINCON_SERVER_PORT=8080
//	FINCON_LOGGING_LEVEL=info
//	FINCON_PATHS_SUBMISSIONS_DIR=data/submissions
//	FINCON_PIPELINE_EARLIEST_DATE=2020-01-01
//
// # Pipeline configuration
//
// The pipeline section carries the recognized knobs of the
// consolidation itself: the earliest allowed transaction date, the
// amount precision, the controlled category vocabularies, the
// per-department header alias tables, and the expected submission
// file names. Everything else about row handling is fixed behavior,
// not configuration.
//
// Alias tables and vocabularies are validated at load time; a typo in
// an alias table fails startup instead of corrupting row processing
// later.
package config
