// Package observability provides structured logging and Prometheus metrics
// for the PubMed fetch service.
//
// Logging uses zerolog with JSON output by default and a console writer
// for development. Component loggers are derived with With() so every
// entry carries its component name; helper functions attach the common
// field sets for batch runs, operation groups, and HTTP requests.
package observability
