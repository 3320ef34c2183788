// Package config provides configuration loading and validation for the
// steady service.
//
// It uses Viper to load configuration from a YAML file and environment
// variables, with .env support via godotenv. Environment variables override
// file values using underscore-separated paths (e.g. CACHE_MAX_ENTRIES).
package config
