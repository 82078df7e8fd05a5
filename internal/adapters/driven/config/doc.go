// Package config resolves the layered document-locator configuration.
//
// Three sources merge into one validated AppConfig, lowest to highest
// precedence:
//
//  1. a line-oriented secrets file (.env format, parsed with godotenv)
//  2. a TOML configuration file (sections google, supabase, database, openai)
//  3. the process environment (or an injected mapping, for tests)
//
// Only the fixed allow-list of (section, field) pairs is accepted from any
// source; everything else is dropped. A value present at a higher layer wins,
// an absent one never erases a lower layer. Validation requires every leaf
// to be a non-empty string and reports all missing values at once.
package config
