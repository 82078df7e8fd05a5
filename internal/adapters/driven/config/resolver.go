package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables overriding the default source file locations.
const (
	EnvFileOverrideVar    = "DOCUMENT_LOCATOR_ENV_FILE"
	ConfigFileOverrideVar = "DOCUMENT_LOCATOR_CONFIG_FILE"
)

// defaultEnvFile is the secrets file looked up in the working directory when
// neither an explicit path nor the override variable is set.
const defaultEnvFile = ".env"

// GoogleConfig holds the Drive OAuth client and crawl target.
type GoogleConfig struct {
	OAuthClientID     string
	OAuthClientSecret string
	TargetFolderID    string
}

// SupabaseConfig holds the managed-Postgres project endpoint and API keys.
type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	AnonKey        string
}

// DatabaseConfig holds the direct Postgres connection settings.
type DatabaseConfig struct {
	URL    string
	Name   string
	Schema string
}

// OpenAIConfig holds the embedding/summarisation API key.
type OpenAIConfig struct {
	APIKey string
}

// AppConfig is the validated, immutable settings object built once per
// process. Every leaf field is guaranteed non-empty.
type AppConfig struct {
	Google   GoogleConfig
	Supabase SupabaseConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig
}

// Error reports configuration that cannot be loaded or validated.
// It is never retried; callers surface it and stop.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying I/O or parse error, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// fieldPath identifies one recognised (section, field) pair.
type fieldPath struct {
	section string
	field   string
}

// pathToEnvKey is the fixed allow-list mapping configuration fields to their
// environment variable names. Anything outside it is silently dropped from
// every source.
var pathToEnvKey = map[fieldPath]string{
	{"google", "oauth_client_id"}:     "GOOGLE_OAUTH_CLIENT_ID",
	{"google", "oauth_client_secret"}: "GOOGLE_OAUTH_CLIENT_SECRET",
	{"google", "target_folder_id"}:    "GOOGLE_DRIVE_TARGET_FOLDER_ID",
	{"supabase", "url"}:               "SUPABASE_URL",
	{"supabase", "service_role_key"}:  "SUPABASE_SERVICE_ROLE_KEY",
	{"supabase", "anon_key"}:          "SUPABASE_ANON_KEY",
	{"database", "url"}:               "DATABASE_URL",
	{"database", "name"}:              "DATABASE_NAME",
	{"database", "schema"}:            "DATABASE_SCHEMA",
	{"openai", "api_key"}:             "OPENAI_API_KEY",
}

var envKeyToPath = func() map[string]fieldPath {
	m := make(map[string]fieldPath, len(pathToEnvKey))
	for path, key := range pathToEnvKey {
		m[key] = path
	}
	return m
}()

// Options selects the configuration sources for one Load call.
// The zero value resolves everything from defaults and the process state.
type Options struct {
	// EnvFile is an explicit secrets file path. Empty falls back to
	// EnvFileOverrideVar, then to ./.env.
	EnvFile string
	// ConfigFile is an explicit TOML file path. Empty falls back to
	// ConfigFileOverrideVar, then to ~/.config/document_locator/config.toml.
	ConfigFile string
	// Environ replaces the process environment as the highest-precedence
	// source. nil means the live process environment. The two override
	// variables above are always read from the process environment.
	Environ map[string]string
}

// Load merges the secrets file, the TOML config file and the environment
// (lowest to highest precedence) into a validated AppConfig. A missing source
// file is treated as empty; an unreadable one fails with *Error. Validation
// fails with *Error naming every absent or blank required value, sorted by
// environment variable name.
func Load(opts Options) (*AppConfig, error) {
	merged := make(map[fieldPath]string, len(pathToEnvKey))

	envFileValues, err := parseEnvFile(resolveEnvFile(opts.EnvFile))
	if err != nil {
		return nil, err
	}
	mergeEnvKeyed(merged, envFileValues)

	fileValues, err := parseConfigFile(resolveConfigFile(opts.ConfigFile))
	if err != nil {
		return nil, err
	}
	for path, value := range fileValues {
		merged[path] = value
	}

	environ := opts.Environ
	if environ == nil {
		environ = processEnviron()
	}
	mergeEnvKeyed(merged, environ)

	return buildAppConfig(merged)
}

func resolveEnvFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if override := os.Getenv(EnvFileOverrideVar); override != "" {
		return override
	}
	return defaultEnvFile
}

func resolveConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if override := os.Getenv(ConfigFileOverrideVar); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Without a home directory the default file cannot exist; the empty
		// path reads as a missing file below.
		return ""
	}
	return filepath.Join(home, ".config", "document_locator", "config.toml")
}

// parseEnvFile reads a line-oriented KEY=value secrets file. Blank lines and
// # comments are ignored, a leading "export " is stripped and matching quotes
// around values are removed.
func parseEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to read env file %s", path), Cause: err}
	}
	values, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to parse env file %s", path), Cause: err}
	}
	return values, nil
}

// parseConfigFile reads the hierarchical TOML file and keeps only the
// recognised (section, field) pairs.
func parseConfigFile(path string) (map[fieldPath]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to read config file %s", path), Cause: err}
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to parse config file %s", path), Cause: err}
	}

	filtered := make(map[fieldPath]string)
	for path := range pathToEnvKey {
		section, ok := raw[path.section].(map[string]any)
		if !ok {
			continue
		}
		value, ok := section[path.field]
		if !ok {
			continue
		}
		filtered[path] = stringify(value)
	}
	return filtered, nil
}

// mergeEnvKeyed folds an environment-shaped mapping into the merged tree,
// keeping only allow-listed keys. Present values overwrite lower-precedence
// ones; absent keys never erase them.
func mergeEnvKeyed(merged map[fieldPath]string, mapping map[string]string) {
	for key, value := range mapping {
		if path, ok := envKeyToPath[key]; ok {
			merged[path] = value
		}
	}
}

func buildAppConfig(merged map[fieldPath]string) (*AppConfig, error) {
	var missing []string
	value := func(section, field string) string {
		return merged[fieldPath{section, field}]
	}
	for path, envKey := range pathToEnvKey {
		if strings.TrimSpace(merged[path]) == "" {
			missing = append(missing, envKey)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &Error{Message: "missing required values for " + strings.Join(missing, ", ")}
	}

	return &AppConfig{
		Google: GoogleConfig{
			OAuthClientID:     value("google", "oauth_client_id"),
			OAuthClientSecret: value("google", "oauth_client_secret"),
			TargetFolderID:    value("google", "target_folder_id"),
		},
		Supabase: SupabaseConfig{
			URL:            value("supabase", "url"),
			ServiceRoleKey: value("supabase", "service_role_key"),
			AnonKey:        value("supabase", "anon_key"),
		},
		Database: DatabaseConfig{
			URL:    value("database", "url"),
			Name:   value("database", "name"),
			Schema: value("database", "schema"),
		},
		OpenAI: OpenAIConfig{
			APIKey: value("openai", "api_key"),
		},
	}, nil
}

func processEnviron() map[string]string {
	environ := os.Environ()
	mapping := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		mapping[key] = value
	}
	return mapping
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
