package config

import (
	"fmt"
	"io"
)

// Doctor re-runs a full configuration load and prints a human-readable
// report: a summary of the non-secret fields on stdout when valid, or the
// validation error on stderr otherwise. It returns whether the configuration
// is valid and never exits the process itself.
func Doctor(opts Options, stdout, stderr io.Writer) bool {
	cfg, err := Load(opts)
	if err != nil {
		fmt.Fprintln(stderr, "Configuration invalid:")
		fmt.Fprintf(stderr, "  %s\n", err)
		return false
	}

	fmt.Fprintln(stdout, "Configuration looks good.")
	fmt.Fprintf(stdout, "  Google OAuth client ID: %s\n", cfg.Google.OAuthClientID)
	fmt.Fprintf(stdout, "  Drive target folder ID: %s\n", cfg.Google.TargetFolderID)
	fmt.Fprintf(stdout, "  Supabase URL: %s\n", cfg.Supabase.URL)
	fmt.Fprintln(stdout, "  Supabase keys: service role + anon key loaded.")
	fmt.Fprintf(stdout, "  Database name: %s\n", cfg.Database.Name)
	fmt.Fprintf(stdout, "  Database schema: %s\n", cfg.Database.Schema)
	fmt.Fprintln(stdout, "  Secrets are loaded from secure sources.")
	return true
}
