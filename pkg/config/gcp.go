package config

import (
	"strings"

	"google.golang.org/api/option"
)

// ClientOptions picks the credential source shared by the Pub/Sub and
// BigQuery clients. Inline JSON wins over a file path; with neither set the
// SDKs fall back to application default credentials.
func (g GCPConfig) ClientOptions() []option.ClientOption {
	if raw := strings.TrimSpace(g.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(g.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}
