package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/clientpulse/clientpulse/pkg/retry"
)

// Config for the Google Workspace adapters
type Config struct {
	CredentialsFile string
	ImpersonateUser string
}

// ClientOptions builds the service options for one Workspace API. When an
// impersonation subject is configured the service account asserts it via
// domain-wide delegation; otherwise the credentials file is used directly.
func ClientOptions(ctx context.Context, cfg Config, scopes ...string) ([]option.ClientOption, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("google credentials file is required")
	}

	if cfg.ImpersonateUser == "" {
		opts := []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(scopes...),
		}
		return opts, nil
	}

	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	jwtConfig.Subject = cfg.ImpersonateUser

	return []option.ClientOption{option.WithHTTPClient(jwtConfig.Client(ctx))}, nil
}

// statusOf extracts the HTTP status from a Workspace API error response if
// one is attached
func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// classify wraps a Workspace API error for the retry gate based on its
// HTTP status. Transport-level failures without a status are retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	status := statusOf(err)
	if status == 0 {
		return retry.Transient(err)
	}
	return retry.HTTPStatusError(status, 0, err)
}
