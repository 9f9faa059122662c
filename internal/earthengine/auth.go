package earthengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const Scope = "https://www.googleapis.com/auth/earthengine"

var ErrMissingSecret = errors.New("missing earth engine secret")

// Secrets are the three values a deployment supplies for service account access.
type Secrets struct {
	ServiceAccount string
	KeyFileJSON    string
	Project        string
}

func (s Secrets) validate() error {
	switch {
	case s.ServiceAccount == "":
		return fmt.Errorf("%w: SERVICE_ACCOUNT", ErrMissingSecret)
	case s.KeyFileJSON == "":
		return fmt.Errorf("%w: KEY_FILE_JSON", ErrMissingSecret)
	case s.Project == "":
		return fmt.Errorf("%w: GOOGLE_CLOUD_PROJECT", ErrMissingSecret)
	}
	return nil
}

// Session is an initialized, authorized connection to one project.
type Session struct {
	Project    string
	HTTPClient *http.Client
}

type sessionOptions struct {
	tokenURL string
	timeout  time.Duration
	base     http.RoundTripper
}

type Option func(*sessionOptions)

// WithTokenURL overrides the OAuth2 token endpoint of the key file.
func WithTokenURL(u string) Option {
	return func(o *sessionOptions) { o.tokenURL = u }
}

func WithTimeout(d time.Duration) Option {
	return func(o *sessionOptions) { o.timeout = d }
}

// Initialize writes the key to a temporary file, builds service account
// credentials from it and obtains a first token so a rejected credential
// fails here rather than on the first imagery request.
func Initialize(ctx context.Context, secrets Secrets, opts ...Option) (*Session, error) {
	if err := secrets.validate(); err != nil {
		return nil, err
	}

	o := sessionOptions{timeout: 60 * time.Second, base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	keyPath, err := writeKeyFile(secrets.KeyFileJSON)
	if err != nil {
		return nil, err
	}
	defer os.Remove(keyPath)

	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("error reading key file: %w", err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(key, Scope)
	if err != nil {
		return nil, fmt.Errorf("error parsing service account key: %w", err)
	}
	if jwtCfg.Email != secrets.ServiceAccount {
		return nil, fmt.Errorf("key belongs to %q, not service account %q", jwtCfg.Email, secrets.ServiceAccount)
	}
	if o.tokenURL != "" {
		jwtCfg.TokenURL = o.tokenURL
	}

	ts := oauth2.ReuseTokenSource(nil, jwtCfg.TokenSource(ctx))
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("credential rejected: %w", err)
	}

	client := &http.Client{
		Timeout: o.timeout,
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   &projectTransport{project: secrets.Project, base: o.base},
		},
	}

	slog.Info("earth engine initialized", "project", secrets.Project, "service_account", secrets.ServiceAccount)

	return &Session{
		Project:    secrets.Project,
		HTTPClient: client,
	}, nil
}

func writeKeyFile(keyJSON string) (string, error) {
	f, err := os.CreateTemp("", "ee-key-*.json")
	if err != nil {
		return "", fmt.Errorf("error creating key file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(keyJSON); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("error writing key file: %w", err)
	}
	return f.Name(), nil
}

// projectTransport bills requests to the session project.
type projectTransport struct {
	project string
	base    http.RoundTripper
}

func (t *projectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("x-goog-user-project", t.project)
	return t.base.RoundTrip(r)
}
