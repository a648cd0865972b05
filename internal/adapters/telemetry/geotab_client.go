package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"school-bus-trip-service/internal/ports"
)

type GeotabConfig struct {
	// Server is a host name ("my.geotab.com") or a base URL.
	Server   string
	Database string
	Username string
	Password string
}

// GeotabClient implements TelemetryProvider and ExceptionProvider against
// the Geotab JSON-RPC API.
//
// It coordinates:
//   - Session authentication, renewed when the server rejects the session
//   - Persistent vehicle -> device caching
//   - A per-client cache of rule names
//   - External API calls with retry/backoff
//
// The client is safe for concurrent use.
type GeotabClient struct {
	session  *http.Client
	baseURL  string
	database string
	username string
	password string
	backoff  time.Duration
	devices  ports.DeviceCache

	mu    sync.Mutex
	creds *credentials
	rules map[string]string
}

type credentials struct {
	Database  string `json:"database"`
	UserName  string `json:"userName"`
	SessionID string `json:"sessionId"`
}

func NewGeotabClient(cfg GeotabConfig, devices ports.DeviceCache) (*GeotabClient, error) {
	if cfg.Server == "" || cfg.Database == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("geotab server, database, username and password must be set")
	}

	return &GeotabClient{
		session:  &http.Client{Timeout: 30 * time.Second},
		baseURL:  baseURL(cfg.Server),
		database: cfg.Database,
		username: cfg.Username,
		password: cfg.Password,
		backoff:  200 * time.Millisecond,
		devices:  devices,
	}, nil
}

func baseURL(server string) string {
	s := strings.TrimRight(strings.TrimSpace(server), "/")
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return "https://" + s
}

func (g *GeotabClient) endpoint() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.baseURL + "/apiv1"
}

type authResult struct {
	Credentials credentials `json:"credentials"`
	// Path is "ThisServer" or the host that owns the database.
	Path string `json:"path"`
}

func (g *GeotabClient) authenticate(ctx context.Context) (*credentials, error) {
	var res authResult
	err := g.rawCall(ctx, "Authenticate", map[string]any{
		"database": g.database,
		"userName": g.username,
		"password": g.password,
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("geotab authenticate: %w", err)
	}
	if res.Credentials.SessionID == "" {
		return nil, errors.New("geotab authenticate: empty session id")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if res.Path != "" && res.Path != "ThisServer" {
		g.baseURL = baseURL(res.Path)
	}
	g.creds = &res.Credentials
	log.Printf("geotab authenticated database=%s server=%s", g.database, g.baseURL)

	return g.creds, nil
}

func (g *GeotabClient) currentCredentials(ctx context.Context) (*credentials, error) {
	g.mu.Lock()
	c := g.creds
	g.mu.Unlock()
	if c != nil {
		return c, nil
	}
	return g.authenticate(ctx)
}

// call runs an authenticated method, re-authenticating once when the
// session has expired.
func (g *GeotabClient) call(ctx context.Context, method string, params map[string]any, out any) error {
	for attempt := 0; ; attempt++ {
		c, err := g.currentCredentials(ctx)
		if err != nil {
			return err
		}

		withCreds := make(map[string]any, len(params)+1)
		for k, v := range params {
			withCreds[k] = v
		}
		withCreds["credentials"] = c

		err = g.rawCall(ctx, method, withCreds, out)

		var re *rpcError
		if attempt == 0 && errors.As(err, &re) && re.invalidSession() {
			g.mu.Lock()
			g.creds = nil
			g.mu.Unlock()
			continue
		}
		return err
	}
}
