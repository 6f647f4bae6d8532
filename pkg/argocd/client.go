package argocd

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"github.com/cuemby/rollwatch/pkg/config"
	"github.com/cuemby/rollwatch/pkg/log"
	"github.com/cuemby/rollwatch/pkg/metrics"
	"github.com/cuemby/rollwatch/pkg/types"
)

// requestTimeout bounds a single ArgoCD API call. The overall
// verification deadline is enforced by the watcher, not here.
const requestTimeout = 30 * time.Second

var (
	// ErrUnauthorized means ArgoCD rejected the configured credentials
	ErrUnauthorized = errors.New("unauthorized, please check credentials")
	// ErrForbidden means ArgoCD refused the session request outright
	ErrForbidden = errors.New("forbidden, please check the firewall")
)

// AppStatus is the projection of an ArgoCD application rollwatch cares
// about: the running image references and the sync/health verdict.
type AppStatus struct {
	Images  []string
	Synced  string
	Healthy string
}

// Client wraps the subset of the ArgoCD HTTP API the watcher consumes.
// The session cookie is cached in the client's jar and shared across
// verification goroutines. The client performs no retries; retry is the
// watcher's concern.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	token    string
}

// applicationResponse mirrors the fields of GET /api/v1/applications/{app}
// that the watcher reads
type applicationResponse struct {
	Status struct {
		Summary struct {
			Images []string `json:"images"`
		} `json:"summary"`
		Sync struct {
			Status string `json:"status"`
		} `json:"sync"`
		Health struct {
			Status string `json:"status"`
		} `json:"health"`
	} `json:"status"`
}

// NewClient creates an ArgoCD client from configuration. TLS verification
// follows SSL_VERIFY; disabling it is assumed to be a deliberate choice
// for self-signed installations.
func NewClient(cfg *config.Config) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.SSLVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		baseURL:  cfg.ArgoURL,
		username: cfg.ArgoUser,
		password: cfg.ArgoPassword,
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
			Timeout:   requestTimeout,
		},
	}, nil
}

// Authenticate establishes an ArgoCD session. 401 and 403 are fatal and
// surfaced as sentinel errors for the caller to act on; a transport
// failure only logs, leaving the client unauthenticated so that
// subsequent health probes report down.
func (c *Client) Authenticate() error {
	payload, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session payload: %w", err)
	}

	logger := log.WithComponent("argocd")
	resp, err := c.http.Post(c.baseURL+"/api/v1/session", "application/json", bytes.NewReader(payload))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to reach ArgoCD for authentication")
		return nil
	}
	defer resp.Body.Close()

	metrics.ArgoRequestsTotal.WithLabelValues("session", strconv.Itoa(resp.StatusCode)).Inc()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}

	var session struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err == nil {
		c.token = session.Token
	}

	logger.Debug().Msg("ArgoCD session established")
	return nil
}

// Check probes ArgoCD session health. It reports up only when the
// userinfo response says the cached session is logged in; any transport
// error or malformed body reads as down.
func (c *Client) Check() string {
	resp, err := c.get(c.baseURL + "/api/v1/session/userinfo")
	if err != nil {
		return types.HealthDown
	}
	defer resp.Body.Close()

	metrics.ArgoRequestsTotal.WithLabelValues("userinfo", strconv.Itoa(resp.StatusCode)).Inc()

	var userinfo struct {
		LoggedIn bool `json:"loggedIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userinfo); err != nil {
		return types.HealthDown
	}
	if !userinfo.LoggedIn {
		return types.HealthDown
	}

	return types.HealthUp
}

// Refresh asks ArgoCD to refresh the application and returns the HTTP
// status code. 404 is the signal that the application does not exist.
func (c *Client) Refresh(app string) (int, error) {
	resp, err := c.get(fmt.Sprintf("%s/api/v1/applications/%s?refresh=normal", c.baseURL, app))
	if err != nil {
		return 0, fmt.Errorf("failed to refresh app %s: %w", app, err)
	}
	defer resp.Body.Close()

	metrics.ArgoRequestsTotal.WithLabelValues("refresh", strconv.Itoa(resp.StatusCode)).Inc()

	return resp.StatusCode, nil
}

// GetAppStatus fetches the application and projects it to AppStatus.
// A non-200 response yields a nil status, which the watcher treats as
// "not ready yet".
func (c *Client) GetAppStatus(app string) (*AppStatus, error) {
	resp, err := c.get(fmt.Sprintf("%s/api/v1/applications/%s", c.baseURL, app))
	if err != nil {
		return nil, fmt.Errorf("failed to get app %s: %w", app, err)
	}
	defer resp.Body.Close()

	metrics.ArgoRequestsTotal.WithLabelValues("application", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var application applicationResponse
	if err := json.NewDecoder(resp.Body).Decode(&application); err != nil {
		return nil, fmt.Errorf("failed to decode app %s: %w", app, err)
	}

	return &AppStatus{
		Images:  application.Status.Summary.Images,
		Synced:  application.Status.Sync.Status,
		Healthy: application.Status.Health.Status,
	}, nil
}

func (c *Client) get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}
