package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes bounds session endpoint payloads.
const maxResponseBytes = 1 << 20

// Gateway is the session boundary the resolver authenticates against.
type Gateway interface {
	Me(ctx context.Context, token string) (*User, error)
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// GatewayConfig configures an HTTPGateway.
type GatewayConfig struct {
	BaseURL    string
	MePath     string
	LoginPath  string
	LogoutPath string
	Timeout    time.Duration
	Client     *http.Client
}

// HTTPGateway talks to the session service over HTTP.
type HTTPGateway struct {
	baseURL    string
	mePath     string
	loginPath  string
	logoutPath string
	client     *http.Client
}

// NewHTTPGateway constructs an HTTPGateway.
func NewHTTPGateway(cfg GatewayConfig) (*HTTPGateway, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("auth: gateway base url required")
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPGateway{
		baseURL:    base,
		mePath:     pathOr(cfg.MePath, "/session/me"),
		loginPath:  pathOr(cfg.LoginPath, "/session/login"),
		logoutPath: pathOr(cfg.LogoutPath, "/session/logout"),
		client:     client,
	}, nil
}

func pathOr(path, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// Me fetches the user bound to token.
func (g *HTTPGateway) Me(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+g.mePath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := g.do(req, OpMe)
	if err != nil {
		return nil, err
	}
	var payload struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("auth: me: decode: %w", err)
	}
	return decodeUser(body, payload.User)
}

// Login posts credentials and returns the token and user.
func (g *HTTPGateway) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+g.loginPath, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := g.do(req, OpLogin)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Token string          `json:"token"`
		User  json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("auth: login: decode: %w", err)
	}
	user, err := decodeUser(body, payload.User)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: payload.Token, User: user}, nil
}

// Logout notifies the session service. The response body is ignored.
func (g *HTTPGateway) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+g.logoutPath, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	_, err = g.do(req, OpLogout)
	return err
}

func (g *HTTPGateway) do(req *http.Request, op string) ([]byte, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}

// decodeUser accepts both the {"user": {...}} wrapper and a flat user payload.
func decodeUser(body []byte, wrapped json.RawMessage) (*User, error) {
	raw := body
	if len(wrapped) > 0 && !bytes.Equal(bytes.TrimSpace(wrapped), []byte("null")) {
		raw = wrapped
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("auth: decode user: %w", err)
	}
	return &user, nil
}

var _ Gateway = (*HTTPGateway)(nil)
