package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"chargeamps/internal/models"
)

// DefaultBaseURL is the production external API including its version prefix.
const DefaultBaseURL = "https://ca-externalapi.azurewebsites.net/api/v3"

const loginPath = "/auth/login"

// Config carries the account credentials and connection settings.
type Config struct {
	BaseURL  string
	Email    string
	Password string
	APIKey   string
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// Timeout bounds a whole request including the body read; zero means none.
	Timeout time.Duration
}

// Option customises a ChargeAmpsClient.
type Option func(*ChargeAmpsClient)

// WithHTTPClient replaces the transport the client owns.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *ChargeAmpsClient) { c.doer = doer }
}

// WithClock replaces the wall clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *ChargeAmpsClient) { c.now = now }
}

// WithCredentialStore shares credentials with other client instances.
func WithCredentialStore(store CredentialStore) Option {
	return func(c *ChargeAmpsClient) { c.store = store }
}

// ChargeAmpsClient is an authenticated client for the Charge Amps external API.
// It keeps one bearer credential and logs in again only once that credential
// has expired. Refreshes are serialised, so concurrent callers that find the
// credential expired share a single login. Close releases the connection.
type ChargeAmpsClient struct {
	cfg    Config
	doer   HTTPDoer
	base   *BaseClient
	store  CredentialStore
	now    func() time.Time
	logger *zap.Logger

	mu     sync.Mutex
	cred   models.Credential
	closed atomic.Bool
}

// NewChargeAmpsClient returns a client; no request is made until the first operation.
func NewChargeAmpsClient(cfg Config, logger *zap.Logger, opts ...Option) (*ChargeAmpsClient, error) {
	if cfg.Email == "" || cfg.Password == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("chargeamps: email, password and api key are required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &ChargeAmpsClient{
		cfg:    cfg,
		now:    time.Now,
		logger: logger.Named("chargeamps"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.doer == nil {
		c.doer = newHTTPClient(cfg, c.logger)
	}
	c.base = NewBaseClient(cfg.BaseURL, c.doer)
	return c, nil
}

func newHTTPClient(cfg Config, logger *zap.Logger) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		logger.Warn("tls certificate verification disabled", zap.String("base_url", cfg.BaseURL))
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: transport, Timeout: cfg.Timeout}
}

// Close releases idle connections. It is safe to call more than once.
func (c *ChargeAmpsClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if closer, ok := c.doer.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
	return nil
}

// Credential returns the credential currently held by the client.
func (c *ChargeAmpsClient) Credential() models.Credential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cred
}

// Logout drops the held credential and removes it from the credential store,
// so the next operation logs in again.
func (c *ChargeAmpsClient) Logout(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cred = models.Credential{}
	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ctx, c.storeKey()); err != nil {
		return fmt.Errorf("chargeamps: clear cached credential: %w", err)
	}
	c.logger.Debug("cached credential cleared")
	return nil
}

// ListChargePoints returns the owned charge points in API order.
func (c *ChargeAmpsClient) ListChargePoints(ctx context.Context) ([]models.ChargePoint, error) {
	var chargePoints []models.ChargePoint
	if err := c.do(ctx, http.MethodGet, "/chargepoints/owned", nil, &chargePoints); err != nil {
		return nil, err
	}
	if chargePoints == nil {
		chargePoints = []models.ChargePoint{}
	}
	return chargePoints, nil
}

// GetStatus returns the live status of a charge point.
func (c *ChargeAmpsClient) GetStatus(ctx context.Context, chargePointID string) (*models.ChargePointStatus, error) {
	var status models.ChargePointStatus
	if err := c.do(ctx, http.MethodGet, chargePointPath(chargePointID, "status"), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetConnectorSettings returns the settings of one connector.
func (c *ChargeAmpsClient) GetConnectorSettings(ctx context.Context, chargePointID string, connectorID int) (*models.ChargePointConnectorSettings, error) {
	var settings models.ChargePointConnectorSettings
	if err := c.do(ctx, http.MethodGet, settingsPath(chargePointID, connectorID), nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SetConnectorSettings writes the full settings record back to the connector
// it names. Callers read, modify and write; there is no partial update.
func (c *ChargeAmpsClient) SetConnectorSettings(ctx context.Context, settings *models.ChargePointConnectorSettings) error {
	if settings == nil || settings.ChargePointID == "" {
		return fmt.Errorf("chargeamps: settings must name a charge point")
	}
	return c.do(ctx, http.MethodPut, settingsPath(settings.ChargePointID, settings.ConnectorID), settings, nil)
}

// ListSessions returns the charging sessions of a charge point in API order.
func (c *ChargeAmpsClient) ListSessions(ctx context.Context, chargePointID string) ([]models.ChargingSession, error) {
	path := chargePointPath(chargePointID, "chargingsessions")

	var records []map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}

	sessions := make([]models.ChargingSession, 0, len(records))
	for _, record := range records {
		patchSessionTimes(record)
		data, err := json.Marshal(record)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		var session models.ChargingSession
		if err := json.Unmarshal(data, &session); err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// patchSessionTimes pads two-digit fractional seconds in the time fields of a
// raw session record. The API truncates trailing zeros of the milliseconds.
func patchSessionTimes(record map[string]json.RawMessage) {
	for _, key := range models.SessionTimeFields {
		raw, ok := record[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		if patched := models.PatchTimestamp(value); patched != value {
			if data, err := json.Marshal(patched); err == nil {
				record[key] = data
			}
		}
	}
}

func (c *ChargeAmpsClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	token, err := c.ensureCredential(ctx)
	if err != nil {
		return err
	}

	var body []byte
	if payload != nil {
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("chargeamps: encode %s: %w", path, err)
		}
	}

	status, respBody, err := c.base.Do(ctx, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return fmt.Errorf("chargeamps: %s %s: %w", method, path, err)
	}
	c.logger.Debug("api request", zap.String("method", method), zap.String("path", path), zap.Int("status", status))
	if status < 200 || status >= 300 {
		return &HTTPError{Method: method, URL: c.base.URL(path), StatusCode: status, Body: respBody}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// ensureCredential returns a token that is valid now, logging in if the held
// credential has expired or was never set.
func (c *ChargeAmpsClient) ensureCredential(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.cred.Valid(now) {
		return c.cred.Token, nil
	}

	if cached, ok := c.loadCached(ctx, now); ok {
		c.cred = cached
		return cached.Token, nil
	}

	cred, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.cred = cred
	c.saveCached(ctx, cred)
	return cred.Token, nil
}

func (c *ChargeAmpsClient) login(ctx context.Context) (models.Credential, error) {
	body, err := json.Marshal(loginRequest{Email: c.cfg.Email, Password: c.cfg.Password})
	if err != nil {
		return models.Credential{}, fmt.Errorf("chargeamps: encode login: %w", err)
	}

	status, respBody, err := c.base.Do(ctx, http.MethodPost, loginPath, body, map[string]string{
		"apiKey": c.cfg.APIKey,
	})
	if err != nil {
		return models.Credential{}, fmt.Errorf("chargeamps: login: %w", err)
	}
	if status < 200 || status >= 300 {
		return models.Credential{}, &HTTPError{Method: http.MethodPost, URL: c.base.URL(loginPath), StatusCode: status, Body: respBody}
	}

	var resp loginResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return models.Credential{}, &DecodeError{Path: loginPath, Err: err}
	}
	cred, err := parseCredential(resp.Token)
	if err != nil {
		return models.Credential{}, &DecodeError{Path: loginPath, Err: err}
	}

	c.logger.Debug("logged in", zap.Int64("expires_at", cred.ExpiresAt))
	if cred.ExpiresAt == 0 {
		c.logger.Warn("token carries no expiry, every request will log in again")
	}
	return cred, nil
}

// storeKey identifies the account on one API deployment.
func (c *ChargeAmpsClient) storeKey() string {
	return strings.ToLower(strings.TrimSpace(c.cfg.Email)) + "|" + c.base.baseURL
}

// loadCached adopts a still valid credential from the store. Store failures
// only cost a login.
func (c *ChargeAmpsClient) loadCached(ctx context.Context, now time.Time) (models.Credential, bool) {
	if c.store == nil {
		return models.Credential{}, false
	}
	cred, ok, err := c.store.Load(ctx, c.storeKey())
	if err != nil {
		c.logger.Warn("credential cache read failed", zap.Error(err))
		return models.Credential{}, false
	}
	if !ok || !cred.Valid(now) {
		return models.Credential{}, false
	}
	c.logger.Debug("using cached credential", zap.Int64("expires_at", cred.ExpiresAt))
	return cred, true
}

func (c *ChargeAmpsClient) saveCached(ctx context.Context, cred models.Credential) {
	if c.store == nil || !cred.Valid(c.now()) {
		return
	}
	if err := c.store.Save(ctx, c.storeKey(), cred); err != nil {
		c.logger.Warn("credential cache write failed", zap.Error(err))
	}
}

func chargePointPath(chargePointID, resource string) string {
	return fmt.Sprintf("/chargepoints/%s/%s", url.PathEscape(chargePointID), resource)
}

func settingsPath(chargePointID string, connectorID int) string {
	return fmt.Sprintf("/chargepoints/%s/connectors/%d/settings", url.PathEscape(chargePointID), connectorID)
}
