package network

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"signalscan/src/logger"
	"signalscan/src/models"
)

// -----------------------------------------------------------------------------

// Manager performs HTTP GET requests with bounded retries. All pull-based
// feeds share one Manager so timeout and user-agent policy live in one place.
type Manager struct {
	Config *models.Config
	Client *http.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewManager(cfg *models.Config, log *logger.Logger) *Manager {
	return &Manager{
		Config: cfg,
		Logger: log,
		Client: &http.Client{
			Timeout: time.Duration(cfg.Network.RequestTimeout) * time.Second,
		},
	}
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries.
func (m *Manager) Get(urlStr string, params map[string]string) ([]byte, error) {
	return m.GetWithHeaders(urlStr, params, nil)
}

// -----------------------------------------------------------------------------

// GetWithHeaders performs a GET request with extra headers and retries.
func (m *Manager) GetWithHeaders(urlStr string, params map[string]string, headers map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()

	var lastErr error
	retries := m.Config.Network.MaxRetries
	if retries < 1 {
		retries = 1
	}

	for attempt := 0; attempt < retries; attempt++ {
		body, err := m.doGet(reqURL.String(), headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		m.Logger.Debug("GET %s attempt %d/%d failed: %v", reqURL.Host, attempt+1, retries, err)
		time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
	}

	return nil, lastErr
}

// -----------------------------------------------------------------------------

// Post performs a bodyless POST request, used for session handshakes.
func (m *Manager) Post(urlStr string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, urlStr, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", m.Config.Network.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, urlStr)
	}

	return io.ReadAll(resp.Body)
}

// -----------------------------------------------------------------------------

func (m *Manager) doGet(urlStr string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", m.Config.Network.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, urlStr)
	}

	return io.ReadAll(resp.Body)
}
