package interfaces

// -----------------------------------------------------------------------------
// NetworkManager defines the contract for HTTP requests with retry logic.
// -----------------------------------------------------------------------------

type NetworkManager interface {

	// Get performs a GET request to the specified URL with query parameters.
	Get(url string, params map[string]string) ([]byte, error)

	// -----------------------------------------------------------------------------

	// GetWithHeaders performs a GET request with additional request headers,
	// for feeds that require auth tokens or a browser user agent.
	GetWithHeaders(url string, params map[string]string, headers map[string]string) ([]byte, error)

	// -----------------------------------------------------------------------------

	// Post performs a bodyless POST, used for session handshakes.
	Post(url string, headers map[string]string) ([]byte, error)
}
