package ports

import "net/http"

// HTTPClient executes requests against the receiver.
// *http.Client satisfies it; tests inject clients that record or fail requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
