package forecast

import (
    "context"
    "fmt"
    "time"

    xhttp "BrentPulse/pkg/http"
)

// HTTPServiceBase provides a DRY foundation for remote model clients.
// It centralizes client construction and JSON POST request handling.
type HTTPServiceBase struct {
    baseURL string
    client  *xhttp.Client
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL.
func NewHTTPServiceBase(baseURL string, timeout time.Duration) *HTTPServiceBase {
    if timeout <= 0 {
        timeout = 3 * time.Second
    }
    return &HTTPServiceBase{
        baseURL: baseURL,
        client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
    }
}

// PostJSON posts the given payload to `path` under baseURL and decodes JSON into dest.
// Failures are returned as-is; callers decide whether a failure is final.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
    if b.client == nil || b.baseURL == "" {
        return fmt.Errorf("model http client not initialized")
    }
    err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
        Method: xhttp.MethodPost,
        URL:    b.baseURL + path,
        Headers: map[string]string{
            "Content-Type": "application/json",
        },
        Body: payload,
    }, dest)
    if err != nil {
        return fmt.Errorf("post %s: %w", path, err)
    }
    return nil
}
