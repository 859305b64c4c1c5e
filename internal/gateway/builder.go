package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mcpflow/mcpflow/internal/models"
)

// buildUpstreamRequest composes the outbound request for one proxied
// call. Caller headers are applied first; the service auth header is
// then overwritten with the unwrapped credential so a caller-supplied
// value for that header can never reach the upstream.
func buildUpstreamRequest(ctx context.Context, service *models.Service, envelope *ProxyEnvelope, plaintext string) (*http.Request, error) {
	base, errBase := url.Parse(service.BaseURL)
	if errBase != nil || !base.IsAbs() {
		return nil, fmt.Errorf("gateway: invalid service base url %q", service.BaseURL)
	}
	ref, errRef := url.Parse(envelope.Path)
	if errRef != nil {
		return nil, fmt.Errorf("gateway: invalid path %q: %w", envelope.Path, errRef)
	}
	target := base.ResolveReference(ref)

	method := strings.ToUpper(strings.TrimSpace(envelope.Method))

	var body *bytes.Reader
	if len(envelope.Body) > 0 {
		body = bytes.NewReader(envelope.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	req, errNew := http.NewRequestWithContext(ctx, method, target.String(), body)
	if errNew != nil {
		return nil, fmt.Errorf("gateway: build request: %w", errNew)
	}

	for name, value := range envelope.Headers {
		req.Header.Set(name, value)
	}
	if len(envelope.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(service.ResolvedAuthHeader(), "Bearer "+plaintext)

	return req, nil
}
