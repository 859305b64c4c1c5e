package gateway

import (
	"encoding/json"
	"strings"
)

// ProxyEnvelope is the caller-supplied description of one proxied call.
// It lives for a single orchestration pass and is never persisted.
type ProxyEnvelope struct {
	Service      string            `json:"service"`  // Target service name.
	Path         string            `json:"path"`     // Path resolved against the service base URL.
	Method       string            `json:"method"`   // HTTP verb, passed through uppercased.
	Headers      map[string]string `json:"headers"`  // Optional caller headers.
	Body         json.RawMessage   `json:"body"`     // Optional JSON body, forwarded verbatim.
	CredentialID string            `json:"apiKeyId"` // Credential to unwrap for the call.
}

// MissingFields returns the names of required fields that are empty.
func (e *ProxyEnvelope) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(e.Service) == "" {
		missing = append(missing, "service")
	}
	if strings.TrimSpace(e.Path) == "" {
		missing = append(missing, "path")
	}
	if strings.TrimSpace(e.Method) == "" {
		missing = append(missing, "method")
	}
	if strings.TrimSpace(e.CredentialID) == "" {
		missing = append(missing, "apiKeyId")
	}
	return missing
}
