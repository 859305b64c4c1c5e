// Package gateway implements the credential-protected request proxy:
// it authenticates a caller, resolves an owner-scoped credential and a
// named service definition, unwraps the credential for the duration of
// one outbound call, issues that call, and records a usage row.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mcpflow/mcpflow/internal/config"
	"github.com/mcpflow/mcpflow/internal/kms"
	"github.com/mcpflow/mcpflow/internal/ratelimit"
	"github.com/mcpflow/mcpflow/internal/security"
	"github.com/mcpflow/mcpflow/internal/store"
	"github.com/mcpflow/mcpflow/internal/usage"
	log "github.com/sirupsen/logrus"
)

// RateLimiter gates proxied calls per principal.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int) (ratelimit.Result, error)
}

// Handler orchestrates proxied calls. All collaborators are injected;
// the handler holds no per-request state.
type Handler struct {
	jwtCfg      config.JWTConfig
	users       *store.UserStore
	credentials *store.CredentialStore
	services    *store.ServiceStore
	sealer      kms.Service
	client      *http.Client
	recorder    *usage.Recorder
	limiter     RateLimiter
	rateLimit   int
}

// NewHandler constructs a gateway Handler.
func NewHandler(
	jwtCfg config.JWTConfig,
	users *store.UserStore,
	credentials *store.CredentialStore,
	services *store.ServiceStore,
	sealer kms.Service,
	client *http.Client,
	recorder *usage.Recorder,
	limiter RateLimiter,
	rateLimit int,
) *Handler {
	if client == nil {
		client = http.DefaultClient
	}
	return &Handler{
		jwtCfg:      jwtCfg,
		users:       users,
		credentials: credentials,
		services:    services,
		sealer:      sealer,
		client:      client,
		recorder:    recorder,
		limiter:     limiter,
		rateLimit:   rateLimit,
	}
}

// authenticate validates the bearer session token and checks the
// principal is still active before anything else touches the store.
// A signed token alone is not enough: disabling an account must cut
// off the gateway immediately, not at token expiry.
func (h *Handler) authenticate(c *gin.Context) (*security.SessionClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
		return nil, false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	claims, errParse := security.ParseToken(h.jwtCfg.Secret, token)
	if errParse != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return nil, false
	}
	if _, errUser := h.users.FetchActive(c.Request.Context(), claims.UserID); errUser != nil {
		if !errors.Is(errUser, store.ErrNotFound) {
			log.WithError(errUser).Error("gateway: user lookup failed")
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return nil, false
	}
	return claims, true
}

// Proxy handles POST /v1/mcp: one proxied call end to end.
func (h *Handler) Proxy(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}

	if h.limiter != nil && h.rateLimit > 0 {
		key := strconv.FormatUint(claims.UserID, 10)
		result, errAllow := h.limiter.Allow(c.Request.Context(), key, h.rateLimit)
		if errAllow != nil {
			// Fail open, but never silently.
			log.WithError(errAllow).Warn("gateway: rate limit check failed")
		} else if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
	}

	var envelope ProxyEnvelope
	if errBind := c.ShouldBindJSON(&envelope); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if missing := envelope.MissingFields(); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}

	ctx := c.Request.Context()

	credential, errCredential := h.credentials.FetchForOwner(ctx, envelope.CredentialID, claims.UserID)
	if errCredential != nil {
		if errors.Is(errCredential, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "API key not found or access denied"})
			return
		}
		log.WithError(errCredential).Error("gateway: credential lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "MCP request failed"})
		return
	}

	requestedService := strings.ToLower(strings.TrimSpace(envelope.Service))
	if credential.Service != requestedService {
		c.JSON(http.StatusBadRequest, gin.H{"error": "API key does not match requested service"})
		return
	}

	service, errService := h.services.FetchByName(ctx, requestedService)
	if errService != nil {
		if errors.Is(errService, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service configuration not found"})
			return
		}
		log.WithError(errService).Error("gateway: service lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "MCP request failed"})
		return
	}

	plaintext, errUnwrap := h.sealer.Open(ctx, credential.EncryptedKey)
	if errUnwrap != nil {
		detail := "unwrap failed"
		if errors.Is(errUnwrap, kms.ErrPermissionDenied) {
			detail = "permission denied"
		}
		log.WithError(errUnwrap).WithField("credential_id", credential.ID).
			Error("gateway: secret unwrap failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "MCP request failed", "details": detail})
		return
	}

	req, errBuild := buildUpstreamRequest(ctx, service, &envelope, string(plaintext))
	if errBuild != nil {
		log.WithError(errBuild).Error("gateway: build upstream request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "MCP request failed", "details": "invalid upstream request"})
		return
	}

	entry := usage.Entry{
		UserID:         claims.UserID,
		CredentialID:   credential.ID,
		Service:        requestedService,
		Path:           envelope.Path,
		Method:         strings.ToUpper(strings.TrimSpace(envelope.Method)),
		RequestHeaders: envelope.Headers,
		RequestedAt:    time.Now().UTC(),
	}

	start := time.Now()
	resp, errDo := h.client.Do(req)
	entry.Duration = time.Since(start)

	if errDo != nil {
		h.record(entry)
		log.WithError(errDo).WithField("service", requestedService).
			Warn("gateway: upstream call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "MCP request failed", "details": "upstream request failed"})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	responseHeaders := flattenHeaders(resp.Header)
	entry.StatusCode = resp.StatusCode
	entry.ResponseHeaders = responseHeaders

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		h.record(entry)
		log.WithError(errRead).Warn("gateway: read upstream response failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "MCP request failed", "details": "upstream response unreadable"})
		return
	}

	h.record(entry)

	// The proxied outcome is authoritative from here on: the gateway
	// mirrors the upstream status and body verbatim.
	var data any
	if errUnmarshal := json.Unmarshal(body, &data); errUnmarshal != nil {
		data = string(body)
	}
	c.JSON(resp.StatusCode, gin.H{
		"status":  resp.StatusCode,
		"headers": responseHeaders,
		"data":    data,
	})
}

// record appends the usage row when a recorder is configured.
func (h *Handler) record(entry usage.Entry) {
	if h.recorder != nil {
		h.recorder.Record(entry)
	}
}

// flattenHeaders collapses multi-valued headers into comma-joined values.
func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for name, values := range header {
		out[name] = strings.Join(values, ", ")
	}
	return out
}
