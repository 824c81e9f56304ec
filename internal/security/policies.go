// Package security provides the HTTP security policy applied to the
// playground host: response headers, a per-request CSP nonce for the page
// script, origin checks for cross-origin and WebSocket requests, and a
// sink for CSP violation reports.
//
// Sandbox documents are not covered here. They carry their own
// Content-Security-Policy set by the sandbox handler, which replaces the
// host policy on those responses.
package security

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/conneroisu/codeplay/internal/config"
	"github.com/conneroisu/codeplay/internal/errors"
	"github.com/conneroisu/codeplay/internal/logging"
)

// contextKey represents a context key type for type safety
type contextKey string

// nonceContextKey is used to store CSP nonce values in request context
const nonceContextKey contextKey = "csp_nonce"

// SecurityConfig holds the headers written on every host response.
type SecurityConfig struct {
	// CSP configures the Content-Security-Policy header. Nil disables it.
	CSP *CSPConfig
	// HSTS is only sent over TLS. Nil disables it.
	HSTS *HSTSConfig
	// XFrameOptions sets X-Frame-Options (DENY, SAMEORIGIN).
	XFrameOptions string
	// XContentTypeNoSniff enables X-Content-Type-Options: nosniff.
	XContentTypeNoSniff bool
	// ReferrerPolicy sets Referrer-Policy.
	ReferrerPolicy string
	// EnableNonce adds a per-request nonce to script-src.
	EnableNonce bool
	// Logger receives violation reports. Optional.
	Logger logging.Logger
}

// CSPConfig lists the sources allowed per directive.
type CSPConfig struct {
	DefaultSrc     []string
	ScriptSrc      []string
	StyleSrc       []string
	ImgSrc         []string
	ConnectSrc     []string
	FontSrc        []string
	ObjectSrc      []string
	FrameSrc       []string
	FrameAncestors []string
	BaseURI        []string
	FormAction     []string
	ReportURI      string

	UpgradeInsecureRequests bool
}

// HSTSConfig holds HTTP Strict Transport Security settings.
type HSTSConfig struct {
	MaxAge            int
	IncludeSubDomains bool
	Preload           bool
}

// DefaultSecurityConfig returns the policy for the host page. The page
// embeds same-origin sandbox frames and talks to /ws, so frame-src and
// connect-src must allow them.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		CSP: &CSPConfig{
			DefaultSrc:     []string{"'self'"},
			ScriptSrc:      []string{"'self'"},
			StyleSrc:       []string{"'self'", "'unsafe-inline'"},
			ImgSrc:         []string{"'self'", "data:"},
			ConnectSrc:     []string{"'self'", "ws:", "wss:"},
			FontSrc:        []string{"'self'"},
			ObjectSrc:      []string{"'none'"},
			FrameSrc:       []string{"'self'"},
			FrameAncestors: []string{"'self'"},
			BaseURI:        []string{"'self'"},
			FormAction:     []string{"'self'"},
			ReportURI:      "/api/csp-report",
		},
		HSTS: &HSTSConfig{
			MaxAge:            31536000,
			IncludeSubDomains: true,
		},
		XFrameOptions:       "SAMEORIGIN",
		XContentTypeNoSniff: true,
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		EnableNonce:         true,
	}
}

// DevelopmentSecurityConfig drops HSTS so plain-HTTP localhost works.
func DevelopmentSecurityConfig() *SecurityConfig {
	config := DefaultSecurityConfig()
	config.HSTS = nil
	return config
}

// ProductionSecurityConfig forbids mixed content and enables HSTS preload.
func ProductionSecurityConfig() *SecurityConfig {
	config := DefaultSecurityConfig()
	config.CSP.UpgradeInsecureRequests = true
	config.CSP.ConnectSrc = []string{"'self'", "wss:"}
	config.HSTS.Preload = true
	return config
}

// SecurityConfigFromAppConfig picks the policy for the configured environment.
func SecurityConfigFromAppConfig(cfg *config.Config, logger logging.Logger) *SecurityConfig {
	var sc *SecurityConfig
	if cfg != nil && cfg.Server.IsProduction() {
		sc = ProductionSecurityConfig()
	} else {
		sc = DevelopmentSecurityConfig()
	}
	sc.Logger = logger
	return sc
}

func generateNonce() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(bytes), nil
}

// GetNonceFromContext retrieves the CSP nonce from the request context
func GetNonceFromContext(ctx context.Context) string {
	if nonce, ok := ctx.Value(nonceContextKey).(string); ok {
		return nonce
	}
	return ""
}

// WithNonce stores nonce in ctx.
func WithNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, nonceContextKey, nonce)
}

// CSPViolationReport represents a CSP violation report
type CSPViolationReport struct {
	CSPReport struct {
		DocumentURI       string `json:"document-uri"`
		ViolatedDirective string `json:"violated-directive"`
		BlockedURI        string `json:"blocked-uri"`
		SourceFile        string `json:"source-file"`
		LineNumber        int    `json:"line-number"`
	} `json:"csp-report"`
}

// CSPViolationHandler logs CSP violation reports.
func CSPViolationHandler(logger logging.Logger) http.HandlerFunc {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var report CSPViolationReport
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&report); err != nil {
			logger.Warn(r.Context(),
				errors.NewValidationError("CSP_REPORT_PARSE_ERROR", "Failed to parse CSP violation report"),
				"CSP: Failed to parse violation report",
				"error", err.Error(),
				"ip", ClientIP(r))
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		logger.Warn(r.Context(), nil, "CSP: Policy violation detected",
			"document_uri", report.CSPReport.DocumentURI,
			"violated_directive", report.CSPReport.ViolatedDirective,
			"blocked_uri", report.CSPReport.BlockedURI,
			"source_file", report.CSPReport.SourceFile,
			"line_number", report.CSPReport.LineNumber,
			"ip", ClientIP(r))

		w.WriteHeader(http.StatusNoContent)
	}
}

// SecurityMiddleware writes the configured headers and stores a fresh nonce
// in the request context when nonces are enabled.
func SecurityMiddleware(secConfig *SecurityConfig) func(http.Handler) http.Handler {
	if secConfig == nil {
		secConfig = DefaultSecurityConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var nonce string
			if secConfig.EnableNonce {
				n, err := generateNonce()
				if err != nil {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				nonce = n
				r = r.WithContext(WithNonce(r.Context(), nonce))
			}

			applySecurityHeaders(w, r, secConfig, nonce)
			next.ServeHTTP(w, r)
		})
	}
}

func applySecurityHeaders(w http.ResponseWriter, r *http.Request, config *SecurityConfig, nonce string) {
	h := w.Header()

	if config.CSP != nil {
		h.Set("Content-Security-Policy", buildCSPHeader(config.CSP, nonce))
	}
	if config.HSTS != nil && r.TLS != nil {
		h.Set("Strict-Transport-Security", buildHSTSHeader(config.HSTS))
	}
	if config.XFrameOptions != "" {
		h.Set("X-Frame-Options", config.XFrameOptions)
	}
	if config.XContentTypeNoSniff {
		h.Set("X-Content-Type-Options", "nosniff")
	}
	if config.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", config.ReferrerPolicy)
	}
	h.Set("X-Permitted-Cross-Domain-Policies", "none")
}

func buildCSPHeader(csp *CSPConfig, nonce string) string {
	var directives []string

	addDirective := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, name+" "+strings.Join(values, " "))
		}
	}

	scriptSrc := csp.ScriptSrc
	if nonce != "" {
		scriptSrc = append(append([]string{}, scriptSrc...), "'nonce-"+nonce+"'")
	}

	addDirective("default-src", csp.DefaultSrc)
	addDirective("script-src", scriptSrc)
	addDirective("style-src", csp.StyleSrc)
	addDirective("img-src", csp.ImgSrc)
	addDirective("connect-src", csp.ConnectSrc)
	addDirective("font-src", csp.FontSrc)
	addDirective("object-src", csp.ObjectSrc)
	addDirective("frame-src", csp.FrameSrc)
	addDirective("frame-ancestors", csp.FrameAncestors)
	addDirective("base-uri", csp.BaseURI)
	addDirective("form-action", csp.FormAction)

	if csp.UpgradeInsecureRequests {
		directives = append(directives, "upgrade-insecure-requests")
	}
	if csp.ReportURI != "" {
		directives = append(directives, "report-uri "+csp.ReportURI)
	}

	return strings.Join(directives, "; ")
}

func buildHSTSHeader(hsts *HSTSConfig) string {
	header := fmt.Sprintf("max-age=%d", hsts.MaxAge)
	if hsts.IncludeSubDomains {
		header += "; includeSubDomains"
	}
	if hsts.Preload {
		header += "; preload"
	}
	return header
}

// ClientIP returns the host of the connection's peer. Proxy headers are
// ignored; use ProxyList.ClientIP to honor them behind a trusted proxy.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ProxyList holds the reverse proxies whose forwarding headers are believed.
// A nil or empty list believes none.
type ProxyList struct {
	nets []*net.IPNet
}

// NewProxyList parses entries given as IP addresses or CIDR ranges.
func NewProxyList(entries []string) (*ProxyList, error) {
	p := &ProxyList{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid proxy address %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			p.nets = append(p.nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipnet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy range %q: %w", entry, err)
		}
		p.nets = append(p.nets, ipnet)
	}
	return p, nil
}

// Trusts reports whether addr is one of the proxies.
func (p *ProxyList) Trusts(addr string) bool {
	if p == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range p.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the address a request came from. X-Forwarded-For and
// X-Real-IP are only read when the peer is a trusted proxy; the forwarded
// chain is walked from the right, skipping trusted hops.
func (p *ProxyList) ClientIP(r *http.Request) string {
	peer := ClientIP(r)
	if !p.Trusts(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				return peer
			}
			if !p.Trusts(hop) || i == 0 {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return peer
}
