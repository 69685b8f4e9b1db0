// security.go provides Gin middleware that injects protective HTTP response
// headers. This service serves JSON only, never HTML, so the header set is a
// lockdown rather than an allowlist: a blanket deny CSP, no framing, no
// referrer leakage, and no caching of API responses that carry org-scoped
// risk data.
package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersConfig holds configuration for security headers
type SecurityHeadersConfig struct {
	// EnableHSTS enables HTTP Strict Transport Security
	EnableHSTS bool
	// HSTSMaxAge is the max-age value for HSTS in seconds
	HSTSMaxAge int
	// HSTSIncludeSubdomains includes subdomains in HSTS
	HSTSIncludeSubdomains bool
	// FrameOptionsValue is the X-Frame-Options value (DENY, SAMEORIGIN); empty disables
	FrameOptionsValue string
	// ContentSecurityPolicy is the CSP header value; empty disables
	ContentSecurityPolicy string
	// ReferrerPolicy is the Referrer-Policy header value; empty disables
	ReferrerPolicy string
	// DisableCaching sends Cache-Control: no-store on every response
	DisableCaching bool
}

// APISecurityHeadersConfig returns the header set used for all API responses.
// Responses carry vendor assessments and audit data, so caching is disabled
// outright rather than per route.
func APISecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,
		FrameOptionsValue:     "DENY",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
		DisableCaching:        true,
	}
}

// SecurityHeadersMiddleware adds security headers to all responses.
// X-Content-Type-Options is unconditional: a JSON API never wants MIME
// sniffing, least of all on evidence downloads.
func SecurityHeadersMiddleware(config SecurityHeadersConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")

		if config.EnableHSTS {
			hstsValue := "max-age=" + strconv.Itoa(config.HSTSMaxAge)
			if config.HSTSIncludeSubdomains {
				hstsValue += "; includeSubDomains"
			}
			c.Header("Strict-Transport-Security", hstsValue)
		}

		if config.FrameOptionsValue != "" {
			c.Header("X-Frame-Options", config.FrameOptionsValue)
		}

		if config.ContentSecurityPolicy != "" {
			c.Header("Content-Security-Policy", config.ContentSecurityPolicy)
		}

		if config.ReferrerPolicy != "" {
			c.Header("Referrer-Policy", config.ReferrerPolicy)
		}

		if config.DisableCaching {
			c.Header("Cache-Control", "no-store")
		}

		c.Next()
	}
}
