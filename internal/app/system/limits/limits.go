// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON endpoints.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxOrgRequestSize bounds /org request bodies. Payloads are a few short strings.
	MaxOrgRequestSize = 64 << 10 // 64 KB

	// MaxLoginRequestSize bounds /admin/login request bodies.
	MaxLoginRequestSize = 16 << 10 // 16 KB
)
