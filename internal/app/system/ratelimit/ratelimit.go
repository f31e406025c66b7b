// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// pruneEvery is how often idle keys are swept out of a keyed limiter.
const pruneEvery = 5 * time.Minute

// limiterPair pairs a token bucket with a log sampler so a key that keeps
// hitting its limit is logged a few times and then only periodically.
type limiterPair struct {
	limiter   *rate.Limiter
	sometimes *rate.Sometimes
}

// Keyed holds one token bucket per key (client IP, email). It is safe for
// concurrent use.
type Keyed struct {
	mu        sync.Mutex
	pairs     map[string]*limiterPair
	limit     rate.Limit
	burst     int
	lastPrune time.Time
}

// NewKeyed allows burst events per key, refilled at limit.
func NewKeyed(limit rate.Limit, burst int) *Keyed {
	return &Keyed{
		pairs:     make(map[string]*limiterPair),
		limit:     limit,
		burst:     burst,
		lastPrune: time.Now(),
	}
}

func (k *Keyed) pair(key string) *limiterPair {
	k.mu.Lock()
	defer k.mu.Unlock()

	if time.Since(k.lastPrune) > pruneEvery {
		k.pruneLocked()
	}
	p, ok := k.pairs[key]
	if !ok {
		p = &limiterPair{
			limiter:   rate.NewLimiter(k.limit, k.burst),
			sometimes: &rate.Sometimes{First: 5, Interval: time.Minute},
		}
		k.pairs[key] = p
	}
	return p
}

// pruneLocked drops keys whose buckets have refilled; they carry no state.
func (k *Keyed) pruneLocked() {
	for key, p := range k.pairs {
		if p.limiter.Tokens() >= float64(k.burst) {
			delete(k.pairs, key)
		}
	}
	k.lastPrune = time.Now()
}

// Allow consumes one token for key.
func (k *Keyed) Allow(key string) bool {
	return k.pair(key).limiter.Allow()
}

// Reset forgets key.
func (k *Keyed) Reset(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.pairs, key)
}

// ClientIP returns the host part of r.RemoteAddr. Put chi's
// middleware.RealIP in front when running behind a trusted proxy.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// Config sets the credential-check limits. A zero rate disables that check.
type Config struct {
	IPPerMinute     int // attempts per client IP per minute
	EmailPer5Minute int // attempts per email per five minutes
}

// DefaultConfig allows 10 attempts per IP per minute and 5 per email per 5 minutes.
var DefaultConfig = Config{IPPerMinute: 10, EmailPer5Minute: 5}

// LoginLimiter throttles endpoints that check a password. It tracks both
// IP-based and email-based limits to slow distributed guessing as well as
// attacks on one account.
type LoginLimiter struct {
	ip    *Keyed
	email *Keyed
	log   *zap.Logger
}

// NewLoginLimiter builds a LoginLimiter from cfg.
func NewLoginLimiter(cfg Config, logger *zap.Logger) *LoginLimiter {
	ll := &LoginLimiter{log: logger}
	if cfg.IPPerMinute > 0 {
		ll.ip = NewKeyed(rate.Every(time.Minute/time.Duration(cfg.IPPerMinute)), cfg.IPPerMinute)
	}
	if cfg.EmailPer5Minute > 0 {
		ll.email = NewKeyed(rate.Every(5*time.Minute/time.Duration(cfg.EmailPer5Minute)), cfg.EmailPer5Minute)
	}
	return ll
}

// Check reports whether a credential attempt should proceed. When it
// should not, reason is a client-facing explanation.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if ll == nil {
		return true, ""
	}
	if ll.ip != nil {
		ip := ClientIP(r)
		p := ll.ip.pair(ip)
		if !p.limiter.Allow() {
			p.sometimes.Do(func() {
				ll.log.Warn("credential attempts rate limited", zap.String("ip", ip), zap.String("path", r.URL.Path))
			})
			return false, "Too many login attempts. Please wait a minute before trying again."
		}
	}
	if ll.email != nil && email != "" {
		key := strings.ToLower(strings.TrimSpace(email))
		p := ll.email.pair(key)
		if !p.limiter.Allow() {
			p.sometimes.Do(func() {
				ll.log.Warn("credential attempts rate limited for account", zap.String("email", key))
			})
			return false, "Too many login attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetEmail clears the email limit after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if ll == nil || ll.email == nil || email == "" {
		return
	}
	ll.email.Reset(strings.ToLower(strings.TrimSpace(email)))
}
