// Package auth is the API surface's capability middleware: it introspects a
// caller's opaque bearer token against an external OAuth introspection
// endpoint and caches the result in Redis.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/nextmu/updateservice/pkg/errs"
)

// Config is the subset of pkg/config.OpenIDConfig the authenticator needs.
type Config struct {
	IntrospectionURL string
	ClientID         string
	ClientSecret     string
	CacheTTLFloor    time.Duration
}

// Authenticator introspects bearer tokens and caches the verdict.
type Authenticator struct {
	cfg    Config
	client *http.Client
	rdb    *redis.Client
}

// introspectionResult mirrors RFC 7662's token introspection response,
// trimmed to the fields this service needs.
type introspectionResult struct {
	Active bool   `json:"active"`
	Scope  string `json:"scope"`
}

// New builds an Authenticator. The client-credentials flow gives this
// service its own bearer token for calling the introspection endpoint.
func New(cfg Config, rdb *redis.Client) *Authenticator {
	ccCfg := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.IntrospectionURL,
	}
	return &Authenticator{
		cfg:    cfg,
		client: ccCfg.Client(context.Background()),
		rdb:    rdb,
	}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "updates:auth:" + hex.EncodeToString(sum[:])
}

// Authenticate introspects token, consulting the cache first, and reports
// whether it is active and carries requiredCapability in its scope.
func (a *Authenticator) Authenticate(ctx context.Context, token, requiredCapability string) error {
	if token == "" {
		return errs.Auth("missing bearer token")
	}

	result, err := a.lookupCached(ctx, token)
	if err != nil {
		return err
	}
	if result == nil {
		result, err = a.introspect(ctx, token)
		if err != nil {
			return err
		}
		a.store(ctx, token, result)
	}

	if !result.Active {
		return errs.Auth("token is not active")
	}
	if requiredCapability != "" && !hasScope(result.Scope, requiredCapability) {
		return errs.Forbidden("missing capability " + requiredCapability)
	}
	return nil
}

func hasScope(scope, capability string) bool {
	for _, s := range strings.Fields(scope) {
		if s == capability {
			return true
		}
	}
	return false
}

func (a *Authenticator) lookupCached(ctx context.Context, token string) (*introspectionResult, error) {
	raw, err := a.rdb.Get(ctx, cacheKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Unavailable("auth", err)
	}
	var result introspectionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, nil
	}
	return &result, nil
}

func (a *Authenticator) introspect(ctx context.Context, token string) (*introspectionResult, error) {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.IntrospectionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "auth: build introspection request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errs.Unavailable("auth", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Unavailable("auth", errors.New("introspection endpoint returned non-200"))
	}

	var result introspectionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errs.Wrap(errs.Internal, "auth: decode introspection response", err)
	}
	return &result, nil
}

// store caches result with a TTL derived from the token's unverified `exp`
// claim, floored at cfg.CacheTTLFloor. The token is parsed without signature
// verification — verification is the introspection endpoint's job; this
// read is purely to size the cache entry.
func (a *Authenticator) store(ctx context.Context, token string, result *introspectionResult) {
	ttl := a.cfg.CacheTTLFloor
	if exp, ok := unverifiedExpiry(token); ok {
		if d := time.Until(exp); d > ttl {
			ttl = d
		}
	}
	if ttl <= 0 {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = a.rdb.Set(ctx, cacheKey(token), raw, ttl).Err()
}

func unverifiedExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
