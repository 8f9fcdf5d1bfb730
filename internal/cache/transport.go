// Package cache makes outbound provider calls idempotent and cheap to
// repeat. It wraps an http.RoundTripper with a read-through response
// cache backed by a shared out-of-process store, so multiple process
// instances share cache state. Every failure mode is fail-open: a broken
// store degrades to a cache miss, never to a failed request.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/davidbz/waypost/internal/domain"
	"github.com/davidbz/waypost/internal/observability"
)

const (
	// HeaderCacheStatus marks a response as served from cache or origin.
	HeaderCacheStatus = "X-Waypost-Cache"

	// HeaderBodyHash carries a content hash of the request body, injected
	// by the caller as a side channel before the transport inspects the
	// request. It never reaches the remote server.
	HeaderBodyHash = "X-Waypost-Body-Hash"

	// StatusHit and StatusMiss are the values of HeaderCacheStatus.
	StatusHit  = "hit"
	StatusMiss = "miss"

	keyPrefix = "response-cache."
)

// Keyer derives the cache key for a request. Two logically identical
// requests must always derive the same key.
type Keyer func(req *http.Request) string

// DefaultKeyer keys on method + URL, extended with the body-hash side
// channel when present so distinct POST payloads to the same endpoint do
// not collide.
func DefaultKeyer(req *http.Request) string {
	key := keyPrefix + req.Method + " " + req.URL.String()
	if hash := req.Header.Get(HeaderBodyHash); hash != "" {
		key += " " + hash
	}
	return key
}

// HashBody computes the content hash used by the body-hash side channel.
func HashBody(body []byte) string {
	return strconv.FormatUint(xxhash.Sum64(body), 16)
}

// entry is the serialized form of a cached response together with the
// freshness policy evaluated at write time. Entries are never mutated in
// place, only replaced.
type entry struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	Policy     policy      `json:"policy"`
}

// policy is the freshness decision for one stored response. It is
// evaluated once against the original response headers and stored
// alongside the payload, so re-checks at read time are deterministic.
type policy struct {
	StoredAt time.Time `json:"stored_at"`
	TTL      int64     `json:"ttl_seconds"`
}

func (p policy) fresh(now time.Time) bool {
	return now.Before(p.StoredAt.Add(time.Duration(p.TTL) * time.Second))
}

// Transport is a caching http.RoundTripper.
type Transport struct {
	store      domain.Store
	inner      http.RoundTripper
	keyer      Keyer
	defaultTTL time.Duration
	now        func() time.Time
}

// Option configures a Transport.
type Option func(*Transport)

// WithKeyer overrides the key derivation function.
func WithKeyer(keyer Keyer) Option {
	return func(t *Transport) { t.keyer = keyer }
}

// WithInner overrides the underlying round tripper.
func WithInner(inner http.RoundTripper) Option {
	return func(t *Transport) { t.inner = inner }
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(t *Transport) { t.now = now }
}

// NewTransport creates a caching round tripper over the given store.
// defaultTTL applies to responses that carry no usable caching headers.
func NewTransport(store domain.Store, defaultTTL time.Duration, opts ...Option) *Transport {
	t := &Transport{
		store:      store,
		inner:      http.DefaultTransport,
		keyer:      DefaultKeyer,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Client returns an http.Client using this transport with the given
// per-request timeout.
func (t *Transport) Client(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: t,
		Timeout:   timeout,
	}
}

// RoundTrip serves the request from the cache when a fresh entry exists,
// otherwise forwards it to the inner transport and stores the result.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := t.keyer(req)

	// The side channel must not leak to the remote server.
	req.Header.Del(HeaderBodyHash)

	if resp, ok := t.lookup(req, key); ok {
		return resp, nil
	}

	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	resp.Header.Set(HeaderCacheStatus, StatusMiss)

	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	t.put(req, key, resp, body)

	return resp, nil
}

func (t *Transport) lookup(req *http.Request, key string) (*http.Response, bool) {
	logger := observability.FromContext(req.Context())

	raw, err := t.store.Get(req.Context(), key)
	if err != nil {
		if err != domain.ErrCacheMiss {
			logger.Error("cache store get failed", observability.Error(err))
		}
		return nil, false
	}

	var ent entry
	if err := json.Unmarshal(raw, &ent); err != nil {
		logger.Error("undecodable cache entry, treating as miss", observability.Error(err))
		return nil, false
	}

	if !ent.Policy.fresh(t.now()) {
		return nil, false
	}

	header := ent.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set(HeaderCacheStatus, StatusHit)

	return &http.Response{
		StatusCode: ent.StatusCode,
		Status:     http.StatusText(ent.StatusCode),
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(ent.Body)),
		Request:    req,
	}, true
}

// put serializes and writes the response. Store errors are logged but do
// not fail the surrounding request.
func (t *Transport) put(req *http.Request, key string, resp *http.Response, body []byte) {
	logger := observability.FromContext(req.Context())

	ttl := t.freshnessTTL(resp)
	if ttl <= 0 {
		return
	}

	ent := entry{
		StatusCode: resp.StatusCode,
		Header:     stripTransientHeaders(resp.Header),
		Body:       body,
		Policy: policy{
			StoredAt: t.now(),
			TTL:      int64(ttl / time.Second),
		},
	}

	raw, err := json.Marshal(ent)
	if err != nil {
		logger.Error("failed to serialize cache entry", observability.Error(err))
		return
	}

	if err := t.store.Set(req.Context(), key, raw, ttl); err != nil {
		logger.Error("cache store set failed", observability.Error(err))
	}
}

// Invalidate removes the cached entry for a request, fail-open.
func (t *Transport) Invalidate(req *http.Request) {
	if err := t.store.Del(req.Context(), t.keyer(req)); err != nil {
		observability.FromContext(req.Context()).
			Error("cache store del failed", observability.Error(err))
	}
}

// freshnessTTL evaluates the response's caching headers once, at write
// time. Cache-Control max-age wins over Expires; no-store and no-cache
// disable storage; everything else falls back to the default TTL.
func (t *Transport) freshnessTTL(resp *http.Response) time.Duration {
	cc := resp.Header.Get("Cache-Control")
	for _, directive := range strings.Split(cc, ",") {
		directive = strings.TrimSpace(directive)
		switch {
		case directive == "no-store" || directive == "no-cache":
			return 0
		case strings.HasPrefix(directive, "max-age="):
			secs, err := strconv.ParseInt(strings.TrimPrefix(directive, "max-age="), 10, 64)
			if err != nil || secs <= 0 {
				return 0
			}
			return time.Duration(secs) * time.Second
		}
	}

	if expires := resp.Header.Get("Expires"); expires != "" {
		if at, err := http.ParseTime(expires); err == nil {
			if ttl := at.Sub(t.now()); ttl > 0 {
				return ttl
			}
			return 0
		}
	}

	return t.defaultTTL
}

func stripTransientHeaders(header http.Header) http.Header {
	cloned := header.Clone()
	if cloned == nil {
		cloned = make(http.Header)
	}
	cloned.Del(HeaderCacheStatus)
	cloned.Del("Connection")
	cloned.Del("Keep-Alive")
	cloned.Del("Transfer-Encoding")
	return cloned
}

// Source reports where a response came from, for the per-provider
// cached/fetched counters.
func Source(resp *http.Response) string {
	if resp.Header.Get(HeaderCacheStatus) == StatusHit {
		return "cache"
	}
	return "remote"
}
