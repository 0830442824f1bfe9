// Package analysis caches analysis artifacts and orchestrates their fetches.
//
// A Store is created once per session and shared by every consumer. It owns
// the keyed artifact cache, the current artifact of each kind, and the
// loading/error status consumers render from.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"novellens/internal/artifact"
	"novellens/internal/logging"
)

var tracer = otel.Tracer("novellens/analysis")

// ErrInvalidQuery is returned when the inputs needed to derive a cache key
// are missing.
var ErrInvalidQuery = errors.New("invalid query")

// Gateway fetches the raw response body for one artifact query.
type Gateway interface {
	Fetch(ctx context.Context, kind artifact.Kind, q artifact.Query) (json.RawMessage, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, kind artifact.Kind, q artifact.Query) (json.RawMessage, error)

// Fetch implements Gateway.
func (f GatewayFunc) Fetch(ctx context.Context, kind artifact.Kind, q artifact.Query) (json.RawMessage, error) {
	return f(ctx, kind, q)
}

// Status is the consumer-facing state of one artifact kind.
type Status struct {
	// Loading is true while at least one fetch for the kind is unresolved.
	Loading bool `json:"loading"`
	// Error is the user-facing message of the last failed fetch, or "".
	Error string `json:"error,omitempty"`
}

// Change is delivered to OnChange listeners after any state transition.
type Change struct {
	Kind    artifact.Kind
	Status  Status
	Current artifact.Artifact
}

// Store is the analysis cache and fetch orchestrator. It is safe for
// concurrent use.
type Store struct {
	gw       Gateway
	logger   *slog.Logger
	metrics  *metrics
	cached   map[artifact.Kind]bool
	coalesce bool
	flight   singleflight.Group

	mu         sync.Mutex
	cache      map[artifact.Key]artifact.Artifact
	current    map[artifact.Kind]artifact.Artifact
	inflight   map[artifact.Kind]int
	errs       map[artifact.Kind]string
	generation uint64
	listeners  map[int]func(Change)
	nextID     int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is logging.New("analysis").
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithCachedKinds selects the kinds whose results are kept in the keyed
// cache. Only the relationship graph is cached by default; other kinds keep
// just their last result.
func WithCachedKinds(kinds ...artifact.Kind) Option {
	return func(s *Store) {
		s.cached = make(map[artifact.Kind]bool, len(kinds))
		for _, k := range kinds {
			s.cached[k] = true
		}
	}
}

// WithCoalescing makes concurrent fetches of the same key share one gateway
// call. A forced refresh never joins a non-forced call.
func WithCoalescing(on bool) Option {
	return func(s *Store) { s.coalesce = on }
}

// WithRegisterer registers the store's Prometheus collectors on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Store) { s.metrics = newMetrics(reg) }
}

// NewStore returns an empty Store that fetches through gw.
func NewStore(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:        gw,
		cached:    map[artifact.Kind]bool{artifact.KindRelationshipGraph: true},
		cache:     make(map[artifact.Key]artifact.Artifact),
		current:   make(map[artifact.Kind]artifact.Artifact),
		inflight:  make(map[artifact.Kind]int),
		errs:      make(map[artifact.Kind]string),
		listeners: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.New("analysis")
	}
	if s.metrics == nil {
		s.metrics = newMetrics(nil)
	}
	return s
}

// Fetch returns the artifact for q, from the cache when possible.
//
// A non-forced query whose key is cached returns the cached artifact without
// touching error state. Otherwise the gateway is called; on success the
// normalized artifact replaces any cached entry for the key and becomes the
// current artifact of kind. On failure the cache is left untouched, the
// kind's error is set to UserMessage(err), and err is returned.
func (s *Store) Fetch(ctx context.Context, kind artifact.Kind, q artifact.Query) (artifact.Artifact, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("fetch: kind %q: %w", kind, ErrInvalidQuery)
	}
	if q.NovelID <= 0 {
		return nil, fmt.Errorf("fetch %s: novel_id: %w", kind, ErrInvalidQuery)
	}
	if name, id := requiredID(kind, q); name != "" && !artifact.Present(id) {
		return nil, fmt.Errorf("fetch %s: %s: %w", kind, name, ErrInvalidQuery)
	}
	key := artifact.KeyFor(kind, q)

	if !q.ForceRefresh {
		if a, ok := s.hit(kind, key); ok {
			s.logger.DebugContext(ctx, "cache hit", "kind", kind, "key", key)
			return a, nil
		}
	}
	s.metrics.misses.WithLabelValues(string(kind)).Inc()

	if !s.coalesce {
		return s.fetch(ctx, kind, key, q)
	}

	flightKey := string(key)
	if q.ForceRefresh {
		flightKey += "|force"
	}
	// The shared call must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(flightKey, func() (any, error) {
		return s.fetch(shared, kind, key, q)
	})
	select {
	case res := <-ch:
		if res.Shared {
			s.metrics.coalesced.WithLabelValues(string(kind)).Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(artifact.Artifact), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// requiredID names the entity id kind cannot be fetched without, if any.
func requiredID(kind artifact.Kind, q artifact.Query) (string, *int) {
	switch kind {
	case artifact.KindCharacterJourney:
		return "character_id", q.CharacterID
	case artifact.KindItemLineage:
		return "item_id", q.ItemID
	case artifact.KindLocationEvents:
		return "location_id", q.LocationID
	}
	return "", nil
}

// HasCachedEntry reports whether Fetch(kind, q) without force would be
// served from the cache. It has no side effects.
func (s *Store) HasCachedEntry(kind artifact.Kind, q artifact.Query) bool {
	key := artifact.KeyFor(kind, q)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache[key]
	return ok
}

// hit serves key from the cache and makes it the current artifact.
func (s *Store) hit(kind artifact.Kind, key artifact.Key) (artifact.Artifact, bool) {
	s.mu.Lock()
	a, ok := s.cache[key]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	s.current[kind] = a
	change := s.changeLocked(kind)
	s.mu.Unlock()

	s.metrics.hits.WithLabelValues(string(kind)).Inc()
	s.notify(change)
	return a, true
}

func (s *Store) fetch(ctx context.Context, kind artifact.Kind, key artifact.Key, q artifact.Query) (artifact.Artifact, error) {
	gen := s.begin(kind)

	ctx, span := tracer.Start(ctx, "analysis.fetch", trace.WithAttributes(
		attribute.String("artifact.kind", string(kind)),
		attribute.String("artifact.key", string(key)),
		attribute.Bool("artifact.force_refresh", q.ForceRefresh),
	))
	defer span.End()

	s.logger.InfoContext(ctx, "fetching artifact", "kind", kind, "key", key, "force", q.ForceRefresh)

	start := time.Now()
	raw, err := s.gw.Fetch(ctx, kind, q)
	var (
		a      artifact.Artifact
		filled []string
	)
	if err == nil {
		a, filled, err = artifact.Decode(kind, raw)
	}
	s.metrics.duration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorClass(err))
		s.metrics.errors.WithLabelValues(string(kind), errorClass(err)).Inc()
		s.logger.WarnContext(ctx, "fetch failed", "kind", kind, "key", key, "error", err)
		s.fail(kind, gen, err)
		return nil, err
	}
	if len(filled) > 0 {
		s.logger.DebugContext(ctx, "filled missing fields", "kind", kind, "fields", filled)
	}
	s.succeed(kind, key, gen, a)
	return a, nil
}

// begin marks the start of a fetch and returns the session generation it
// belongs to.
func (s *Store) begin(kind artifact.Kind) uint64 {
	s.mu.Lock()
	s.inflight[kind]++
	delete(s.errs, kind)
	gen := s.generation
	change := s.changeLocked(kind)
	s.mu.Unlock()

	s.notify(change)
	return gen
}

func (s *Store) succeed(kind artifact.Kind, key artifact.Key, gen uint64, a artifact.Artifact) {
	s.mu.Lock()
	if s.cached[kind] {
		s.cache[key] = a
	}
	// A fetch that outlived a reset still fills the cache, but must not
	// bring back state the reset cleared.
	if gen == s.generation {
		s.current[kind] = a
	}
	s.inflight[kind]--
	change := s.changeLocked(kind)
	s.mu.Unlock()

	s.notify(change)
}

func (s *Store) fail(kind artifact.Kind, gen uint64, err error) {
	s.mu.Lock()
	if gen == s.generation {
		s.errs[kind] = UserMessage(err)
		if artifact.IsMalformed(err) {
			delete(s.current, kind)
		}
	}
	s.inflight[kind]--
	change := s.changeLocked(kind)
	s.mu.Unlock()

	s.notify(change)
}

// ResetSession clears the current artifact and error of every kind. The
// keyed cache survives; use Purge to drop it as well.
func (s *Store) ResetSession() {
	s.reset(false)
}

// Purge resets the session and drops every cached entry. Use it when the
// source text changes or the user logs out.
func (s *Store) Purge() {
	s.reset(true)
}

func (s *Store) reset(dropCache bool) {
	s.mu.Lock()
	s.generation++
	clear(s.current)
	clear(s.errs)
	if dropCache {
		clear(s.cache)
	}
	changes := make([]Change, 0, len(artifact.Kinds()))
	for _, k := range artifact.Kinds() {
		changes = append(changes, s.changeLocked(k))
	}
	s.mu.Unlock()

	s.logger.Info("session reset", "cache_dropped", dropCache)
	for _, c := range changes {
		s.notify(c)
	}
}

// Status returns the loading/error state of kind.
func (s *Store) Status(kind artifact.Kind) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(kind)
}

// Current returns the artifact consumers of kind should display, or nil.
func (s *Store) Current(kind artifact.Kind) artifact.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[kind]
}

// CacheLen returns the number of cached entries.
func (s *Store) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// KindState is one kind's entry in a Snapshot.
type KindState struct {
	Status  Status            `json:"status"`
	Current artifact.Artifact `json:"current,omitempty"`
}

// Snapshot returns the state of every kind at one instant.
func (s *Store) Snapshot() map[artifact.Kind]KindState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[artifact.Kind]KindState, len(artifact.Kinds()))
	for _, k := range artifact.Kinds() {
		out[k] = KindState{Status: s.statusLocked(k), Current: s.current[k]}
	}
	return out
}

// OnChange registers fn to be called after every state transition. Calls
// happen synchronously on the goroutine that caused the change, outside the
// store lock. The returned function unregisters fn.
func (s *Store) OnChange(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) statusLocked(kind artifact.Kind) Status {
	return Status{Loading: s.inflight[kind] > 0, Error: s.errs[kind]}
}

func (s *Store) changeLocked(kind artifact.Kind) Change {
	return Change{Kind: kind, Status: s.statusLocked(kind), Current: s.current[kind]}
}

func (s *Store) notify(c Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
