// Package resolver implements the session-scoped resolution context.
//
// A [Context] owns an ordered list of locaters and a cache mapping resolved
// keys to schema nodes. References declared by a loading document are
// resolved recursively through the same Context, which is what collapses
// diamond-shaped dependency graphs onto shared node instances: within one
// Context, two successful resolutions of the same resolved key always return
// the identical pointer.
//
// A Context is a single-owner resource with an explicit lifecycle: created
// empty with [NewContext], populated lazily on demand, discarded by the
// caller. It is not meant to be shared across independent resolution
// sessions.
package resolver

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/structkit/schemaloc/pkg/errors"
	"github.com/structkit/schemaloc/pkg/locater"
	"github.com/structkit/schemaloc/pkg/observability"
	"github.com/structkit/schemaloc/pkg/schema"
)

// Options configures resolution behavior.
type Options struct {
	Logger func(string, ...any) // Progress/debug callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Result carries the outcome of a non-blocking GetSchema call.
type Result struct {
	Schema *schema.Schema
	Found  bool
	Err    error
}

// Context is a session-scoped schema cache and resolution orchestrator.
type Context struct {
	id   string
	opts Options

	mu       sync.Mutex
	locaters []locater.Locater
	cache    map[string]*schema.Schema // resolved CacheKey -> node
	byName   map[string][]schema.Key   // normalized name -> cached resolved keys
}

// NewContext creates an empty resolution context.
func NewContext(opts Options) *Context {
	return &Context{
		id:     uuid.NewString(),
		opts:   opts.WithDefaults(),
		cache:  make(map[string]*schema.Schema),
		byName: make(map[string][]schema.Key),
	}
}

// ID returns the context's session identifier, useful for log correlation.
func (c *Context) ID() string { return c.id }

// AddLocater appends a locater to the ordered registry. Registration order
// determines precedence: the first locater producing a successful load wins,
// and locaters are never merged or compared against each other.
func (c *Context) AddLocater(l locater.Locater) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locaters = append(c.locaters, l)
}

// AddSchema inserts an already-built schema under its resolved key, making
// it resolvable without any locater. Returns an error if a different node is
// already cached for the same resolved key.
func (c *Context) AddSchema(s *schema.Schema) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidKey, "cannot add nil schema")
	}
	if err := errors.ValidateSchemaName(s.Key.Name); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ck := s.Key.CacheKey()
	if existing, ok := c.cache[ck]; ok {
		if existing == s {
			return nil
		}
		return errors.New(errors.ErrCodeInvalidKey, "schema %s already cached", s.Key)
	}
	c.insertLocked(ck, s)
	return nil
}

// SchemaCount returns the number of cached resolved schemas.
func (c *Context) SchemaCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// CachedKeys returns the resolved keys currently cached, sorted by their
// canonical form.
func (c *Context) CachedKeys() []schema.Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]schema.Key, 0, len(c.cache))
	for _, s := range c.cache {
		keys = append(keys, s.Key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CacheKey() < keys[j].CacheKey()
	})
	return keys
}

// GetSchema resolves the requested key under the match type. The boolean
// result is false when no candidate exists anywhere (a soft miss, not an
// error). Malformed documents and unresolvable references surface as typed
// errors, and no partial node is cached for a failed attempt.
func (c *Context) GetSchema(ctx context.Context, key schema.Key, mt schema.MatchType) (*schema.Schema, bool, error) {
	if err := errors.ValidateSchemaName(key.Name); err != nil {
		return nil, false, err
	}

	st := resolutionFrom(ctx)
	if st == nil {
		st = &resolution{visiting: make(map[string]bool)}
		ctx = withResolution(ctx, st)

		observability.Resolution().OnResolveStart(ctx, key.Name, key.Version.String())
		start := time.Now()
		s, ok, err := c.getSchema(ctx, st, key, mt)
		observability.Resolution().OnResolveComplete(ctx, key.Name, key.Version.String(), time.Since(start), err)
		return s, ok, err
	}

	return c.getSchema(ctx, st, key, mt)
}

// GetSchemaAsync is the non-blocking form of GetSchema with identical
// outcomes. The returned channel delivers exactly one result.
func (c *Context) GetSchemaAsync(ctx context.Context, key schema.Key, mt schema.MatchType) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		s, ok, err := c.GetSchema(ctx, key, mt)
		out <- Result{Schema: s, Found: ok, Err: err}
	}()
	return out
}

func (c *Context) getSchema(ctx context.Context, st *resolution, key schema.Key, mt schema.MatchType) (*schema.Schema, bool, error) {
	// Candidate versions are the union of what is already cached for the
	// name and what the first matching locater can discover. If the winning
	// version is already cached the node is returned without a re-parse.
	cached := c.cachedKeysFor(key)

	loc, locKey, err := c.resolveViaLocaters(ctx, key, mt)
	if err != nil {
		return nil, false, err
	}

	union := make([]schema.Version, 0, len(cached)+1)
	for _, k := range cached {
		union = append(union, k.Version)
	}
	if loc != nil {
		union = append(union, locKey.Version)
	}

	winner, ok := schema.Match(key, mt, union)
	if !ok {
		return nil, false, nil
	}

	winnerKey := schema.Key{Name: key.Name, Version: winner}
	if loc != nil && locKey.Version == winner {
		winnerKey = locKey
	}
	if node := c.lookup(winnerKey); node != nil {
		c.opts.Logger("cache hit: %s", node.Key)
		observability.Cache().OnCacheHit(ctx, winnerKey.CacheKey())
		return node, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, winnerKey.CacheKey())

	// The winner is not cached, so it must have come from the locater.
	if loc == nil {
		return nil, false, nil
	}

	ck := locKey.CacheKey()
	if st.visiting[ck] {
		return nil, false, errors.New(errors.ErrCodeReferenceCycle,
			"cyclic reference involving schema %s", locKey)
	}
	st.visiting[ck] = true
	defer delete(st.visiting, ck)

	c.opts.Logger("loading %s (requested %s, %s)", locKey, key, mt)
	node, found, err := loc.Load(ctx, key, mt, c)
	if err != nil || !found {
		return nil, false, err
	}

	committed := c.commit(node)
	if committed == node {
		observability.Cache().OnCacheSet(ctx, committed.Key.CacheKey())
	}
	return committed, true, nil
}

// resolveViaLocaters queries each registered locater in order and returns
// the first one reporting a satisfying candidate. Later locaters are never
// consulted once one matches.
func (c *Context) resolveViaLocaters(ctx context.Context, key schema.Key, mt schema.MatchType) (locater.Locater, schema.Key, error) {
	for _, l := range c.snapshotLocaters() {
		resolved, ok, err := l.ResolveKey(ctx, key, mt)
		if err != nil {
			return nil, schema.Key{}, err
		}
		if ok {
			return l, resolved, nil
		}
	}
	return nil, schema.Key{}, nil
}

// commit inserts a freshly built node, or returns the already-cached node
// for the same resolved key if a concurrent resolution won the race. A node
// is only ever committed after its reference list is fully built, so lookups
// never observe a partially-built schema.
func (c *Context) commit(node *schema.Schema) *schema.Schema {
	c.mu.Lock()
	defer c.mu.Unlock()

	ck := node.Key.CacheKey()
	if existing, ok := c.cache[ck]; ok {
		return existing
	}
	c.insertLocked(ck, node)
	return node
}

func (c *Context) insertLocked(ck string, node *schema.Schema) {
	c.cache[ck] = node
	name := node.Key.NormalizedName()
	c.byName[name] = append(c.byName[name], node.Key)
}

func (c *Context) cachedKeysFor(key schema.Key) []schema.Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := c.byName[key.NormalizedName()]
	out := make([]schema.Key, len(keys))
	copy(out, keys)
	return out
}

func (c *Context) lookup(key schema.Key) *schema.Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache[key.CacheKey()]
}

func (c *Context) snapshotLocaters() []locater.Locater {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]locater.Locater, len(c.locaters))
	copy(out, c.locaters)
	return out
}

// resolution tracks the keys currently being resolved in one top-level
// request. Re-encountering an in-flight key means the schema graph is not
// the DAG it is required to be, and resolution fails fast instead of
// recursing unboundedly.
type resolution struct {
	visiting map[string]bool
}

type ctxKey int

const resolutionKey ctxKey = 0

func withResolution(ctx context.Context, st *resolution) context.Context {
	return context.WithValue(ctx, resolutionKey, st)
}

func resolutionFrom(ctx context.Context) *resolution {
	st, _ := ctx.Value(resolutionKey).(*resolution)
	return st
}
