// Package locater defines the pluggable schema source contract and the
// file-backed implementation shared by the JSON and XML formats.
//
// A [Locater] discovers candidate schema documents for a requested key,
// selects the best one under a [schema.MatchType], and on request constructs
// a fully resolved [schema.Schema] node. Locaters never cache: two identical
// Load calls return value-equal but identity-distinct nodes. Session-scoped
// instance sharing is the job of the resolver context, which passes itself
// into Load as the [Resolver] so that references recurse through its cache.
package locater

import (
	"context"

	"github.com/structkit/schemaloc/pkg/schema"
)

// ReferenceMatchType is the policy used to resolve declared schema
// references. A reference is satisfied by any candidate that shares the
// declared read and write versions with a minor at or above the declared one.
const ReferenceMatchType = schema.MatchLatestWriteCompatible

// Resolver resolves schema keys through a session-scoped cache. It is
// implemented by the resolver context and passed into [Locater.Load] so that
// references declared by a document collapse onto shared node instances.
type Resolver interface {
	// GetSchema resolves the requested key under the match type. The boolean
	// result is false when no candidate exists anywhere; absence is not an
	// error.
	GetSchema(ctx context.Context, key schema.Key, mt schema.MatchType) (*schema.Schema, bool, error)
}

// KeyResult carries the outcome of a non-blocking ResolveKey call.
type KeyResult struct {
	Key   schema.Key
	Found bool
	Err   error
}

// SchemaResult carries the outcome of a non-blocking Load call.
type SchemaResult struct {
	Schema *schema.Schema
	Found  bool
	Err    error
}

// Locater is a pluggable source of schema documents. Implementations are
// safe for concurrent use and never cache resolved nodes.
type Locater interface {
	// ResolveKey locates the best candidate for the requested key without
	// constructing the full node. The boolean result is false when the name
	// is not discoverable at a satisfying version.
	ResolveKey(ctx context.Context, key schema.Key, mt schema.MatchType) (schema.Key, bool, error)

	// Load locates the best candidate and constructs a brand-new resolved
	// node, recursively resolving declared references through res. When res
	// is nil the locater resolves references against itself only.
	Load(ctx context.Context, key schema.Key, mt schema.MatchType, res Resolver) (*schema.Schema, bool, error)

	// ResolveKeyAsync is the non-blocking form of ResolveKey with identical
	// outcomes. The returned channel delivers exactly one result.
	ResolveKeyAsync(ctx context.Context, key schema.Key, mt schema.MatchType) <-chan KeyResult

	// LoadAsync is the non-blocking form of Load with identical outcomes.
	// The returned channel delivers exactly one result.
	LoadAsync(ctx context.Context, key schema.Key, mt schema.MatchType, res Resolver) <-chan SchemaResult
}
