package locater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/structkit/schemaloc/pkg/errors"
	"github.com/structkit/schemaloc/pkg/observability"
	"github.com/structkit/schemaloc/pkg/schema"
)

// schemaFileInfix sits between the key components and the format extension
// in the file naming convention <Name>.<read>.<write>.<minor>.ecschema.<ext>.
const schemaFileInfix = ".ecschema."

// FileLocater discovers schema documents on disk using the
// <Name>.<read>.<write>.<minor>.ecschema.<ext> naming convention. Search
// paths are consulted in registration order; the first directory containing
// at least one matching filename supplies the candidate set for a request.
// Format handling is delegated to the registered [Adapter] values, selected
// by extension.
//
// FileLocater never caches. It is safe for concurrent use.
type FileLocater struct {
	mu       sync.RWMutex
	paths    []string
	adapters map[string]Adapter
}

// NewFileLocater creates a file locater serving the formats of the given
// adapters. At least one adapter is required for the locater to discover
// anything.
func NewFileLocater(adapters ...Adapter) *FileLocater {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[strings.ToLower(a.Extension())] = a
	}
	return &FileLocater{adapters: m}
}

// AddSearchPath appends a directory to the ordered search path list.
func (l *FileLocater) AddSearchPath(path string) error {
	if err := errors.ValidateSearchPath(path); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, path)
	return nil
}

// SearchPaths returns a copy of the registered search paths in order.
func (l *FileLocater) SearchPaths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.paths))
	copy(out, l.paths)
	return out
}

// candidate is one on-disk schema document whose filename-derived key names
// the requested schema.
type candidate struct {
	key     schema.Key
	path    string
	adapter Adapter
}

// ResolveKey locates the best candidate for the requested key without
// parsing its document.
func (l *FileLocater) ResolveKey(ctx context.Context, key schema.Key, mt schema.MatchType) (schema.Key, bool, error) {
	c, ok, err := l.locate(ctx, key, mt)
	if err != nil || !ok {
		return schema.Key{}, false, err
	}
	return c.key, true, nil
}

// Load locates the best candidate, parses its document, and returns a
// brand-new resolved node. References are resolved through res; when res is
// nil they are resolved against this locater only, without any caching.
func (l *FileLocater) Load(ctx context.Context, key schema.Key, mt schema.MatchType, res Resolver) (*schema.Schema, bool, error) {
	if res == nil {
		res = &selfResolver{loc: l, visiting: make(map[string]bool)}
	}
	return l.load(ctx, key, mt, res)
}

// ResolveKeyAsync is the non-blocking form of ResolveKey.
func (l *FileLocater) ResolveKeyAsync(ctx context.Context, key schema.Key, mt schema.MatchType) <-chan KeyResult {
	out := make(chan KeyResult, 1)
	go func() {
		defer close(out)
		k, ok, err := l.ResolveKey(ctx, key, mt)
		out <- KeyResult{Key: k, Found: ok, Err: err}
	}()
	return out
}

// LoadAsync is the non-blocking form of Load.
func (l *FileLocater) LoadAsync(ctx context.Context, key schema.Key, mt schema.MatchType, res Resolver) <-chan SchemaResult {
	out := make(chan SchemaResult, 1)
	go func() {
		defer close(out)
		s, ok, err := l.Load(ctx, key, mt, res)
		out <- SchemaResult{Schema: s, Found: ok, Err: err}
	}()
	return out
}

func (l *FileLocater) load(ctx context.Context, key schema.Key, mt schema.MatchType, res Resolver) (*schema.Schema, bool, error) {
	c, ok, err := l.locate(ctx, key, mt)
	if err != nil || !ok {
		return nil, false, err
	}

	doc, err := readDocument(ctx, c.path)
	if err != nil {
		return nil, false, err
	}

	header, err := c.adapter.ExtractHeader(doc)
	if err != nil {
		return nil, false, err
	}
	if !header.SameName(c.key) || header.Version != c.key.Version {
		return nil, false, errors.New(c.adapter.MalformedCode(),
			"header %s does not match file %s", header, filepath.Base(c.path))
	}

	refKeys, err := c.adapter.ExtractReferences(doc)
	if err != nil {
		return nil, false, err
	}

	observability.Resolution().OnLoad(ctx, c.key.Name, c.key.Version.String(), len(refKeys))

	node := schema.NewSchema(c.key)
	node.ReferenceKeys = refKeys
	for _, refKey := range refKeys {
		ref, found, err := res.GetSchema(ctx, refKey, ReferenceMatchType)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return nil, false, errors.New(errors.ErrCodeUnableToLocateSchema,
				"unable to locate schema %s referenced by %s", refKey, c.key)
		}
		node.References = append(node.References, ref)
	}

	return node, true, nil
}

// locate discovers candidates for the requested name and applies the match
// policy. The first search path containing any matching filename supplies
// the whole candidate set.
func (l *FileLocater) locate(ctx context.Context, key schema.Key, mt schema.MatchType) (candidate, bool, error) {
	if err := errors.ValidateSchemaName(key.Name); err != nil {
		return candidate{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return candidate{}, false, err
	}

	for _, dir := range l.SearchPaths() {
		cands, err := l.candidatesIn(dir, key)
		if err != nil {
			return candidate{}, false, err
		}
		observability.Locate().OnLocate(ctx, dir, len(cands))
		if len(cands) == 0 {
			continue
		}

		versions := make([]schema.Version, len(cands))
		for i, c := range cands {
			versions[i] = c.key.Version
		}
		winner, ok := schema.Match(key, mt, versions)
		if !ok {
			// The name exists here but no version satisfies the policy.
			// Candidate discovery stops at the first directory that names
			// the schema, so this is a soft miss, not a reason to keep
			// walking the remaining paths.
			return candidate{}, false, nil
		}
		for _, c := range cands {
			if c.key.Version == winner {
				return c, true, nil
			}
		}
	}

	return candidate{}, false, nil
}

func (l *FileLocater) candidatesIn(dir string, key schema.Key) ([]candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read search path %s: %w", dir, err)
	}

	var cands []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fileKey, ext, ok := parseFileName(e.Name())
		if !ok {
			continue
		}
		adapter, ok := l.adapterFor(ext)
		if !ok {
			continue
		}
		if !fileKey.SameName(key) {
			continue
		}
		cands = append(cands, candidate{
			key:     fileKey,
			path:    filepath.Join(dir, e.Name()),
			adapter: adapter,
		})
	}
	return cands, nil
}

func (l *FileLocater) adapterFor(ext string) (Adapter, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.adapters[strings.ToLower(ext)]
	return a, ok
}

// parseFileName splits <Name>.<read>.<write>.<minor>.ecschema.<ext> into the
// filename-derived key and extension. Names may themselves contain dots, so
// the version is taken from the three components preceding the infix.
func parseFileName(base string) (schema.Key, string, bool) {
	lower := strings.ToLower(base)
	idx := strings.LastIndex(lower, schemaFileInfix)
	if idx <= 0 {
		return schema.Key{}, "", false
	}

	ext := base[idx+len(schemaFileInfix):]
	if ext == "" {
		return schema.Key{}, "", false
	}

	stem := base[:idx] // <Name>.<read>.<write>.<minor>
	parts := strings.Split(stem, ".")
	if len(parts) < 4 {
		return schema.Key{}, "", false
	}

	versionStr := strings.Join(parts[len(parts)-3:], ".")
	v, err := schema.ParseVersion(versionStr)
	if err != nil {
		return schema.Key{}, "", false
	}

	name := strings.Join(parts[:len(parts)-3], ".")
	if name == "" {
		return schema.Key{}, "", false
	}

	return schema.Key{Name: name, Version: v}, ext, true
}

// readDocument reads the winning document's bytes. This is the only I/O
// suspension point in resolution; ctx is honored before the read starts.
func readDocument(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file %s: %w", path, err)
	}
	return data, nil
}

// selfResolver resolves references against a single locater when no context
// is supplied to Load. It tracks the keys currently being resolved in the
// call chain so that a malformed circular graph fails fast instead of
// recursing unboundedly. It never caches completed nodes.
type selfResolver struct {
	loc      *FileLocater
	visiting map[string]bool
}

func (r *selfResolver) GetSchema(ctx context.Context, key schema.Key, mt schema.MatchType) (*schema.Schema, bool, error) {
	resolved, ok, err := r.loc.locate(ctx, key, mt)
	if err != nil || !ok {
		return nil, ok, err
	}

	ck := resolved.key.CacheKey()
	if r.visiting[ck] {
		return nil, false, errors.New(errors.ErrCodeReferenceCycle,
			"cyclic reference involving schema %s", resolved.key)
	}
	r.visiting[ck] = true
	defer delete(r.visiting, ck)

	return r.loc.load(ctx, key, mt, r)
}
