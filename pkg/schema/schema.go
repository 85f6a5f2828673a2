// Package schema defines the value types of the resolution engine: versions,
// keys, match policies, and the resolved schema node.
//
// A [Key] names a schema and a three-part [Version]; [Match] implements the
// compatibility policy that turns a requested, possibly-partial version into
// a concrete selection among discoverable candidates. A [Schema] is the
// resolved in-memory node holding its ordered reference list.
package schema

// Schema is a resolved schema node. Its identity is the resolved Key; its
// References hold the resolved nodes for every schema the document declares,
// in declaration order. Within one resolution context a node may be shared by
// multiple parents and lives for the lifetime of that context.
type Schema struct {
	// Key is the resolved identity of this schema.
	Key Key

	// References are the resolved referenced schemas in declared order.
	References []*Schema

	// ReferenceKeys are the reference keys as declared by the document,
	// before resolution. Len(ReferenceKeys) == len(References) after a
	// successful load.
	ReferenceKeys []Key
}

// NewSchema creates an empty schema node for the given resolved key.
func NewSchema(key Key) *Schema {
	return &Schema{Key: key}
}

// Reference returns the resolved reference with the given name, ignoring
// case, or nil if the schema declares no such reference.
func (s *Schema) Reference(name string) *Schema {
	for _, ref := range s.References {
		if ref != nil && ref.Key.SameName(Key{Name: name}) {
			return ref
		}
	}
	return nil
}

// Walk visits s and every schema reachable through references, depth-first
// in declared order, calling fn once per distinct node.
func (s *Schema) Walk(fn func(*Schema)) {
	seen := make(map[string]bool)
	var visit func(*Schema)
	visit = func(n *Schema) {
		if n == nil || seen[n.Key.CacheKey()] {
			return
		}
		seen[n.Key.CacheKey()] = true
		fn(n)
		for _, ref := range n.References {
			visit(ref)
		}
	}
	visit(s)
}
