package schema

import (
	"fmt"
	"strings"
)

// Key identifies a schema by name and version. Names are case-insensitive:
// "BisCore" and "biscore" name the same schema. Whether two keys match
// depends on the requested [MatchType], so plain structural equality is only
// meaningful for exact lookups.
type Key struct {
	Name    string
	Version Version
}

// NewKey creates a key from a name and version components.
func NewKey(name string, read, write, minor uint32) Key {
	return Key{Name: name, Version: Version{Read: read, Write: write, Minor: minor}}
}

// ParseKey parses a "Name.read.write.minor" string into a Key. Names may
// themselves contain dots, so the version is taken from the last three
// components.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 4 {
		return Key{}, fmt.Errorf("invalid schema key %q: expected Name.read.write.minor", s)
	}
	v, err := ParseVersion(strings.Join(parts[len(parts)-3:], "."))
	if err != nil {
		return Key{}, fmt.Errorf("invalid schema key %q: %w", s, err)
	}
	name := strings.Join(parts[:len(parts)-3], ".")
	if name == "" {
		return Key{}, fmt.Errorf("invalid schema key %q: empty name", s)
	}
	return Key{Name: name, Version: v}, nil
}

// String returns the "Name.read.write.minor" form of the key.
func (k Key) String() string {
	return k.Name + "." + k.Version.String()
}

// SameName reports whether k and o name the same schema, ignoring case.
func (k Key) SameName(o Key) bool {
	return strings.EqualFold(k.Name, o.Name)
}

// NormalizedName returns the lower-cased name used for case-insensitive
// lookups and cache keys.
func (k Key) NormalizedName() string {
	return strings.ToLower(k.Name)
}

// CacheKey returns the canonical case-insensitive lookup form: lower-cased
// name plus the full version string.
func (k Key) CacheKey() string {
	return k.NormalizedName() + "." + k.Version.String()
}
