package schema

import "fmt"

// MatchType selects the compatibility policy used when resolving a requested
// key against a set of candidate versions.
type MatchType int

const (
	// MatchExact requires all three version components to match.
	MatchExact MatchType = iota
	// MatchLatest ignores the requested version and picks the maximum candidate.
	MatchLatest
	// MatchLatestWriteCompatible requires the same read and write components
	// and picks the maximum minor. A differing write is write-breaking even
	// when it is newer.
	MatchLatestWriteCompatible
	// MatchLatestReadCompatible requires the same read component and a
	// (write, minor) pair at or above the requested one, picking the maximum.
	MatchLatestReadCompatible
)

// ParseMatchType parses a match type name as used in config files and flags.
func ParseMatchType(s string) (MatchType, error) {
	switch s {
	case "exact":
		return MatchExact, nil
	case "latest":
		return MatchLatest, nil
	case "latest-write-compatible", "write-compatible":
		return MatchLatestWriteCompatible, nil
	case "latest-read-compatible", "read-compatible":
		return MatchLatestReadCompatible, nil
	}
	return 0, fmt.Errorf("unknown match type %q (available: exact, latest, latest-write-compatible, latest-read-compatible)", s)
}

// String returns the canonical flag/config name of the match type.
func (m MatchType) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchLatest:
		return "latest"
	case MatchLatestWriteCompatible:
		return "latest-write-compatible"
	case MatchLatestReadCompatible:
		return "latest-read-compatible"
	}
	return fmt.Sprintf("matchtype(%d)", int(m))
}

// Match selects, among candidate versions discoverable for the requested
// name, the one satisfying the match type. The boolean result is false when
// no candidate qualifies; absence is not an error at this layer.
func Match(requested Key, mt MatchType, candidates []Version) (Version, bool) {
	var best Version
	found := false

	for _, c := range candidates {
		if !satisfies(requested.Version, mt, c) {
			continue
		}
		if !found || best.Less(c) {
			best = c
			found = true
		}
		if mt == MatchExact {
			// At most one exact match; first discovered wins.
			break
		}
	}

	return best, found
}

func satisfies(req Version, mt MatchType, c Version) bool {
	switch mt {
	case MatchExact:
		return c == req
	case MatchLatest:
		return true
	case MatchLatestWriteCompatible:
		return c.Read == req.Read && c.Write == req.Write && c.Minor >= req.Minor
	case MatchLatestReadCompatible:
		if c.Read != req.Read {
			return false
		}
		if c.Write != req.Write {
			return c.Write > req.Write
		}
		return c.Minor >= req.Minor
	}
	return false
}
