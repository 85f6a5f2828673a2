package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a three-part schema version. Read and Write changes denote
// breaking levels; Minor denotes additive-compatible changes. Versions are
// totally ordered by (Read, Write, Minor).
//
// The zero value (0.0.0) is a valid version.
type Version struct {
	Read  uint32 // Breaking for readers when incremented
	Write uint32 // Breaking for writers when incremented
	Minor uint32 // Additive-compatible changes
}

// ParseVersion parses a version string in "read.write.minor" form.
// All three components must be present and non-negative integers.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected read.write.minor", s)
	}

	nums := make([]uint32, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not a non-negative integer", s, p)
		}
		nums[i] = uint32(n)
	}

	return Version{Read: nums[0], Write: nums[1], Minor: nums[2]}, nil
}

// String returns the textual form "read.write.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Read, v.Write, v.Minor)
}

// Compare returns -1, 0, or 1 if v is ordered before, equal to, or after o.
func (v Version) Compare(o Version) int {
	if c := compareUint32(v.Read, o.Read); c != 0 {
		return c
	}
	if c := compareUint32(v.Write, o.Write); c != 0 {
		return c
	}
	return compareUint32(v.Minor, o.Minor)
}

// Less reports whether v is ordered strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
