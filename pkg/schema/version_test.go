package schema

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{"1.0.0", Version{1, 0, 0}, false},
		{"01.00.02", Version{1, 0, 2}, false},
		{"2.13.7", Version{2, 13, 7}, false},
		{"0.0.0", Version{}, false},
		{"1.0", Version{}, true},
		{"1.0.0.0", Version{}, true},
		{"", Version{}, true},
		{"a.b.c", Version{}, true},
		{"1.-1.0", Version{}, true},
		{"1..0", Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseVersion(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	v := Version{Read: 1, Write: 2, Minor: 3}
	if got := v.String(); got != "1.2.3" {
		t.Errorf("String() = %q, want %q", got, "1.2.3")
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Version
		want int
	}{
		{"equal", Version{1, 1, 1}, Version{1, 1, 1}, 0},
		{"read dominates", Version{2, 0, 0}, Version{1, 9, 9}, 1},
		{"write dominates minor", Version{1, 2, 0}, Version{1, 1, 9}, 1},
		{"minor breaks tie", Version{1, 1, 0}, Version{1, 1, 1}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Compare(tt.a); got != -tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestVersionLess(t *testing.T) {
	if !(Version{1, 1, 1}).Less(Version{2, 0, 2}) {
		t.Error("1.1.1 should be less than 2.0.2")
	}
	if (Version{1, 1, 1}).Less(Version{1, 1, 1}) {
		t.Error("a version is not less than itself")
	}
}
