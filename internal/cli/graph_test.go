package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/structkit/schemaloc/pkg/schema"
)

func TestReferenceDOT(t *testing.T) {
	d := schema.NewSchema(schema.NewKey("D", 1, 0, 0))
	b := schema.NewSchema(schema.NewKey("B", 1, 0, 0))
	b.References = []*schema.Schema{d}
	c := schema.NewSchema(schema.NewKey("C", 1, 0, 0))
	c.References = []*schema.Schema{b, d}
	a := schema.NewSchema(schema.NewKey("A", 1, 0, 0))
	a.References = []*schema.Schema{c, b}

	dot := referenceDOT(a)

	if !strings.HasPrefix(dot, "digraph schemas {") {
		t.Errorf("unexpected DOT prefix: %q", dot[:30])
	}

	// Shared node D appears exactly once.
	if got := strings.Count(dot, `"D.1.0.0" [`); got != 1 {
		t.Errorf("D declared %d times, want 1", got)
	}

	edges := [][2]string{
		{"A.1.0.0", "C.1.0.0"},
		{"A.1.0.0", "B.1.0.0"},
		{"B.1.0.0", "D.1.0.0"},
		{"C.1.0.0", "B.1.0.0"},
		{"C.1.0.0", "D.1.0.0"},
	}
	for _, e := range edges {
		if !strings.Contains(dot, fmt.Sprintf("%q -> %q;", e[0], e[1])) {
			t.Errorf("missing edge %s -> %s in:\n%s", e[0], e[1], dot)
		}
	}

	// Deterministic output for identical graphs.
	if dot != referenceDOT(a) {
		t.Error("DOT export must be deterministic")
	}
}
