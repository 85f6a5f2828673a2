package locater

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/structkit/schemaloc/pkg/errors"
	"github.com/structkit/schemaloc/pkg/schema"
)

// testAdapter parses a line-oriented fixture format: the first line is the
// declared key, each following non-empty line is a reference key. It keeps
// base-locater tests independent of the real document formats.
type testAdapter struct{}

func (testAdapter) Extension() string          { return "txt" }
func (testAdapter) MalformedCode() errors.Code { return errors.ErrCodeInvalidSchemaJSON }

func (testAdapter) ExtractHeader(doc []byte) (schema.Key, error) {
	lines := strings.Split(strings.TrimSpace(string(doc)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return schema.Key{}, errors.New(errors.ErrCodeInvalidSchemaJSON, "empty document")
	}
	key, err := schema.ParseKey(strings.TrimSpace(lines[0]))
	if err != nil {
		return schema.Key{}, errors.Wrap(errors.ErrCodeInvalidSchemaJSON, err, "bad header")
	}
	return key, nil
}

func (testAdapter) ExtractReferences(doc []byte) ([]schema.Key, error) {
	lines := strings.Split(strings.TrimSpace(string(doc)), "\n")
	var keys []schema.Key
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, err := schema.ParseKey(line)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSchemaJSON, err, "bad reference")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// writeSchema writes a fixture document named after key into dir.
func writeSchema(t *testing.T, dir string, key string, refs ...string) {
	t.Helper()
	k, err := schema.ParseKey(key)
	if err != nil {
		t.Fatal(err)
	}
	content := key
	for _, r := range refs {
		content += "\n" + r
	}
	name := k.Name + "." + k.Version.String() + ".ecschema.txt"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestLocater(t *testing.T, dirs ...string) *FileLocater {
	t.Helper()
	l := NewFileLocater(testAdapter{})
	for _, d := range dirs {
		if err := l.AddSearchPath(d); err != nil {
			t.Fatal(err)
		}
	}
	return l
}

func TestParseFileName(t *testing.T) {
	tests := []struct {
		base    string
		wantKey string
		wantExt string
		ok      bool
	}{
		{"BisCore.1.0.2.ecschema.json", "BisCore.1.0.2", "json", true},
		{"biscore.1.0.2.ECSchema.XML", "biscore.1.0.2", "XML", true},
		{"My.Schema.2.1.0.ecschema.xml", "My.Schema.2.1.0", "xml", true},
		{"BisCore.1.0.2.json", "", "", false},
		{"BisCore.1.0.ecschema.json", "", "", false},
		{"BisCore.a.0.2.ecschema.json", "", "", false},
		{".1.0.2.ecschema.json", "", "", false},
		{"BisCore.1.0.2.ecschema.", "", "", false},
		{"readme.md", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			key, ext, ok := parseFileName(tt.base)
			if ok != tt.ok {
				t.Fatalf("parseFileName(%q) ok = %v, want %v", tt.base, ok, tt.ok)
			}
			if !ok {
				return
			}
			if key.String() != tt.wantKey {
				t.Errorf("key = %v, want %v", key, tt.wantKey)
			}
			if ext != tt.wantExt {
				t.Errorf("ext = %q, want %q", ext, tt.wantExt)
			}
		})
	}
}

func TestResolveKey(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "Units.1.0.1")
	writeSchema(t, dir, "Units.1.0.4")
	writeSchema(t, dir, "Units.2.0.0")

	l := newTestLocater(t, dir)
	ctx := context.Background()

	got, ok, err := l.ResolveKey(ctx, schema.NewKey("Units", 1, 0, 0), schema.MatchLatestWriteCompatible)
	if err != nil || !ok {
		t.Fatalf("ResolveKey error = %v, found = %v", err, ok)
	}
	if got.String() != "Units.1.0.4" {
		t.Errorf("resolved %v, want Units.1.0.4", got)
	}

	// Case-insensitive name match.
	got, ok, err = l.ResolveKey(ctx, schema.NewKey("units", 0, 0, 0), schema.MatchLatest)
	if err != nil || !ok {
		t.Fatalf("ResolveKey error = %v, found = %v", err, ok)
	}
	if got.String() != "Units.2.0.0" {
		t.Errorf("resolved %v, want Units.2.0.0", got)
	}

	// Absent name is a soft miss.
	_, ok, err = l.ResolveKey(ctx, schema.NewKey("Missing", 1, 0, 0), schema.MatchLatest)
	if err != nil {
		t.Fatalf("ResolveKey error = %v", err)
	}
	if ok {
		t.Error("absent schema should not resolve")
	}
}

func TestSearchPathPrecedence(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeSchema(t, first, "Units.1.0.1")
	writeSchema(t, second, "Units.1.0.9")
	writeSchema(t, second, "Formats.1.0.0")

	l := newTestLocater(t, first, second)
	ctx := context.Background()

	// The first directory naming the schema supplies the candidate set, even
	// when a later directory has a newer version.
	got, ok, err := l.ResolveKey(ctx, schema.NewKey("Units", 1, 0, 0), schema.MatchLatest)
	if err != nil || !ok {
		t.Fatalf("ResolveKey error = %v, found = %v", err, ok)
	}
	if got.String() != "Units.1.0.1" {
		t.Errorf("resolved %v, want Units.1.0.1 from the first search path", got)
	}

	// A name absent from the first directory falls through to the second.
	got, ok, err = l.ResolveKey(ctx, schema.NewKey("Formats", 1, 0, 0), schema.MatchLatest)
	if err != nil || !ok {
		t.Fatalf("ResolveKey error = %v, found = %v", err, ok)
	}
	if got.String() != "Formats.1.0.0" {
		t.Errorf("resolved %v, want Formats.1.0.0", got)
	}
}

func TestAddSearchPathValidates(t *testing.T) {
	l := NewFileLocater(testAdapter{})
	if err := l.AddSearchPath(""); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("expected INVALID_PATH, got %v", err)
	}
	if got := len(l.SearchPaths()); got != 0 {
		t.Errorf("invalid path should not be registered, have %d paths", got)
	}
}

func TestLoadBuildsReferences(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "Root.1.0.0", "Leaf.1.0.0")
	writeSchema(t, dir, "Leaf.1.0.2")

	l := newTestLocater(t, dir)

	s, ok, err := l.Load(context.Background(), schema.NewKey("Root", 1, 0, 0), schema.MatchExact, nil)
	if err != nil || !ok {
		t.Fatalf("Load error = %v, found = %v", err, ok)
	}
	if len(s.References) != 1 {
		t.Fatalf("references = %d, want 1", len(s.References))
	}
	// References resolve write-compatibly: the declared 1.0.0 accepts 1.0.2.
	if got := s.References[0].Key.String(); got != "Leaf.1.0.2" {
		t.Errorf("reference resolved to %v, want Leaf.1.0.2", got)
	}
}

func TestLoadNeverCaches(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "Units.1.0.0")

	l := newTestLocater(t, dir)
	ctx := context.Background()
	key := schema.NewKey("Units", 1, 0, 0)

	a, ok, err := l.Load(ctx, key, schema.MatchExact, nil)
	if err != nil || !ok {
		t.Fatalf("Load error = %v, found = %v", err, ok)
	}
	b, ok, err := l.Load(ctx, key, schema.MatchExact, nil)
	if err != nil || !ok {
		t.Fatalf("Load error = %v, found = %v", err, ok)
	}

	if a == b {
		t.Error("a bare locater must return distinct instances per Load")
	}
	if a.Key != b.Key {
		t.Errorf("instances should be value-equal: %v vs %v", a.Key, b.Key)
	}
}

func TestLoadMissingReference(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "Root.1.0.0", "Ghost.1.0.0")

	l := newTestLocater(t, dir)

	_, _, err := l.Load(context.Background(), schema.NewKey("Root", 1, 0, 0), schema.MatchExact, nil)
	if !errors.Is(err, errors.ErrCodeUnableToLocateSchema) {
		t.Errorf("expected UNABLE_TO_LOCATE_SCHEMA, got %v", err)
	}
}

func TestLoadHeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	// Filename declares 1.0.0 but the header says 1.0.5.
	content := "Units.1.0.5"
	if err := os.WriteFile(filepath.Join(dir, "Units.1.0.0.ecschema.txt"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	l := newTestLocater(t, dir)

	_, _, err := l.Load(context.Background(), schema.NewKey("Units", 1, 0, 0), schema.MatchExact, nil)
	if !errors.Is(err, errors.ErrCodeInvalidSchemaJSON) {
		t.Errorf("expected the adapter's malformed code, got %v", err)
	}
}

func TestLoadCycleFailsFast(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "A.1.0.0", "B.1.0.0")
	writeSchema(t, dir, "B.1.0.0", "A.1.0.0")

	l := newTestLocater(t, dir)

	_, _, err := l.Load(context.Background(), schema.NewKey("A", 1, 0, 0), schema.MatchExact, nil)
	if !errors.Is(err, errors.ErrCodeReferenceCycle) {
		t.Errorf("expected REFERENCE_CYCLE, got %v", err)
	}
}

func TestAsyncVariantsMatchBlocking(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "Units.1.0.3")

	l := newTestLocater(t, dir)
	ctx := context.Background()
	key := schema.NewKey("Units", 1, 0, 0)

	kr := <-l.ResolveKeyAsync(ctx, key, schema.MatchLatestWriteCompatible)
	if kr.Err != nil || !kr.Found {
		t.Fatalf("ResolveKeyAsync error = %v, found = %v", kr.Err, kr.Found)
	}
	if kr.Key.String() != "Units.1.0.3" {
		t.Errorf("resolved %v, want Units.1.0.3", kr.Key)
	}

	sr := <-l.LoadAsync(ctx, key, schema.MatchLatestWriteCompatible, nil)
	if sr.Err != nil || !sr.Found {
		t.Fatalf("LoadAsync error = %v, found = %v", sr.Err, sr.Found)
	}
	if sr.Schema.Key.String() != "Units.1.0.3" {
		t.Errorf("loaded %v, want Units.1.0.3", sr.Schema.Key)
	}
}

func TestLocateRejectsTraversalNames(t *testing.T) {
	l := newTestLocater(t, t.TempDir())
	_, _, err := l.ResolveKey(context.Background(), schema.Key{Name: "../outside"}, schema.MatchLatest)
	if !errors.Is(err, errors.ErrCodeInvalidKey) {
		t.Errorf("expected INVALID_KEY, got %v", err)
	}
}
