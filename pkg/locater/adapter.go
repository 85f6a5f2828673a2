package locater

import (
	"github.com/structkit/schemaloc/pkg/errors"
	"github.com/structkit/schemaloc/pkg/schema"
)

// Adapter extracts schema identity and references from a raw document in one
// format. Adapters are selected by file extension and never inspect the
// filesystem themselves; the file locater hands them exactly the winning
// document's bytes.
type Adapter interface {
	// Extension returns the format's file extension without a leading dot
	// (e.g. "json", "xml").
	Extension() string

	// MalformedCode returns the error code raised for structural faults in
	// this format. The file locater uses it for faults it detects itself,
	// such as a header identity that disagrees with the filename.
	MalformedCode() errors.Code

	// ExtractHeader reads the self-declared name and version from the
	// document's root construct. It returns a format-specific typed error
	// when the root construct or its identity attributes are absent, empty,
	// or unparseable.
	ExtractHeader(doc []byte) (schema.Key, error)

	// ExtractReferences reads the declared referenced schemas in document
	// order. Declarations that are not document content (e.g. inside XML
	// comments) must not appear in the result.
	ExtractReferences(doc []byte) ([]schema.Key, error)
}
