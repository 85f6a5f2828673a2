// Package ecjson implements the JSON schema document format.
//
// A JSON schema document declares its identity through top-level "name" and
// "version" attributes and its references as an array of {name, version}
// pairs under "references". Structural faults surface as
// [errors.ErrCodeInvalidSchemaJSON].
package ecjson

import (
	"encoding/json"

	"github.com/structkit/schemaloc/pkg/errors"
	"github.com/structkit/schemaloc/pkg/locater"
	"github.com/structkit/schemaloc/pkg/schema"
)

// Adapter extracts schema identity and references from JSON documents.
type Adapter struct{}

// New creates a JSON format adapter.
func New() *Adapter { return &Adapter{} }

// NewLocater creates a file locater serving JSON schema documents only.
func NewLocater() *locater.FileLocater {
	return locater.NewFileLocater(New())
}

// Extension returns "json".
func (*Adapter) Extension() string { return "json" }

// MalformedCode returns the JSON structural fault code.
func (*Adapter) MalformedCode() errors.Code { return errors.ErrCodeInvalidSchemaJSON }

type header struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type document struct {
	header
	References []header `json:"references"`
}

// ExtractHeader reads the top-level name and version attributes.
func (*Adapter) ExtractHeader(doc []byte) (schema.Key, error) {
	var h header
	if err := json.Unmarshal(doc, &h); err != nil {
		return schema.Key{}, errors.Wrap(errors.ErrCodeInvalidSchemaJSON, err, "parse schema document")
	}
	return headerKey(h, "schema")
}

// ExtractReferences reads the declared references in document order.
func (*Adapter) ExtractReferences(doc []byte) ([]schema.Key, error) {
	var d document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchemaJSON, err, "parse schema document")
	}

	keys := make([]schema.Key, 0, len(d.References))
	for _, ref := range d.References {
		key, err := headerKey(ref, "schema reference")
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func headerKey(h header, what string) (schema.Key, error) {
	if h.Name == "" {
		return schema.Key{}, errors.New(errors.ErrCodeInvalidSchemaJSON, "%s has missing or empty name attribute", what)
	}
	if h.Version == "" {
		return schema.Key{}, errors.New(errors.ErrCodeInvalidSchemaJSON, "%s %s has missing or empty version attribute", what, h.Name)
	}
	v, err := schema.ParseVersion(h.Version)
	if err != nil {
		return schema.Key{}, errors.Wrap(errors.ErrCodeInvalidSchemaJSON, err, "%s %s", what, h.Name)
	}
	return schema.Key{Name: h.Name, Version: v}, nil
}
