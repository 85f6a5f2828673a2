// Package ecxml implements the XML schema document format.
//
// An XML schema document declares its identity through a root element
// literally named ECSchema carrying schemaName and version attributes, and
// its references as ECSchemaReference child elements. Extraction is
// token-based: comment regions are not document content, so a reference
// declaration inside a comment never appears in the extracted list.
// Structural faults surface as [errors.ErrCodeInvalidSchemaXML].
package ecxml

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/structkit/schemaloc/pkg/errors"
	"github.com/structkit/schemaloc/pkg/locater"
	"github.com/structkit/schemaloc/pkg/schema"
)

const (
	rootElement      = "ECSchema"
	referenceElement = "ECSchemaReference"

	attrSchemaName = "schemaName"
	attrName       = "name"
	attrVersion    = "version"
)

// Adapter extracts schema identity and references from XML documents.
type Adapter struct{}

// New creates an XML format adapter.
func New() *Adapter { return &Adapter{} }

// NewLocater creates a file locater serving XML schema documents only.
func NewLocater() *locater.FileLocater {
	return locater.NewFileLocater(New())
}

// Extension returns "xml".
func (*Adapter) Extension() string { return "xml" }

// MalformedCode returns the XML structural fault code.
func (*Adapter) MalformedCode() errors.Code { return errors.ErrCodeInvalidSchemaXML }

// ExtractHeader reads the schemaName and version attributes from the root
// ECSchema element.
func (*Adapter) ExtractHeader(doc []byte) (schema.Key, error) {
	root, err := rootStart(doc)
	if err != nil {
		return schema.Key{}, err
	}

	name := attrValue(root, attrSchemaName)
	if name == "" {
		return schema.Key{}, errors.New(errors.ErrCodeInvalidSchemaXML, "ECSchema element has missing or empty schemaName attribute")
	}
	version := attrValue(root, attrVersion)
	if version == "" {
		return schema.Key{}, errors.New(errors.ErrCodeInvalidSchemaXML, "schema %s has missing or empty version attribute", name)
	}
	v, err := schema.ParseVersion(version)
	if err != nil {
		return schema.Key{}, errors.Wrap(errors.ErrCodeInvalidSchemaXML, err, "schema %s", name)
	}

	return schema.Key{Name: name, Version: v}, nil
}

// ExtractReferences reads ECSchemaReference elements that are direct
// children of the root, in document order. The token walk never sees
// elements inside comments, so commented-out references are ignored by
// construction rather than by textual matching.
func (*Adapter) ExtractReferences(doc []byte) ([]schema.Key, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))

	var keys []schema.Key
	depth := 0
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSchemaXML, err, "parse schema document")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				if t.Name.Local != rootElement {
					return nil, errors.New(errors.ErrCodeInvalidSchemaXML, "missing root ECSchema element, found <%s>", t.Name.Local)
				}
				sawRoot = true
				continue
			}
			if depth == 2 && t.Name.Local == referenceElement {
				key, err := referenceKey(t)
				if err != nil {
					return nil, err
				}
				keys = append(keys, key)
			}
		case xml.EndElement:
			depth--
		}
	}

	if !sawRoot {
		return nil, errors.New(errors.ErrCodeInvalidSchemaXML, "missing root ECSchema element")
	}
	return keys, nil
}

func referenceKey(el xml.StartElement) (schema.Key, error) {
	name := attrValue(el, attrName)
	if name == "" {
		return schema.Key{}, errors.New(errors.ErrCodeInvalidSchemaXML, "ECSchemaReference element has missing or empty name attribute")
	}
	version := attrValue(el, attrVersion)
	if version == "" {
		return schema.Key{}, errors.New(errors.ErrCodeInvalidSchemaXML, "reference to %s has missing or empty version attribute", name)
	}
	v, err := schema.ParseVersion(version)
	if err != nil {
		return schema.Key{}, errors.Wrap(errors.ErrCodeInvalidSchemaXML, err, "reference to %s", name)
	}
	return schema.Key{Name: name, Version: v}, nil
}

// rootStart returns the first start element of the document, which must be
// the ECSchema root.
func rootStart(doc []byte) (xml.StartElement, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, errors.New(errors.ErrCodeInvalidSchemaXML, "missing root ECSchema element")
		}
		if err != nil {
			return xml.StartElement{}, errors.Wrap(errors.ErrCodeInvalidSchemaXML, err, "parse schema document")
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != rootElement {
				return xml.StartElement{}, errors.New(errors.ErrCodeInvalidSchemaXML, "missing root ECSchema element, found <%s>", start.Name.Local)
			}
			return start, nil
		}
	}
}

func attrValue(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
