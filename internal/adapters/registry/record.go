package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

//go:embed schema/component.schema.json
var schemaBytes []byte

const schemaURL = "component.schema.json"

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	errCompile     error
)

// recordFile is one file entry of a wire record.
type recordFile struct {
	Path    string `json:"path,omitempty"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// wireRecord is the serialized form of a component record.
type wireRecord struct {
	Name            string         `json:"name"`
	Files           []recordFile   `json:"files"`
	Dependencies    dependencyList `json:"dependencies,omitempty"`
	DevDependencies dependencyList `json:"devDependencies,omitempty"`
}

// dependencyList accepts either a list of "name@version" strings or a name to version object.
type dependencyList domain.Manifest

// UnmarshalJSON implements json.Unmarshaler.
func (d *dependencyList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*d = dependencyList(domain.ManifestFromList(list))
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = dependencyList(m)
	return nil
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			errCompile = zerr.Wrap(err, "failed to unmarshal component schema")
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			errCompile = zerr.Wrap(err, "failed to add component schema")
			return
		}
		compiledSchema, errCompile = c.Compile(schemaURL)
	})
	return compiledSchema, errCompile
}

// DecodeRecord parses a JSON record, validates it against the component schema
// and converts it to a domain record. Decoding failures match domain.ErrInvalidRecord.
func DecodeRecord(id string, data []byte) (*domain.ComponentRecord, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, invalidRecord(id, err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, invalidRecord(id, err)
	}

	var rec wireRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, invalidRecord(id, err)
	}

	return rec.toDomain(id), nil
}

// DecodeYAMLRecord parses a YAML record by converting it to JSON first.
func DecodeYAMLRecord(id string, data []byte) (*domain.ComponentRecord, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, invalidRecord(id, err)
	}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, invalidRecord(id, err)
	}
	return DecodeRecord(id, jsonData)
}

// decodeByExt picks the decoder for a record file name.
func decodeByExt(id, name string, data []byte) (*domain.ComponentRecord, error) {
	switch path.Ext(name) {
	case ".yaml", ".yml":
		return DecodeYAMLRecord(id, data)
	default:
		return DecodeRecord(id, data)
	}
}

// EncodeRecord renders a domain record in the wire format, with manifests as objects.
func EncodeRecord(rec *domain.ComponentRecord) ([]byte, error) {
	files := make([]recordFile, 0, len(rec.Sources))
	for _, src := range rec.Sources {
		files = append(files, recordFile{Content: src})
	}

	return json.MarshalIndent(wireRecord{
		Name:            rec.Name,
		Files:           files,
		Dependencies:    dependencyList(rec.Dependencies),
		DevDependencies: dependencyList(rec.DevDependencies),
	}, "", "  ")
}

func (w *wireRecord) toDomain(id string) *domain.ComponentRecord {
	name := w.Name
	if name == "" {
		name = id
	}

	sources := make([]string, 0, len(w.Files))
	for _, f := range w.Files {
		sources = append(sources, f.Content)
	}

	return &domain.ComponentRecord{
		Name:            name,
		Sources:         sources,
		Dependencies:    domain.Manifest(w.Dependencies).Clone(),
		DevDependencies: domain.Manifest(w.DevDependencies).Clone(),
	}
}

// notFound reports a missing record.
func notFound(id string) error {
	return zerr.With(zerr.Wrap(domain.ErrComponentNotFound, id), "component", id)
}

// transportFailure reports a store that failed to answer.
func transportFailure(id string, err error) error {
	return zerr.With(fmt.Errorf("%w: %w", domain.ErrRegistryTransport, err), "component", id)
}

// invalidRecord reports a record that could not be decoded.
func invalidRecord(id string, err error) error {
	return zerr.With(fmt.Errorf("%w: %w", domain.ErrInvalidRecord, err), "component", id)
}
