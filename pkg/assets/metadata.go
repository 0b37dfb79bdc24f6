package assets

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metadata is an item descriptor. Only name, image and properties.files[0].uri
// are interpreted; every other value is carried through unchanged.
type Metadata struct {
	fields map[string]json.RawMessage
}

// ParseMetadata decodes a descriptor and checks that it carries a string name.
func ParseMetadata(data []byte) (*Metadata, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("descriptor must be a JSON object")
	}
	rawName, ok := fields["name"]
	if !ok {
		return nil, fmt.Errorf("descriptor is missing name")
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return nil, fmt.Errorf("descriptor name must be a string")
	}
	return &Metadata{fields: fields}, nil
}

func (m *Metadata) Name() string {
	return m.stringField("name")
}

func (m *Metadata) Image() string {
	return m.stringField("image")
}

// FileURI returns properties.files[0].uri, or "" when absent.
func (m *Metadata) FileURI() string {
	properties, err := decodeObject(m.fields["properties"])
	if err != nil {
		return ""
	}
	files, err := decodeArray(properties["files"])
	if err != nil || len(files) == 0 {
		return ""
	}
	first, err := decodeObject(files[0])
	if err != nil {
		return ""
	}
	var uri string
	if json.Unmarshal(first["uri"], &uri) != nil {
		return ""
	}
	return uri
}

// Field returns the raw JSON value of a top-level key.
func (m *Metadata) Field(key string) json.RawMessage {
	return m.fields[key]
}

// SetImage points image and properties.files[0].uri at uri, creating the
// properties object and first file entry when they are missing.
func (m *Metadata) SetImage(uri string) error {
	encodedURI, err := json.Marshal(uri)
	if err != nil {
		return err
	}
	m.fields["image"] = encodedURI

	properties, err := decodeObject(m.fields["properties"])
	if err != nil {
		return fmt.Errorf("descriptor properties must be an object: %w", err)
	}
	files, err := decodeArray(properties["files"])
	if err != nil {
		return fmt.Errorf("descriptor properties.files must be an array: %w", err)
	}
	if len(files) == 0 {
		files = append(files, json.RawMessage("{}"))
	}
	first, err := decodeObject(files[0])
	if err != nil {
		return fmt.Errorf("descriptor properties.files[0] must be an object: %w", err)
	}
	first["uri"] = encodedURI

	if files[0], err = json.Marshal(first); err != nil {
		return err
	}
	if properties["files"], err = json.Marshal(files); err != nil {
		return err
	}
	m.fields["properties"], err = json.Marshal(properties)
	return err
}

// Bytes encodes the descriptor with two-space indentation.
func (m *Metadata) Bytes() ([]byte, error) {
	compact, err := json.Marshal(m.fields)
	if err != nil {
		return nil, err
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, compact, "", "  "); err != nil {
		return nil, err
	}
	indented.WriteByte('\n')
	return indented.Bytes(), nil
}

func (m *Metadata) stringField(key string) string {
	var value string
	if raw, ok := m.fields[key]; ok {
		_ = json.Unmarshal(raw, &value)
	}
	return value
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	object := map[string]json.RawMessage{}
	if len(raw) == 0 || string(raw) == "null" {
		return object, nil
	}
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, err
	}
	return object, nil
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, error) {
	var array []json.RawMessage
	if len(raw) == 0 || string(raw) == "null" {
		return array, nil
	}
	if err := json.Unmarshal(raw, &array); err != nil {
		return nil, err
	}
	return array, nil
}
