package openapi

import (
	commands "github.com/inference-gateway/operator/internal/commands"
)

// Schema is the subset of a JSON schema the document needs
type Schema struct {
	Ref         string             `json:"$ref,omitempty"`
	Type        string             `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Nullable    bool               `json:"nullable,omitempty"`
	Description string             `json:"description,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// FieldType is a primitive of the payload descriptors
type FieldType int

const (
	TypeString FieldType = iota
	TypeInt32
	TypeInt64
	TypeFloat
	TypeDouble
	TypeBoolean
	TypeArray
)

// Field describes one payload property
type Field struct {
	Name     string
	Type     FieldType
	Items    FieldType
	Nullable bool
}

// Payload describes a named record payload
type Payload struct {
	Name   string
	Fields []Field
}

var payloads = map[commands.PayloadKind]Payload{
	commands.PayloadCaptureImage: {
		Name:   "CaptureImageData",
		Fields: []Field{{Name: "imageBase64", Type: TypeString, Nullable: true}},
	},
	commands.PayloadCaptureXML: {
		Name:   "CaptureXMLData",
		Fields: []Field{{Name: "xml", Type: TypeString, Nullable: true}},
	},
	commands.PayloadMetadata: {
		Name: "MetadataData",
		Fields: []Field{
			{Name: "packageName", Type: TypeString, Nullable: true},
			{Name: "activityName", Type: TypeString, Nullable: true},
		},
	},
	commands.PayloadInstalledApplications: {
		Name: "InstalledApplicationsData",
		Fields: []Field{
			{Name: "packageNames", Type: TypeArray, Items: TypeString},
			{Name: "applicationNames", Type: TypeArray, Items: TypeString},
		},
	},
}

// primitive maps a field type to its JSON schema
func primitive(t, items FieldType) *Schema {
	switch t {
	case TypeInt32:
		return &Schema{Type: "integer", Format: "int32"}
	case TypeInt64:
		return &Schema{Type: "integer", Format: "int64"}
	case TypeFloat:
		return &Schema{Type: "number", Format: "float"}
	case TypeDouble:
		return &Schema{Type: "number", Format: "double"}
	case TypeBoolean:
		return &Schema{Type: "boolean"}
	case TypeArray:
		return &Schema{Type: "array", Items: primitive(items, TypeString)}
	default:
		return &Schema{Type: "string"}
	}
}

func (p Payload) schema() *Schema {
	s := &Schema{Type: "object", Properties: make(map[string]*Schema, len(p.Fields))}
	for _, f := range p.Fields {
		s.Properties[f.Name] = primitive(f.Type, f.Items)
		if !f.Nullable {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}
