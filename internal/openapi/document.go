// Package openapi renders the command catalogue as an OpenAPI 3.0 document.
package openapi

import (
	"encoding/json"

	commands "github.com/inference-gateway/operator/internal/commands"
)

const (
	Title       = "Operator API"
	Description = "API for controlling the device through the operator service."
)

// Document is an OpenAPI 3.0 document
type Document struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Paths      map[string]PathItem `json:"paths"`
	Components *Components         `json:"components,omitempty"`
}

type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type Components struct {
	Schemas map[string]*Schema `json:"schemas"`
}

type PathItem struct {
	Get Operation `json:"get"`
}

type Operation struct {
	Summary     string              `json:"summary"`
	OperationID string              `json:"operationId"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

type Parameter struct {
	Name     string  `json:"name"`
	In       string  `json:"in"`
	Required bool    `json:"required"`
	Schema   *Schema `json:"schema"`
}

type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content"`
}

type MediaType struct {
	Schema *Schema `json:"schema"`
}

// generator memoizes component schemas by name
type generator struct {
	components map[string]*Schema
}

// Generate builds the document for routes
func Generate(routes []commands.Route, version string) *Document {
	g := &generator{components: make(map[string]*Schema)}
	doc := &Document{
		OpenAPI: "3.0.0",
		Info:    Info{Title: Title, Version: version, Description: Description},
		Paths:   make(map[string]PathItem, len(routes)),
	}

	for _, route := range routes {
		op := Operation{
			Summary:     route.Description,
			OperationID: route.OperationID,
			Responses:   make(map[string]Response, 2),
		}
		for _, arg := range route.ArgNames {
			op.Parameters = append(op.Parameters, Parameter{
				Name:     arg,
				In:       "query",
				Required: true,
				Schema:   &Schema{Type: "string"},
			})
		}

		envelope := g.envelope(route.Response)
		op.Responses["200"] = Response{
			Description: "Successful operation",
			Content:     map[string]MediaType{"application/json": {Schema: envelope}},
		}
		op.Responses["400"] = Response{
			Description: "Invalid input or error",
			Content:     map[string]MediaType{"application/json": {Schema: envelope}},
		}
		doc.Paths[route.Path] = PathItem{Get: op}
	}

	if len(g.components) > 0 {
		doc.Components = &Components{Schemas: g.components}
	}
	return doc
}

// envelope is the {success, message, data?} schema shared by 200 and 400
func (g *generator) envelope(kind commands.PayloadKind) *Schema {
	s := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"success": {Type: "boolean"},
			"message": {Type: "string"},
		},
		Required: []string{"success", "message"},
	}

	switch kind {
	case commands.PayloadUnit:
	case commands.PayloadNullableString:
		s.Properties["data"] = &Schema{Type: "string", Nullable: true}
	default:
		payload, ok := payloads[kind]
		if !ok {
			s.Properties["data"] = &Schema{Type: "object", Description: "Payload type unknown."}
			break
		}
		s.Properties["data"] = g.ref(payload)
		s.Required = append(s.Required, "data")
	}
	return s
}

func (g *generator) ref(p Payload) *Schema {
	if _, ok := g.components[p.Name]; !ok {
		g.components[p.Name] = p.schema()
	}
	return &Schema{Ref: "#/components/schemas/" + p.Name}
}

// JSON renders the document indented by two spaces
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
