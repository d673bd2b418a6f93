// Package openapi builds an OpenAPI 3 document and serves it as YAML.
//
// Only the parts of the standard used to describe a JSON api are supported.
package openapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"
)

const Version = "3.0.3"

var ErrInvalidOperation = errors.New("invalid operation")

type (
	Info struct {
		Title          string   `yaml:"title"`
		Description    string   `yaml:"description,omitempty"`
		TermsOfService string   `yaml:"termsOfService,omitempty"`
		Contact        *Contact `yaml:"contact,omitempty"`
		License        *License `yaml:"license,omitempty"`
		Version        string   `yaml:"version"`
	}
	Contact struct {
		Name  string `yaml:"name,omitempty"`
		URL   string `yaml:"url,omitempty"`
		Email string `yaml:"email,omitempty"`
	}
	License struct {
		Name string `yaml:"name"`
		URL  string `yaml:"url,omitempty"`
	}
	ExternalDocs struct {
		Description string `yaml:"description,omitempty"`
		URL         string `yaml:"url"`
	}

	// PathItem maps the lower case http method to its operation.
	PathItem map[string]Operation

	Operation struct {
		Tags        []string            `yaml:"tags,omitempty"`
		Summary     string              `yaml:"summary,omitempty"`
		Description string              `yaml:"description,omitempty"`
		OperationID string              `yaml:"operationId,omitempty"`
		Parameters  []Parameter         `yaml:"parameters,omitempty"`
		RequestBody *RequestBody        `yaml:"requestBody,omitempty"`
		Responses   map[string]Response `yaml:"responses"`
	}
	Parameter struct {
		Name        string `yaml:"name"`
		In          string `yaml:"in"`
		Description string `yaml:"description,omitempty"`
		Required    bool   `yaml:"required,omitempty"`
		Schema      Schema `yaml:"schema"`
	}
	RequestBody struct {
		Description string               `yaml:"description,omitempty"`
		Required    bool                 `yaml:"required,omitempty"`
		Content     map[string]MediaType `yaml:"content"`
	}
	Response struct {
		Description string               `yaml:"description"`
		Headers     map[string]Header    `yaml:"headers,omitempty"`
		Content     map[string]MediaType `yaml:"content,omitempty"`
	}
	Header struct {
		Description string `yaml:"description,omitempty"`
		Schema      Schema `yaml:"schema"`
	}
	MediaType struct {
		Schema Schema `yaml:"schema"`
	}
	Schema struct {
		Ref         string            `yaml:"$ref,omitempty"`
		Type        string            `yaml:"type,omitempty"`
		Format      string            `yaml:"format,omitempty"`
		Description string            `yaml:"description,omitempty"`
		Example     any               `yaml:"example,omitempty"`
		Required    []string          `yaml:"required,omitempty"`
		Properties  map[string]Schema `yaml:"properties,omitempty"`
		Items       *Schema           `yaml:"items,omitempty"`
	}
	Components struct {
		Schemas map[string]Schema `yaml:"schemas,omitempty"`
	}
)

// Ref returns a Schema referencing the component schema with name.
func Ref(name string) Schema {
	return Schema{Ref: "#/components/schemas/" + name}
}

// JSON returns the content of a JSON body with schema.
func JSON(schema Schema) map[string]MediaType {
	return map[string]MediaType{echo.MIMEApplicationJSON: {Schema: schema}}
}

// Document is safe for concurrent use.
// Contexts add their operations on startup, the document is rendered on each request.
type Document struct {
	mu sync.RWMutex

	info         Info
	externalDocs *ExternalDocs
	paths        map[string]PathItem
	schemas      map[string]Schema
}

func New(info Info, docs *ExternalDocs) *Document {
	return &Document{
		info:         info,
		externalDocs: docs,
		paths:        map[string]PathItem{},
		schemas:      map[string]Schema{},
	}
}

// AddOperation describes the route method path.
// Path parameters use the echo notation, e.g. /products/:id, and are converted to /products/{id}.
func (d *Document) AddOperation(method string, path string, op Operation) error {
	method = strings.ToLower(method)
	if method == "" || path == "" || len(op.Responses) == 0 {
		return fmt.Errorf("%w: method, path, and responses are required: %s %s", ErrInvalidOperation, method, path)
	}

	path = toOpenAPIPath(path)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.paths[path]; !ok {
		d.paths[path] = PathItem{}
	}

	if _, exists := d.paths[path][method]; exists {
		return fmt.Errorf("%w: already described: %s %s", ErrInvalidOperation, method, path)
	}

	d.paths[path][method] = op

	return nil
}

// AddSchema registers a reusable schema, reference it with Ref.
func (d *Document) AddSchema(name string, schema Schema) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.schemas[name] = schema
}

// YAML renders the document.
func (d *Document) YAML() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc := struct {
		OpenAPI      string              `yaml:"openapi"`
		Info         Info                `yaml:"info"`
		ExternalDocs *ExternalDocs       `yaml:"externalDocs,omitempty"`
		Paths        map[string]PathItem `yaml:"paths"`
		Components   Components          `yaml:"components,omitempty"`
	}{
		OpenAPI:      Version,
		Info:         d.info,
		ExternalDocs: d.externalDocs,
		Paths:        d.paths,
		Components:   Components{Schemas: d.schemas},
	}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("could not marshal openapi document: %w", err)
	}

	return b, nil
}

// Handler serves the document.
func (d *Document) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := d.YAML()
		if err != nil {
			return err
		}

		return c.Blob(http.StatusOK, "application/yaml", b)
	}
}

func toOpenAPIPath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, ":") {
			segments[i] = "{" + strings.TrimPrefix(s, ":") + "}"
		}
	}

	return strings.Join(segments, "/")
}
