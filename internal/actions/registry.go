// Package actions provides the catalog of executable actions a workflow's
// action nodes can reference. The catalog is an edit-time collaborator: it
// answers "does this action exist" and "are these params acceptable". Actual
// execution is owned by whatever engine runs the workflow.
package actions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/craftbase/flowkit/pkg/schema"
)

// ParamsChecker performs action-specific parameter checks beyond what the
// action's JSON Schema expresses, e.g. compiling an embedded program.
type ParamsChecker func(params map[string]any) error

// Definition describes one catalog action. ParamsSchema is a JSON Schema
// document validating the node's actionParams map; empty means any params.
type Definition struct {
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	ParamsSchema string `json:"params_schema,omitempty"`

	check ParamsChecker

	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
}

// WithChecker attaches an action-specific parameter checker.
func (d *Definition) WithChecker(check ParamsChecker) *Definition {
	d.check = check
	return d
}

// ValidateParams checks params against the definition's JSON Schema and any
// attached checker.
func (d *Definition) ValidateParams(params map[string]any) error {
	if d.ParamsSchema != "" {
		compiled, err := d.schemaCompiled()
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeValidation, "action %q has an invalid params schema", d.Name).WithCause(err)
		}
		doc, err := normalizeParams(params)
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeValidation, "action %q params are not serializable", d.Name).WithCause(err)
		}
		if err := compiled.Validate(doc); err != nil {
			return schema.NewErrorf(schema.ErrCodeValidation, "action %q params: %s", d.Name, err.Error()).WithCause(err)
		}
	}

	if d.check != nil {
		if err := d.check(params); err != nil {
			return schema.NewErrorf(schema.ErrCodeValidation, "action %q params: %s", d.Name, err.Error()).WithCause(err)
		}
	}
	return nil
}

// schemaCompiled compiles ParamsSchema once and caches the result.
func (d *Definition) schemaCompiled() (*jsonschema.Schema, error) {
	d.compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat()

		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(d.ParamsSchema))
		if err != nil {
			d.compileErr = err
			return
		}
		url := fmt.Sprintf("https://craftbase.dev/schemas/actions/%s.json", d.Name)
		if err := c.AddResource(url, doc); err != nil {
			d.compileErr = err
			return
		}
		d.compiled, d.compileErr = c.Compile(url)
	})
	return d.compiled, d.compileErr
}

// normalizeParams round-trips params through JSON encoding so numbers become
// json.Number, as the jsonschema library requires. Nil params validate as an
// empty object.
func normalizeParams(params map[string]any) (any, error) {
	if params == nil {
		params = map[string]any{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// Registry is a thread-safe action catalog.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition. Returns an error on duplicate or empty name.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return schema.NewError(schema.ErrCodeValidation, "action definition is nil")
	}
	if def.Name == "" {
		return schema.NewError(schema.ErrCodeValidation, "action name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict, "action %q already registered", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// Get retrieves a definition by name.
func (r *Registry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "action %q not registered", name)
	}
	return def, nil
}

// Has checks whether an action is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[name]
	return ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// ValidateParams looks up an action and validates params against it.
func (r *Registry) ValidateParams(name string, params map[string]any) error {
	def, err := r.Get(name)
	if err != nil {
		return err
	}
	return def.ValidateParams(params)
}
