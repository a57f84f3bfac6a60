package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrSchemaViolation is returned when a function event does not match its schema.
var ErrSchemaViolation = errors.New("function event does not match its schema")

// Mode controls what happens when an event fails schema validation.
type Mode string

const (
	// ModeError fails the build.
	ModeError Mode = "error"
	// ModeWarn logs the violation and continues.
	ModeWarn Mode = "warn"
	// ModeOff skips schema validation.
	ModeOff Mode = "off"
)

// ParseMode parses a validation mode name. The empty string selects ModeWarn.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeWarn, nil
	case ModeError, ModeWarn, ModeOff:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown validation mode %q (want error, warn or off)", s)
	}
}

// Registry holds the compiled schemas of function events, keyed by provider and event name.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
	raw     map[string]map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*jsonschema.Schema),
		raw:     make(map[string]map[string]any),
	}
}

func key(provider, event string) string {
	return provider + "/" + event
}

func schemaURL(provider, event string) string {
	return fmt.Sprintf("https://schemas.wetwire.dev/function-events/%s/%s.json", provider, event)
}

// DefineFunctionEvent compiles and registers the schema of a function event.
func (r *Registry) DefineFunctionEvent(provider, event string, schema map[string]any) error {
	doc, err := toJSONValue(schema)
	if err != nil {
		return fmt.Errorf("encoding %s schema: %w", event, err)
	}

	url := schemaURL(provider, event)
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return fmt.Errorf("adding %s schema: %w", event, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return fmt.Errorf("compiling %s schema: %w", event, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(provider, event)
	if _, exists := r.schemas[k]; exists {
		return fmt.Errorf("function event %s is already defined for provider %s", event, provider)
	}
	r.schemas[k] = compiled
	r.raw[k] = schema
	return nil
}

// Defined reports whether a schema exists for the event.
func (r *Registry) Defined(provider, event string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[key(provider, event)]
	return ok
}

// Schema returns the raw schema registered for the event, or nil.
func (r *Registry) Schema(provider, event string) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.raw[key(provider, event)]
}

// Events lists the registered events as "provider/event", sorted.
func (r *Registry) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		events = append(events, k)
	}
	sort.Strings(events)
	return events
}

// ValidateFunctionEvent validates one event value. Events without a
// registered schema are accepted.
func (r *Registry) ValidateFunctionEvent(provider, event string, value any) error {
	r.mu.RLock()
	compiled, ok := r.schemas[key(provider, event)]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	inst, err := toJSONValue(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaViolation, event, err)
	}
	if err := compiled.Validate(inst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaViolation, event, err)
	}
	return nil
}

// toJSONValue converts v to the value shapes the validator expects.
func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}
