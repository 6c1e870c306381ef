package asyncapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/LocalHostDiluk/reinicializado/pkg/cloudevents"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// EventValidator validates CloudEvent payloads against the schemas of an
// AsyncAPI document.
type EventValidator struct {
	schemas map[string]*jsonschema.Schema
}

// Spec is the part of an AsyncAPI 3 document the validator reads.
type Spec struct {
	AsyncAPI   string             `yaml:"asyncapi"`
	Info       Info               `yaml:"info"`
	Channels   map[string]Channel `yaml:"channels"`
	Components Components         `yaml:"components"`
}

// Info contains AsyncAPI info section.
type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// Channel is a Kafka topic and the messages sent on it.
type Channel struct {
	Address  string                 `yaml:"address"`
	Messages map[string]interface{} `yaml:"messages"`
}

// Components contains reusable components.
type Components struct {
	Schemas  map[string]interface{} `yaml:"schemas"`
	Messages map[string]Message     `yaml:"messages"`
}

// Message binds an event type (its name) to a payload schema reference.
type Message struct {
	Name    string            `yaml:"name"`
	Payload map[string]string `yaml:"payload"`
}

const schemaRefPrefix = "#/components/schemas/"

// NewEventValidatorFromBytes compiles the payload schema of every message
// declared in components.messages. Messages sharing a schema share the
// compiled schema.
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var spec Spec
	if err := yaml.Unmarshal(specBytes, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	schemas := make(map[string]*jsonschema.Schema)
	compiledByName := make(map[string]*jsonschema.Schema)

	for messageName, message := range spec.Components.Messages {
		if message.Name == "" {
			return nil, fmt.Errorf("message %s has no name", messageName)
		}
		ref := message.Payload["$ref"]
		if !strings.HasPrefix(ref, schemaRefPrefix) {
			return nil, fmt.Errorf("message %s: payload must reference %s", messageName, schemaRefPrefix)
		}
		schemaName := strings.TrimPrefix(ref, schemaRefPrefix)
		compiled, ok := compiledByName[schemaName]
		if !ok {
			raw, found := spec.Components.Schemas[schemaName]
			if !found {
				return nil, fmt.Errorf("message %s: schema %s not found", messageName, schemaName)
			}
			var err error
			compiled, err = compileSchema(compiler, "asyncapi://schemas/"+schemaName, raw)
			if err != nil {
				return nil, fmt.Errorf("message %s: %w", messageName, err)
			}
			compiledByName[schemaName] = compiled
		}
		schemas[message.Name] = compiled
	}

	return &EventValidator{schemas: schemas}, nil
}

// compileSchema round-trips the YAML value through JSON so numbers arrive in
// the form the compiler expects.
func compileSchema(compiler *jsonschema.Compiler, uri string, raw interface{}) (*jsonschema.Schema, error) {
	schemaJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	if err := compiler.AddResource(uri, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// ValidateEvent checks the envelope and validates the data payload against
// the schema registered for the event type.
func (v *EventValidator) ValidateEvent(event *cloudevents.CloudEvent) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.ID == "" || event.Source == "" {
		return fmt.Errorf("event %s: id and source are required", event.Type)
	}

	schema, ok := v.schemas[event.Type]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", event.Type)
	}
	if len(event.Data) == 0 {
		return fmt.Errorf("event data is required")
	}

	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(event.Data))
	if err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}

	if err := schema.Validate(data); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", event.Type, err)
	}
	return nil
}

// ValidateEventJSON validates a structured-mode CloudEvent.
func (v *EventValidator) ValidateEventJSON(eventJSON []byte) error {
	var event cloudevents.CloudEvent
	if err := json.Unmarshal(eventJSON, &event); err != nil {
		return fmt.Errorf("failed to parse CloudEvent: %w", err)
	}
	return v.ValidateEvent(&event)
}

// SupportedEventTypes returns the event types with a schema, sorted.
func (v *EventValidator) SupportedEventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for eventType := range v.schemas {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}

// HasSchema checks if a schema exists for the given event type.
func (v *EventValidator) HasSchema(eventType string) bool {
	_, ok := v.schemas[eventType]
	return ok
}
