package workflow

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"gradepipe/internal/event"
	"gradepipe/internal/trigger"
)

// Definition is a parsed pipeline definition file.
//
// The file format is modeled on the workflow this tool grew out of: a
// list of trigger kinds, an actor exclusion list, a permissions grant
// map, and a linear sequence of steps. There are no branches, no loops
// and no parallel jobs; steps run in file order until one fails.
type Definition struct {
	Name          string            `yaml:"name"`
	On            []string          `yaml:"on"`
	ExcludeActors []string          `yaml:"exclude-actors"`
	Permissions   map[string]string `yaml:"permissions"`
	Steps         []Step            `yaml:"steps"`
}

// Step is one pipeline step: which registered step kind to invoke and
// its settings. ID is optional; the planner defaults it to the step kind.
type Step struct {
	ID   string
	Uses string
	With map[string]string
}

// rawStep exists so `with:` values may be written as bare YAML scalars
// (timeout: 10) and still land in a string map.
type rawStep struct {
	ID   string         `yaml:"id"`
	Uses string         `yaml:"uses"`
	With map[string]any `yaml:"with"`
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var raw rawStep
	if err := node.Decode(&raw); err != nil {
		return err
	}
	s.ID = raw.ID
	s.Uses = raw.Uses
	if raw.With != nil {
		s.With = make(map[string]string, len(raw.With))
		for k, v := range raw.With {
			switch v.(type) {
			case map[string]any, []any:
				return fmt.Errorf("step %q: with.%s must be a scalar", raw.Uses, k)
			case nil:
				s.With[k] = ""
			default:
				s.With[k] = fmt.Sprint(v)
			}
		}
	}
	return nil
}

var permissionScopes = map[string]struct{}{
	"actions":  {},
	"checks":   {},
	"contents": {},
}

// Parse parses and validates a pipeline definition.
func Parse(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("workflow file is not valid YAML: %w", err)
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and parses a pipeline definition file.
func Load(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	def, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

func (d *Definition) validate() error {
	if len(d.On) == 0 {
		return fmt.Errorf("workflow declares no trigger events (on:)")
	}
	for _, k := range d.On {
		if !event.Known(event.Kind(k)) {
			return fmt.Errorf("unsupported trigger event %q (supported: %s, %s)", k, event.KindPush, event.KindRepositoryDispatch)
		}
	}

	for scope, access := range d.Permissions {
		if _, ok := permissionScopes[scope]; !ok {
			return fmt.Errorf("unknown permission scope %q", scope)
		}
		switch strings.ToLower(strings.TrimSpace(access)) {
		case "read", "write", "none":
		default:
			return fmt.Errorf("permission %s: access must be read, write or none, got %q", scope, access)
		}
	}

	if len(d.Steps) == 0 {
		return fmt.Errorf("workflow declares no steps")
	}
	seen := make(map[string]struct{})
	for i, s := range d.Steps {
		if strings.TrimSpace(s.Uses) == "" {
			return fmt.Errorf("step %d: missing uses", i+1)
		}
		if s.ID == "" {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// Gate builds the trigger gate declared by this workflow.
func (d *Definition) Gate() trigger.Gate {
	kinds := make([]event.Kind, 0, len(d.On))
	for _, k := range d.On {
		kinds = append(kinds, event.Kind(k))
	}
	return trigger.Gate{Kinds: kinds, ExcludeActors: d.ExcludeActors}
}

// Allows reports whether the workflow grants at least the given access on
// a permission scope. Write implies read. An absent scope grants nothing.
func (d *Definition) Allows(scope, access string) bool {
	granted, ok := d.Permissions[scope]
	if !ok {
		return false
	}
	granted = strings.ToLower(strings.TrimSpace(granted))
	switch strings.ToLower(access) {
	case "read":
		return granted == "read" || granted == "write"
	case "write":
		return granted == "write"
	default:
		return false
	}
}
