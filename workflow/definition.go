package workflow

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/toolflow/validation"
)

// Definition is the YAML form of a pipeline.
//
//	name: release
//	includes: [checks]
//	steps:
//	  - name: build
//	    tool: go
//	    method: build
//	    args: ["./..."]
//	  - name: e2e
//	    pipeline: e2e-suite
//	    depends_on: [build]
//	    continue_on_error: true
type Definition struct {
	Name        string `yaml:"name" validate:"required,stepname"`
	Description string `yaml:"description,omitempty"`
	// Includes merges the steps of other definitions into this one.
	Includes []string  `yaml:"includes,omitempty" validate:"dive,stepname"`
	Steps    []StepDef `yaml:"steps" validate:"dive"`
}

// StepDef defines one step. Exactly one of Tool or Pipeline is set: a tool
// step invokes Tool.Method with Args, a pipeline step embeds the named
// definition as a sub-pipeline.
type StepDef struct {
	Name            string   `yaml:"name" validate:"required,stepname"`
	Tool            string   `yaml:"tool,omitempty" validate:"required_without=Pipeline,excluded_with=Pipeline"`
	Method          string   `yaml:"method,omitempty" validate:"required_with=Tool"`
	Args            []any    `yaml:"args,omitempty"`
	DependsOn       []string `yaml:"depends_on,omitempty" validate:"dive,stepname"`
	Retries         int      `yaml:"retries,omitempty" validate:"gte=0"`
	ContinueOnError bool     `yaml:"continue_on_error,omitempty"`
	// Condition names an entry of BuildOptions.Conditions or a built-in.
	Condition string `yaml:"condition,omitempty"`
	Pipeline  string `yaml:"pipeline,omitempty"`
}

// ParseDefinition decodes and validates a YAML definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("workflow: parsing definition: %w", err)
	}
	if err := validation.Validate(def); err != nil {
		return nil, err
	}
	if err := def.check(); err != nil {
		return nil, err
	}
	return &def, nil
}

// check covers rules spanning several steps.
func (d *Definition) check() error {
	v := validation.New()
	seen := make(map[string]bool, len(d.Steps))
	for i, sd := range d.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		v.Custom(!seen[sd.Name], field+".name", fmt.Sprintf("duplicate step %q", sd.Name))
		v.Custom(sd.Pipeline != d.Name, field+".pipeline", "cannot embed the enclosing pipeline")
		seen[sd.Name] = true
	}
	for i, inc := range d.Includes {
		v.Custom(inc != d.Name, fmt.Sprintf("includes[%d]", i), "cannot include itself")
	}
	return v.Validate()
}

// LoadDefinitionFile reads and parses one definition file.
func LoadDefinitionFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}
