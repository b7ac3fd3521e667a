package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stembed/internal/embed"
	"github.com/roach88/stembed/internal/theory"
)

// Scenario defines a conformance test scenario: one solve and its expected
// verdict.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name" validate:"required"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" validate:"required"`

	// Specs is a directory of CUE definitions, relative to the scenario
	// file. When empty the built-in catalog is used.
	Specs string `yaml:"specs,omitempty"`

	// Implementation and Spacetime name the definitions to solve.
	Implementation string `yaml:"implementation" validate:"required"`
	Spacetime      string `yaml:"spacetime" validate:"required"`

	// Theory is classical, quantum or boxworld.
	Theory string `yaml:"theory" validate:"required,theory"`

	// MaxNonlocal caps how many edges may use the nonlocal exception.
	// Zero means unlimited.
	MaxNonlocal int `yaml:"max_nonlocal,omitempty" validate:"gte=0"`

	// Timeout bounds the solve; zero uses the solver default.
	Timeout time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`

	// Pin fixes boundary nodes to points before the search.
	Pin map[string]string `yaml:"pin,omitempty" validate:"dive,keys,required,endkeys,required"`

	// Expect is the expected verdict.
	Expect Expect `yaml:"expect"`
}

// Expect specifies the expected verdict.
type Expect struct {
	// Status is found, exhausted or timed_out.
	Status string `yaml:"status" validate:"required,status"`

	// Witness, when set, must equal the witness exactly.
	Witness map[string]string `yaml:"witness,omitempty"`

	// Reason, when set, must be a substring of the result reason.
	Reason string `yaml:"reason,omitempty"`
}

// scenarioValidate is the validator instance for scenarios.
// Initialized in init() with custom validators.
var scenarioValidate *validator.Validate

func init() {
	scenarioValidate = validator.New()
	scenarioValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		return name
	})
	_ = scenarioValidate.RegisterValidation("theory", validateTheory)
	_ = scenarioValidate.RegisterValidation("status", validateStatus)
}

func validateTheory(fl validator.FieldLevel) bool {
	_, err := theory.Parse(fl.Field().String())
	return err == nil
}

func validateStatus(fl validator.FieldLevel) bool {
	_, err := embed.ParseStatus(fl.Field().String())
	return err == nil
}

// Validate checks required fields and value domains.
func (s *Scenario) Validate() error {
	err := scenarioValidate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = describeFieldError(fe)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// describeFieldError renders a field error with its YAML path.
func describeFieldError(fe validator.FieldError) string {
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}
	switch fe.Tag() {
	case "required":
		return path + " is required"
	case "theory":
		return fmt.Sprintf("%s: unknown theory %q", path, fe.Value())
	case "status":
		return fmt.Sprintf("%s: unknown status %q", path, fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be non-negative", path)
	default:
		return fmt.Sprintf("%s failed %s", path, fe.Tag())
	}
}

// ParseScenario decodes scenario YAML. Spec paths are resolved relative to
// baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Specs != "" && !filepath.IsAbs(scenario.Specs) && baseDir != "" {
		scenario.Specs = filepath.Join(baseDir, scenario.Specs)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.Specs != "" {
		if _, err := os.Stat(scenario.Specs); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: specs directory not found: %s", scenario.Specs)
		}
	}
	return &scenario, nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name. When filter is non-empty only scenarios whose name matches the
// glob are returned.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var scenarios []*Scenario
	seen := make(map[string]string)
	for _, f := range files {
		s, err := LoadScenario(f)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, prev, f)
		}
		seen[s.Name] = f
		if filter != "" {
			if ok, _ := filepath.Match(filter, s.Name); !ok {
				continue
			}
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
