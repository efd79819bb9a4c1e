// Package modelfile loads rule-based models from YAML documents. A document
// declares molecule types, parameters, rules, seed species, and observables;
// Load assembles them through the model builder so every document-level
// mistake surfaces as a model validation error with the offending name.
package modelfile

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// namePattern covers molecule, site, parameter, rule, and observable
	// names: the same identifier alphabet the generated network exports use.
	namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

func init() {
	validate = validator.New()
}

// Document is the top-level YAML model schema.
type Document struct {
	Name        string           `yaml:"name" validate:"required,min=1,max=100"`
	Molecules   []MoleculeSpec   `yaml:"molecules" validate:"required,min=1,dive"`
	Parameters  []ParameterSpec  `yaml:"parameters" validate:"omitempty,dive"`
	Rules       []RuleSpec       `yaml:"rules" validate:"omitempty,dive"`
	Seeds       []SeedSpec       `yaml:"seeds" validate:"omitempty,dive"`
	Observables []ObservableSpec `yaml:"observables" validate:"omitempty,dive"`
}

// MoleculeSpec declares one molecule type with its sites and, for stateful
// sites, the allowed state labels.
type MoleculeSpec struct {
	Name   string              `yaml:"name" validate:"required"`
	Sites  []string            `yaml:"sites" validate:"omitempty,dive,min=1"`
	States map[string][]string `yaml:"states" validate:"omitempty"`
}

// ParameterSpec names one rate constant.
type ParameterSpec struct {
	Name  string  `yaml:"name" validate:"required"`
	Value float64 `yaml:"value"`
}

// RuleSpec declares one rule. Reactants and products are lists of complexes;
// a rule with a reverse parameter is reversible. Scale, when set, replaces
// the computed symmetry factor.
type RuleSpec struct {
	Name      string        `yaml:"name" validate:"required"`
	Reactants []ComplexSpec `yaml:"reactants" validate:"omitempty,dive"`
	Products  []ComplexSpec `yaml:"products" validate:"omitempty,dive"`
	Forward   string        `yaml:"forward" validate:"required"`
	Reverse   string        `yaml:"reverse"`
	Scale     *float64      `yaml:"scale" validate:"omitempty,gt=0"`
}

// ComplexSpec is one connected pattern: a list of molecules whose numbered
// bonds pair up within the list.
type ComplexSpec []MolSpec

// MolSpec is one molecule position inside a complex.
type MolSpec struct {
	Mol   string              `yaml:"mol" validate:"required"`
	Sites map[string]SiteSpec `yaml:"sites" validate:"omitempty"`
}

// SiteSpec constrains one site. Bond is "none", "any", "?", or a bond
// number; an absent bond key leaves the binding status unconstrained, same
// as "?". State constrains the site's state label.
type SiteSpec struct {
	Bond  BondSpec `yaml:"bond"`
	State string   `yaml:"state"`
}

// SeedSpec places an initial population of one concrete species.
type SeedSpec struct {
	Pattern ComplexSpec `yaml:"pattern" validate:"required,min=1,dive"`
	Amount  float64     `yaml:"amount" validate:"gte=0"`
}

// ObservableSpec names a pattern whose weighted embedding count is reported.
type ObservableSpec struct {
	Name    string      `yaml:"name" validate:"required"`
	Pattern ComplexSpec `yaml:"pattern" validate:"required,min=1,dive"`
}

// BondKind distinguishes the binding constraints a site spec can carry.
type BondKind int

const (
	// BondOmitted leaves the binding status unconstrained.
	BondOmitted BondKind = iota
	// BondFree requires the site to be unbound.
	BondFree
	// BondBound requires the site to be bound to any partner.
	BondBound
	// BondNumbered requires the site to be bound to the site carrying the
	// same number elsewhere in the complex.
	BondNumbered
)

// BondSpec is the YAML form of a binding constraint: the scalar "none",
// "any", "?", or a positive bond number.
type BondSpec struct {
	Kind  BondKind
	Label int
}

// UnmarshalYAML accepts "none", "any", "?", or an integer bond label.
func (b *BondSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("bond: expected scalar, got %s", value.Tag)
	}
	switch value.Value {
	case "none":
		b.Kind = BondFree
		return nil
	case "any":
		b.Kind = BondBound
		return nil
	case "?", "":
		b.Kind = BondOmitted
		return nil
	}
	var n int
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("bond: %q is not none, any, ?, or a bond number", value.Value)
	}
	if n < 1 {
		return fmt.Errorf("bond: number must be positive, got %d", n)
	}
	b.Kind = BondNumbered
	b.Label = n
	return nil
}

// MarshalYAML writes the bond back in its scalar form.
func (b BondSpec) MarshalYAML() (any, error) {
	switch b.Kind {
	case BondFree:
		return "none", nil
	case BondBound:
		return "any", nil
	case BondNumbered:
		return b.Label, nil
	default:
		return "?", nil
	}
}

// validateDocument applies the struct tags plus the name checks the tags
// cannot express.
func validateDocument(doc *Document) error {
	if err := validate.Struct(doc); err != nil {
		return formatValidationError(err)
	}
	if !namePattern.MatchString(doc.Name) {
		return fmt.Errorf("name: %q contains invalid characters (only alphanumeric and underscore allowed)", doc.Name)
	}
	for _, m := range doc.Molecules {
		if !namePattern.MatchString(m.Name) {
			return fmt.Errorf("molecules: name %q contains invalid characters", m.Name)
		}
	}
	for _, p := range doc.Parameters {
		if !namePattern.MatchString(p.Name) {
			return fmt.Errorf("parameters: name %q contains invalid characters", p.Name)
		}
	}
	for _, r := range doc.Rules {
		if !namePattern.MatchString(r.Name) {
			return fmt.Errorf("rules: name %q contains invalid characters", r.Name)
		}
	}
	for _, o := range doc.Observables {
		if !namePattern.MatchString(o.Name) {
			return fmt.Errorf("observables: name %q contains invalid characters", o.Name)
		}
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
