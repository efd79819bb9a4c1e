package modelfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-rxnet/pkg/logging"
	"github.com/dd0wney/cluso-rxnet/pkg/model"
)

// Load reads a YAML model document from disk and assembles it.
func Load(path string, logger logging.Logger) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	m, err := Parse(data, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a YAML model document and assembles it through the model
// builder, so rule and pattern mistakes carry the builder's error kinds.
func Parse(data []byte, logger logging.Logger) (*model.Model, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode model document: %w", err)
	}
	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return assemble(&doc, logger)
}

func assemble(doc *Document, logger logging.Logger) (*model.Model, error) {
	b := model.NewModelBuilder(doc.Name)

	for _, m := range doc.Molecules {
		if err := b.DeclareMolecule(m.Name, m.Sites, m.States); err != nil {
			return nil, err
		}
	}
	for _, p := range doc.Parameters {
		if err := b.DeclareParameter(p.Name, p.Value); err != nil {
			return nil, err
		}
	}
	for _, r := range doc.Rules {
		reactants, err := convertComplexes(r.Reactants)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		products, err := convertComplexes(r.Products)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		switch {
		case r.Scale != nil:
			if r.Reverse != "" {
				return nil, fmt.Errorf("rule %s: scale and reverse cannot be combined", r.Name)
			}
			err = b.AddScaledRule(r.Name, reactants, products, r.Forward, *r.Scale)
		case r.Reverse != "":
			if r.Reverse == r.Forward {
				logger.Warn("reversible rule drives both directions with one parameter",
					logging.RuleName(r.Name), logging.String("parameter", r.Forward))
			}
			err = b.AddReversibleRule(r.Name, reactants, products, r.Forward, r.Reverse)
		default:
			err = b.AddRule(r.Name, reactants, products, r.Forward)
		}
		if err != nil {
			return nil, err
		}
	}
	for i, s := range doc.Seeds {
		p, err := convertComplex(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
		if err := b.AddSeed(p, s.Amount); err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
	}
	for _, o := range doc.Observables {
		p, err := convertComplex(o.Pattern)
		if err != nil {
			return nil, fmt.Errorf("observable %s: %w", o.Name, err)
		}
		if err := b.AddObservable(o.Name, p); err != nil {
			return nil, err
		}
	}

	m, err := b.Build()
	if err != nil {
		return nil, err
	}
	logger.Info("model loaded",
		logging.ModelName(m.Name),
		logging.Int("molecule_types", len(m.Registry.Names())),
		logging.Int("rules", len(m.Rules)),
		logging.Int("seeds", len(m.Seeds)),
		logging.Int("observables", len(m.Observables)))
	return m, nil
}

func convertComplexes(specs []ComplexSpec) ([]model.Pattern, error) {
	out := make([]model.Pattern, 0, len(specs))
	for i, c := range specs {
		p, err := convertComplex(c)
		if err != nil {
			return nil, fmt.Errorf("complex %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func convertComplex(c ComplexSpec) (model.Pattern, error) {
	mols := make([]model.MolPattern, 0, len(c))
	for _, ms := range c {
		mp := model.Mol(ms.Mol)
		for site, ss := range ms.Sites {
			if ss.State != "" {
				mp = mp.State(site, ss.State)
			}
			switch ss.Bond.Kind {
			case BondFree:
				mp = mp.Free(site)
			case BondBound:
				mp = mp.BoundAny(site)
			case BondNumbered:
				mp = mp.Bond(site, ss.Bond.Label)
			}
		}
		mols = append(mols, mp)
	}
	return model.Complex(mols...), nil
}
