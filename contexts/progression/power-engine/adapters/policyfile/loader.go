package policyfile

import (
	"fmt"
	"os"
	"strings"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a scoring policy. Every key is optional;
// omitted keys keep the built-in value, explicit zeros are kept as written,
// and category_multipliers entries override the built-in kinds one by one.
type File struct {
	Version string          `yaml:"version"`
	Policy  services.Policy `yaml:"policy"`
	Tiers   []TierSpec      `yaml:"tiers"`
}

type TierSpec struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	PointsRequired int64  `yaml:"points_required"`
}

type Loaded struct {
	Policy services.Policy
	Ladder services.Ladder
}

// Load reads a policy file. An empty path yields the defaults.
func Load(path string) (Loaded, error) {
	if strings.TrimSpace(path) == "" {
		return Defaults(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	return Parse(b)
}

func Parse(b []byte) (Loaded, error) {
	file := File{Policy: services.DefaultPolicy()}
	if err := yaml.Unmarshal(b, &file); err != nil {
		return Loaded{}, fmt.Errorf("%w: %v", domainerrors.ErrInvalidPolicy, err)
	}

	policy := file.Policy
	if err := policy.Validate(); err != nil {
		return Loaded{}, err
	}

	ladder := services.DefaultLadder()
	if len(file.Tiers) > 0 {
		tiers := make([]entities.TierThreshold, 0, len(file.Tiers))
		for _, spec := range file.Tiers {
			if strings.TrimSpace(spec.ID) == "" {
				return Loaded{}, fmt.Errorf("%w: tier without id", domainerrors.ErrInvalidPolicy)
			}
			tiers = append(tiers, entities.TierThreshold{
				TierID:         entities.TierID(strings.TrimSpace(spec.ID)),
				Name:           spec.Name,
				PointsRequired: spec.PointsRequired,
			})
		}
		var err error
		ladder, err = services.NewLadder(tiers)
		if err != nil {
			return Loaded{}, err
		}
	}
	return Loaded{Policy: policy, Ladder: ladder}, nil
}

func Defaults() Loaded {
	return Loaded{
		Policy: services.DefaultPolicy(),
		Ladder: services.DefaultLadder(),
	}
}
