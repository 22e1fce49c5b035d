package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/aristath/clusterfolio/internal/domain"
	"gopkg.in/yaml.v3"
)

// profileNamePattern keeps profile names usable in report file names.
var profileNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ProfilesConfig is the ordered list of investor profiles.
type ProfilesConfig struct {
	Profiles []domain.Profile `yaml:"profiles"`
}

// DefaultProfiles returns the five standard investor profiles. Distributions
// are keyed by the default segment labels (see domain.DefaultSegmentNames).
func DefaultProfiles() *ProfilesConfig {
	const (
		outliers        = domain.OutlierLabel
		conservative    = domain.SegmentLabel(0)
		highPerformance = domain.SegmentLabel(1)
		moderate        = domain.SegmentLabel(2)
		stable          = domain.SegmentLabel(3)
	)
	return &ProfilesConfig{Profiles: []domain.Profile{
		{
			Name:         "conservative",
			Description:  "Capital preservation with low volatility",
			Distribution: domain.Distribution{stable: 5, conservative: 3, moderate: 2},
		},
		{
			Name:         "moderate",
			Description:  "Balanced growth and stability",
			Distribution: domain.Distribution{highPerformance: 4, moderate: 3, stable: 3},
		},
		{
			Name:         "aggressive",
			Description:  "Growth focused with speculative exposure",
			Distribution: domain.Distribution{highPerformance: 7, moderate: 2, outliers: 1},
		},
		{
			Name:         "speculative",
			Description:  "Maximum return seeking, high risk tolerance",
			Distribution: domain.Distribution{highPerformance: 5, outliers: 3, moderate: 2},
		},
		{
			Name:        "balanced",
			Description: "Even exposure across every segment",
			Distribution: domain.Distribution{
				outliers: 2, conservative: 2, highPerformance: 2, moderate: 2, stable: 2,
			},
		},
	}}
}

// LoadProfiles reads a profiles file. A missing file is ErrInputNotFound.
func LoadProfiles(path string) (*ProfilesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("profiles file %s: %w", path, domain.ErrInputNotFound)
		}
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var pc ProfilesConfig
	if err := yaml.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file %s: %w", path, err)
	}
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	return &pc, nil
}

// Validate rejects unnamed or duplicate profiles and negative counts.
func (pc *ProfilesConfig) Validate() error {
	if len(pc.Profiles) == 0 {
		return fmt.Errorf("no profiles configured")
	}
	seen := make(map[string]bool, len(pc.Profiles))
	for _, p := range pc.Profiles {
		if p.Name == "" {
			return fmt.Errorf("profile without name")
		}
		if !profileNamePattern.MatchString(p.Name) {
			return fmt.Errorf("profile %q: name may only contain letters, digits, '-' and '_'", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = true
		for label, n := range p.Distribution {
			if n < 0 {
				return fmt.Errorf("profile %q: negative count %d for segment %d", p.Name, n, label)
			}
		}
	}
	return nil
}

// Find returns the profile named name.
func (pc *ProfilesConfig) Find(name string) (domain.Profile, bool) {
	for _, p := range pc.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return domain.Profile{}, false
}

// Names returns profile names in configured order.
func (pc *ProfilesConfig) Names() []string {
	out := make([]string, len(pc.Profiles))
	for i, p := range pc.Profiles {
		out[i] = p.Name
	}
	return out
}
