package generator

import (
	"fmt"
	"sort"
	"strings"
)

// Profile fixes the volume of one generated dataset
type Profile struct {
	Name string
	// Scale multiplies the per-period operational document counts
	Scale float64
	// AccountTarget is the account master size the builder pads to
	AccountTarget int
	// AccountMin and AccountMax bound the acceptable master size
	AccountMin int
	AccountMax int
	// MinPostings is the fewest posting lines the profile must produce
	MinPostings int
}

const (
	ProfileFull    = "full"
	ProfileCompact = "compact"
)

var profiles = map[string]Profile{
	ProfileFull: {
		Name:          ProfileFull,
		Scale:         1.0,
		AccountTarget: 3100,
		AccountMin:    2800,
		AccountMax:    3500,
		MinPostings:   1_000_000,
	},
	ProfileCompact: {
		Name:          ProfileCompact,
		Scale:         0.5,
		AccountTarget: 2500,
		AccountMin:    2400,
		AccountMax:    2600,
		MinPostings:   500_000,
	},
}

// LookupProfile returns the named profile
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (valid: %s)", name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames lists the known profiles in sorted order
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
