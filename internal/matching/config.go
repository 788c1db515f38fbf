package matching

import "github.com/jonathan/career-roadmap/internal/config"

// Config holds the matcher tunables.
type Config struct {
	Threshold                 float64 // best similarity needed for partially_matched
	MatchedThreshold          float64 // best similarity needed for matched
	TopSectionsPerRequirement int
	ExactMatchBoost           float64
	ContainmentFloor          float64 // similarity given to a requirement whose core phrase appears verbatim in a section
	DegenerateBelow           float64 // the containment floor only replaces similarities below this
	TopFraction               float64 // share of requirement scores averaged into the overall score
	SectionTextLength         int
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		Threshold:                 0.5,
		MatchedThreshold:          0.75,
		TopSectionsPerRequirement: 3,
		ExactMatchBoost:           0.05,
		ContainmentFloor:          0.6,
		DegenerateBelow:           0.2,
		TopFraction:               0.75,
		SectionTextLength:         200,
	}
}

// ConfigFrom builds a Config from the application configuration, keeping
// defaults for unset values.
func ConfigFrom(mc config.MatchingConfig) Config {
	c := DefaultConfig()
	if mc.Threshold > 0 {
		c.Threshold = mc.Threshold
	}
	if mc.MatchedThreshold > 0 {
		c.MatchedThreshold = mc.MatchedThreshold
	}
	if mc.TopSections > 0 {
		c.TopSectionsPerRequirement = mc.TopSections
	}
	if mc.ExactMatchBoost > 0 {
		c.ExactMatchBoost = mc.ExactMatchBoost
	}
	if mc.ContainmentFloor > 0 {
		c.ContainmentFloor = mc.ContainmentFloor
	}
	if mc.DegenerateBelow > 0 {
		c.DegenerateBelow = mc.DegenerateBelow
	}
	if mc.TopFraction > 0 {
		c.TopFraction = mc.TopFraction
	}
	if mc.SectionTextLength > 0 {
		c.SectionTextLength = mc.SectionTextLength
	}
	return c
}
