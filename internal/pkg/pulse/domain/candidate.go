package pulse

import "time"

// AgeRange bounds acceptable candidate ages. Zero values fall back to the
// platform-wide defaults (18..100).
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

const (
	defaultAgeMin = 18
	defaultAgeMax = 100
)

// Bounds returns the effective min/max with defaults applied.
func (r AgeRange) Bounds() (int, int) {
	min, max := r.Min, r.Max
	if min == 0 {
		min = defaultAgeMin
	}
	if max == 0 {
		max = defaultAgeMax
	}
	return min, max
}

// Preferences is the matching-relevant slice of a user's settings.
// GenderPreferences maps gender -> wanted; RelationshipType maps
// relationship kind -> wanted. Both tolerate unknown keys.
type Preferences struct {
	GenderPreferences map[string]bool `json:"gender_preferences"`
	AgeRange          AgeRange        `json:"age_range"`
	RelationshipType  map[string]bool `json:"relationship_type"`
}

// CandidateProfile is a read-only projection of another user for matching.
// It is sourced from the profile collaborator and never mutated here.
type CandidateProfile struct {
	UserID      string
	Lat         float64
	Lng         float64
	HasLocation bool
	Gender      string
	BirthDate   time.Time
	Preferences Preferences
	LastSeenAt  time.Time
}

// Age derives the candidate's age in whole years at the given instant.
func (p *CandidateProfile) Age(now time.Time) int {
	if p.BirthDate.IsZero() {
		return 0
	}
	years := now.Year() - p.BirthDate.Year()
	if now.YearDay() < p.BirthDate.YearDay() {
		years--
	}
	return years
}

// Complete reports whether the profile carries everything matching needs:
// a location, a gender, and a birth date. Requesters with incomplete
// profiles fail the whole feed request upstream with a validation error.
func (p *CandidateProfile) Complete() bool {
	return p != nil && p.HasLocation && p.Gender != "" && !p.BirthDate.IsZero()
}

// Wants reports whether the profile's gender preferences accept the gender.
// An absent preference map accepts everyone.
func (p *CandidateProfile) Wants(gender string) bool {
	if len(p.Preferences.GenderPreferences) == 0 {
		return true
	}
	return p.Preferences.GenderPreferences[gender]
}

// AcceptsAge reports whether age falls within the profile's age range.
func (p *CandidateProfile) AcceptsAge(age int) bool {
	min, max := p.Preferences.AgeRange.Bounds()
	return age >= min && age <= max
}

// Compatibility indicator tags. Informational only; they never affect
// inclusion or exclusion of a candidate.
const (
	IndicatorSharedRelationshipGoals = "shared_relationship_goals"
	IndicatorActiveLocally           = "active_locally"
)

// CompatibilityIndicators computes the overlap signals between the requester
// and a candidate for UI display.
func CompatibilityIndicators(requester, candidate *CandidateProfile, recentArtifacts int) []string {
	indicators := []string{}

	shared := false
	for kind, wanted := range requester.Preferences.RelationshipType {
		if wanted && candidate.Preferences.RelationshipType[kind] {
			shared = true
			break
		}
	}
	if shared {
		indicators = append(indicators, IndicatorSharedRelationshipGoals)
	}
	if recentArtifacts > 0 {
		indicators = append(indicators, IndicatorActiveLocally)
	}
	return indicators
}
