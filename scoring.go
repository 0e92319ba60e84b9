package main

import (
	"math"
	"strings"
)

// Education levels form a fixed ordinal ladder. Anything else ranks 0
// (unknown) and falls back to the neutral 0.5 in every comparison.
var eduRank = map[string]int{
	"high school": 1,
	"diploma":     2,
	"bachelors":   3,
	"masters":     4,
	"phd":         5,
}

// Occupation groups for the partial job match. Membership is deliberately
// coarse; anything unlisted lands in "other".
var occupationGroups = map[string]string{
	"software engineer": "tech",
	"developer":         "tech",
	"data engineer":     "tech",
	"data scientist":    "tech",
	"designer":          "design",
	"ui designer":       "design",
	"ux designer":       "design",
	"manager":           "business",
	"sales":             "business",
	"marketing":         "business",
}

// ScoreBreakdown holds the five component scores. Each is in
// [0, component weight]; their sum (after the final clamp) is the total.
type ScoreBreakdown struct {
	Education  int `json:"education"`
	Job        int `json:"job"`
	Lifestyle  int `json:"lifestyle"`
	Health     int `json:"health"`
	Preference int `json:"preference"`
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// educationScore: exact level best, nearby levels partial, unknown neutral.
func educationScore(a, b *Profile) float64 {
	ra := eduRank[norm(a.HighestEducation)]
	rb := eduRank[norm(b.HighestEducation)]
	if ra == 0 || rb == 0 {
		return 0.5
	}
	if ra == rb {
		return 1.0
	}
	diff := ra - rb
	if diff < 0 {
		diff = -diff
	}
	return clamp01(1.0 - float64(diff)*0.25)
}

func occupationGroup(o string) string {
	if g, ok := occupationGroups[o]; ok {
		return g
	}
	return "other"
}

// jobScore: exact occupation match, else partial credit for same group.
func jobScore(a, b *Profile) float64 {
	oa, ob := norm(a.Occupation), norm(b.Occupation)
	if oa == "" || ob == "" {
		return 0.5
	}
	if oa == ob {
		return 1.0
	}
	if occupationGroup(oa) == occupationGroup(ob) {
		return 0.7
	}
	return 0.3
}

// binaryMatch is the shared lifestyle/health check: full credit when both
// sides are present and equal, neutral otherwise.
func binaryMatch(a, b string) float64 {
	na, nb := norm(a), norm(b)
	if na != "" && nb != "" && na == nb {
		return 1.0
	}
	return 0.5
}

func lifestyleScore(a, b *Profile) float64 {
	return (binaryMatch(a.Smoking, b.Smoking) + binaryMatch(a.Drinking, b.Drinking)) / 2.0
}

func healthScore(a, b *Profile) float64 {
	return (binaryMatch(a.MedicalConditions, b.MedicalConditions) + binaryMatch(a.FitnessLevel, b.FitnessLevel)) / 2.0
}

// preferenceScore evaluates the viewer's stored preferences against the
// candidate. This is the only asymmetric component: swapping arguments may
// change the result.
func preferenceScore(viewer, candidate *Profile) float64 {
	score := 0.0
	parts := 3

	// Age range
	if candidate.Age.Valid && viewer.PrefAgeMin.Valid && viewer.PrefAgeMax.Valid {
		age := candidate.Age.Int64
		if viewer.PrefAgeMin.Int64 <= age && age <= viewer.PrefAgeMax.Int64 {
			score += 1.0
		}
	} else {
		score += 0.5
	}

	// Preferred location
	prefLoc := norm(viewer.PrefLocation)
	candLoc := norm(candidate.Location)
	if prefLoc != "" && candLoc != "" {
		if prefLoc == candLoc {
			score += 1.0
		}
	} else {
		score += 0.5
	}

	// Minimum education level
	prefEdu := eduRank[norm(viewer.PrefEducationLevel)]
	candEdu := eduRank[norm(candidate.HighestEducation)]
	if prefEdu != 0 && candEdu != 0 {
		if candEdu >= prefEdu {
			score += 1.0
		}
	} else {
		score += 0.5
	}

	return score / float64(parts)
}

// matchScore computes the compatibility total and its per-component
// breakdown between the viewer and a candidate. It is pure and recomputed on
// every call; scores are never stored. Each component is normalized to [0,1],
// scaled by the configured weight and rounded independently, so the total is
// the sum of the rounded parts clamped to [0, 5*weight].
func matchScore(viewer, candidate *Profile) (int, ScoreBreakdown) {
	w := float64(cfg.ComponentWeight)

	breakdown := ScoreBreakdown{
		Education:  int(math.Round(educationScore(viewer, candidate) * w)),
		Job:        int(math.Round(jobScore(viewer, candidate) * w)),
		Lifestyle:  int(math.Round(lifestyleScore(viewer, candidate) * w)),
		Health:     int(math.Round(healthScore(viewer, candidate) * w)),
		Preference: int(math.Round(preferenceScore(viewer, candidate) * w)),
	}

	total := breakdown.Education + breakdown.Job + breakdown.Lifestyle + breakdown.Health + breakdown.Preference
	max := cfg.ComponentWeight * 5
	if total < 0 {
		total = 0
	}
	if total > max {
		total = max
	}
	return total, breakdown
}
