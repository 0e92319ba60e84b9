package main

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nInt(v int64) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: true} }

// fullProfile returns a profile with every scored field populated.
func fullProfile() *Profile {
	return &Profile{
		FullName:           "Asha Rao",
		Age:                nInt(29),
		Gender:             "Female",
		Location:           "Bengaluru",
		HighestEducation:   "Masters",
		Occupation:         "Software Engineer",
		Smoking:            "No",
		Drinking:           "Occasionally",
		MedicalConditions:  "None",
		FitnessLevel:       "Active",
		PrefAgeMin:         nInt(25),
		PrefAgeMax:         nInt(35),
		PrefLocation:       "Bengaluru",
		PrefEducationLevel: "Bachelors",
	}
}

func TestMatchScorePerfectPair(t *testing.T) {
	a := fullProfile()
	b := fullProfile()

	score, breakdown := matchScore(a, b)

	assert.Equal(t, 100, score)
	assert.Equal(t, ScoreBreakdown{Education: 20, Job: 20, Lifestyle: 20, Health: 20, Preference: 20}, breakdown)
}

func TestMatchScoreAllUnknownDefaultsToNeutral(t *testing.T) {
	// Every comparison field empty: each component is 0.5 * weight.
	a := &Profile{FullName: "A"}
	b := &Profile{FullName: "B"}

	score, breakdown := matchScore(a, b)

	assert.Equal(t, 50, score)
	assert.Equal(t, ScoreBreakdown{Education: 10, Job: 10, Lifestyle: 10, Health: 10, Preference: 10}, breakdown)
}

func TestMatchScoreBoundsAndSum(t *testing.T) {
	educations := []string{"", "High School", "Diploma", "Bachelors", "Masters", "PhD", "bootcamp"}
	occupations := []string{"", "Software Engineer", "Developer", "Designer", "Sales", "Farmer"}
	locations := []string{"", "Mumbai", "Delhi"}

	var profiles []*Profile
	for _, edu := range educations {
		for _, occ := range occupations {
			for _, loc := range locations {
				profiles = append(profiles, &Profile{
					Age:                nInt(30),
					Location:           loc,
					HighestEducation:   edu,
					Occupation:         occ,
					Smoking:            "No",
					PrefAgeMin:         nInt(20),
					PrefAgeMax:         nInt(28), // excludes age 30 on purpose
					PrefLocation:       "Mumbai",
					PrefEducationLevel: "Masters",
				})
			}
		}
	}

	for _, a := range profiles {
		for _, b := range profiles {
			score, bd := matchScore(a, b)
			require.GreaterOrEqual(t, score, 0)
			require.LessOrEqual(t, score, 100)
			for _, c := range []int{bd.Education, bd.Job, bd.Lifestyle, bd.Health, bd.Preference} {
				require.GreaterOrEqual(t, c, 0)
				require.LessOrEqual(t, c, 20)
			}
			require.Equal(t, score, bd.Education+bd.Job+bd.Lifestyle+bd.Health+bd.Preference)
		}
	}
}

func TestMatchScoreIsAsymmetric(t *testing.T) {
	// Viewer a wants the candidate in Bengaluru; viewer b wants Chennai.
	// Only the preference component differs between the two directions.
	a := fullProfile()
	b := fullProfile()
	b.PrefLocation = "Chennai"

	scoreAB, bdAB := matchScore(a, b)
	scoreBA, bdBA := matchScore(b, a)

	assert.NotEqual(t, scoreAB, scoreBA)
	assert.Equal(t, bdAB.Education, bdBA.Education)
	assert.Equal(t, bdAB.Job, bdBA.Job)
	assert.Equal(t, bdAB.Lifestyle, bdBA.Lifestyle)
	assert.Equal(t, bdAB.Health, bdBA.Health)
	assert.NotEqual(t, bdAB.Preference, bdBA.Preference)
}

func TestEducationScoreTiers(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"Masters", "Masters", 1.0},
		{"masters", " MASTERS ", 1.0}, // case-insensitive, trimmed
		{"Masters", "Bachelors", 0.75},
		{"PhD", "Bachelors", 0.5},
		{"PhD", "Diploma", 0.25},
		{"PhD", "High School", 0.0},
		{"Masters", "", 0.5},
		{"Masters", "bootcamp", 0.5}, // unknown tier
	}
	for _, tc := range cases {
		got := educationScore(&Profile{HighestEducation: tc.a}, &Profile{HighestEducation: tc.b})
		assert.InDelta(t, tc.want, got, 1e-9, "education %q vs %q", tc.a, tc.b)
	}
}

func TestJobScoreGroups(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"Developer", "developer", 1.0},
		{"Developer", "Data Scientist", 0.7}, // both tech
		{"UI Designer", "UX Designer", 0.7},  // both design
		{"Sales", "Marketing", 0.7},          // both business
		{"Developer", "Sales", 0.3},          // different groups
		{"Farmer", "Chef", 0.7},              // both fall into "other"
		{"", "Developer", 0.5},
		{"Developer", "  ", 0.5},
	}
	for _, tc := range cases {
		got := jobScore(&Profile{Occupation: tc.a}, &Profile{Occupation: tc.b})
		assert.InDelta(t, tc.want, got, 1e-9, "job %q vs %q", tc.a, tc.b)
	}
}

func TestLifestyleAndHealthAverages(t *testing.T) {
	a := &Profile{Smoking: "No", Drinking: "Socially", MedicalConditions: "None", FitnessLevel: "Active"}
	b := &Profile{Smoking: "No", Drinking: "Never", MedicalConditions: "None", FitnessLevel: ""}

	// Smoking matches (1.0), drinking differs (0.5) -> 0.75
	assert.InDelta(t, 0.75, lifestyleScore(a, b), 1e-9)
	// Medical matches (1.0), fitness missing on one side (0.5) -> 0.75
	assert.InDelta(t, 0.75, healthScore(a, b), 1e-9)
}

func TestPreferenceScoreEdgeCases(t *testing.T) {
	viewer := fullProfile()

	t.Run("age outside range scores zero for that check", func(t *testing.T) {
		cand := fullProfile()
		cand.Age = nInt(40) // outside 25-35
		got := preferenceScore(viewer, cand)
		assert.InDelta(t, 2.0/3.0, got, 1e-9)
	})

	t.Run("absent age is neutral", func(t *testing.T) {
		cand := fullProfile()
		cand.Age = sql.NullInt64{}
		got := preferenceScore(viewer, cand)
		assert.InDelta(t, (0.5+1.0+1.0)/3.0, got, 1e-9)
	})

	t.Run("location mismatch scores zero, missing is neutral", func(t *testing.T) {
		cand := fullProfile()
		cand.Location = "Chennai"
		assert.InDelta(t, 2.0/3.0, preferenceScore(viewer, cand), 1e-9)

		cand.Location = ""
		assert.InDelta(t, (1.0+0.5+1.0)/3.0, preferenceScore(viewer, cand), 1e-9)
	})

	t.Run("candidate education below preferred minimum", func(t *testing.T) {
		cand := fullProfile()
		cand.HighestEducation = "High School" // viewer wants >= bachelors
		assert.InDelta(t, 2.0/3.0, preferenceScore(viewer, cand), 1e-9)
	})

	t.Run("unknown education tier is neutral", func(t *testing.T) {
		cand := fullProfile()
		cand.HighestEducation = "bootcamp"
		// Education check neutral; the other two still pass.
		assert.InDelta(t, (1.0+1.0+0.5)/3.0, preferenceScore(viewer, cand), 1e-9)
	})
}

func TestMatchScoreRespectsConfiguredWeight(t *testing.T) {
	old := cfg.ComponentWeight
	cfg.ComponentWeight = 10
	defer func() { cfg.ComponentWeight = old }()

	score, breakdown := matchScore(fullProfile(), fullProfile())
	assert.Equal(t, 50, score)
	assert.Equal(t, 10, breakdown.Education)
}
