package main

import (
	"database/sql"
	"math"
	"strings"
)

// profileCompletion reports how much of the fixed 18-field checklist a
// profile has filled in, as a whole percentage. It is computed at request
// time and never stored. A missing profile counts as zero.
func profileCompletion(p *Profile) int {
	if p == nil {
		return 0
	}

	checks := []bool{
		// Personal
		textFilled(p.FullName),
		p.Age.Valid,
		textFilled(p.Gender),
		p.HeightCm.Valid,
		textFilled(p.MaritalStatus),
		textFilled(p.Location),
		// Education & job
		textFilled(p.HighestEducation),
		textFilled(p.Occupation),
		textFilled(p.IncomeRange),
		// Health & lifestyle
		textFilled(p.Smoking),
		textFilled(p.Drinking),
		textFilled(p.MedicalConditions),
		textFilled(p.FitnessLevel),
		// Preferences
		p.PrefAgeMin.Valid,
		p.PrefAgeMax.Valid,
		textFilled(p.PrefLocation),
		textFilled(p.PrefEducationLevel),
		// Photo (optional, but counted to encourage an upload)
		nullTextFilled(p.ImageFilename),
	}

	filled := 0
	for _, ok := range checks {
		if ok {
			filled++
		}
	}
	return int(math.Round(float64(filled) / float64(len(checks)) * 100))
}

func textFilled(s string) bool {
	return strings.TrimSpace(s) != ""
}

func nullTextFilled(s sql.NullString) bool {
	return s.Valid && strings.TrimSpace(s.String) != ""
}
