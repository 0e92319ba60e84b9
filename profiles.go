package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// GET /me — identity plus the live completion percentage.
func meHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		var email string
		if err := db.QueryRow(`SELECT email FROM users WHERE id = $1`, userID).Scan(&email); err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		profile, err := getProfileByUserID(db, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":                 userID,
			"email":              email,
			"has_profile":        profile != nil,
			"completion_percent": profileCompletion(profile),
		})
	})
}

// profileRequest is the full-replace upsert payload. Zero numeric values are
// mapped to NULL here, before storage, so completion and scoring treat them
// as absent.
type profileRequest struct {
	FullName      string `json:"full_name"`
	Age           int64  `json:"age"`
	Gender        string `json:"gender"`
	HeightCm      int64  `json:"height_cm"`
	MaritalStatus string `json:"marital_status"`
	Location      string `json:"location"`

	HighestEducation string `json:"highest_education"`
	Occupation       string `json:"occupation"`
	IncomeRange      string `json:"income_range"`

	Smoking           string `json:"smoking"`
	Drinking          string `json:"drinking"`
	MedicalConditions string `json:"medical_conditions"`
	FitnessLevel      string `json:"fitness_level"`

	PrefAgeMin         int64  `json:"pref_age_min"`
	PrefAgeMax         int64  `json:"pref_age_max"`
	PrefLocation       string `json:"pref_location"`
	PrefEducationLevel string `json:"pref_education_level"`
}

// meProfileHandler handles GET and PUT /me/profile.
func meProfileHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			getMyProfile(db, w, r)
		case http.MethodPut, http.MethodPost:
			saveMyProfile(db, w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}

func getMyProfile(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)

	profile, err := getProfileByUserID(db, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile":            detailProfile(profile),
		"completion_percent": profileCompletion(profile),
	})
}

func saveMyProfile(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	trim := func(s *string) { *s = strings.TrimSpace(*s) }
	for _, s := range []*string{
		&req.FullName, &req.Gender, &req.MaritalStatus, &req.Location,
		&req.HighestEducation, &req.Occupation, &req.IncomeRange,
		&req.Smoking, &req.Drinking, &req.MedicalConditions, &req.FitnessLevel,
		&req.PrefLocation, &req.PrefEducationLevel,
	} {
		trim(s)
	}

	if req.FullName == "" {
		writeError(w, http.StatusBadRequest, "full_name_required")
		return
	}
	if req.Age < 18 || req.Age > 80 {
		writeError(w, http.StatusBadRequest, "invalid_age")
		return
	}
	if req.Gender != "Male" && req.Gender != "Female" && req.Gender != "Other" {
		writeError(w, http.StatusBadRequest, "invalid_gender")
		return
	}
	if req.PrefAgeMin != 0 && req.PrefAgeMax != 0 && req.PrefAgeMin > req.PrefAgeMax {
		writeError(w, http.StatusBadRequest, "invalid_pref_age_range")
		return
	}

	// Zero → NULL for the optional numerics.
	heightCm := sql.NullInt64{Int64: req.HeightCm, Valid: req.HeightCm > 0}
	prefMin := sql.NullInt64{Int64: req.PrefAgeMin, Valid: req.PrefAgeMin > 0}
	prefMax := sql.NullInt64{Int64: req.PrefAgeMax, Valid: req.PrefAgeMax > 0}

	// Full-replace upsert; the stored photo filename is managed separately
	// by the photo handlers and left untouched here.
	_, err := db.Exec(`
        INSERT INTO profiles (
            user_id, full_name, age, gender, height_cm, marital_status, location,
            highest_education, occupation, income_range,
            smoking, drinking, medical_conditions, fitness_level,
            pref_age_min, pref_age_max, pref_location, pref_education_level
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
        )
        ON CONFLICT (user_id) DO UPDATE SET
            full_name = EXCLUDED.full_name,
            age = EXCLUDED.age,
            gender = EXCLUDED.gender,
            height_cm = EXCLUDED.height_cm,
            marital_status = EXCLUDED.marital_status,
            location = EXCLUDED.location,
            highest_education = EXCLUDED.highest_education,
            occupation = EXCLUDED.occupation,
            income_range = EXCLUDED.income_range,
            smoking = EXCLUDED.smoking,
            drinking = EXCLUDED.drinking,
            medical_conditions = EXCLUDED.medical_conditions,
            fitness_level = EXCLUDED.fitness_level,
            pref_age_min = EXCLUDED.pref_age_min,
            pref_age_max = EXCLUDED.pref_age_max,
            pref_location = EXCLUDED.pref_location,
            pref_education_level = EXCLUDED.pref_education_level,
            updated_at = NOW()
    `,
		userID, req.FullName, req.Age, req.Gender, heightCm, req.MaritalStatus, req.Location,
		req.HighestEducation, req.Occupation, req.IncomeRange,
		req.Smoking, req.Drinking, req.MedicalConditions, req.FitnessLevel,
		prefMin, prefMax, req.PrefLocation, req.PrefEducationLevel,
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "profile_save_error")
		log.Println("Error saving profile:", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
