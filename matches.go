package main

import (
	"database/sql"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// profileSummary is the redacted shape shown for candidates below the match
// threshold: name and location only, no photo.
type profileSummary struct {
	UserID     int    `json:"user_id"`
	FullName   string `json:"full_name"`
	Location   string `json:"location"`
	IsVerified bool   `json:"is_verified"`
}

func summarizeProfile(p *Profile) profileSummary {
	return profileSummary{
		UserID:     p.UserID,
		FullName:   p.FullName,
		Location:   p.Location,
		IsVerified: p.IsVerified,
	}
}

// profileDetail is the full shape, only shown at or above the threshold.
type profileDetail struct {
	profileSummary
	Age                *int64 `json:"age,omitempty"`
	Gender             string `json:"gender"`
	HeightCm           *int64 `json:"height_cm,omitempty"`
	MaritalStatus      string `json:"marital_status"`
	HighestEducation   string `json:"highest_education"`
	Occupation         string `json:"occupation"`
	IncomeRange        string `json:"income_range"`
	Smoking            string `json:"smoking"`
	Drinking           string `json:"drinking"`
	MedicalConditions  string `json:"medical_conditions"`
	FitnessLevel       string `json:"fitness_level"`
	PrefAgeMin         *int64 `json:"pref_age_min,omitempty"`
	PrefAgeMax         *int64 `json:"pref_age_max,omitempty"`
	PrefLocation       string `json:"pref_location"`
	PrefEducationLevel string `json:"pref_education_level"`
	ImageFilename      string `json:"image_filename,omitempty"`
}

func detailProfile(p *Profile) profileDetail {
	d := profileDetail{
		profileSummary:     summarizeProfile(p),
		Gender:             p.Gender,
		MaritalStatus:      p.MaritalStatus,
		HighestEducation:   p.HighestEducation,
		Occupation:         p.Occupation,
		IncomeRange:        p.IncomeRange,
		Smoking:            p.Smoking,
		Drinking:           p.Drinking,
		MedicalConditions:  p.MedicalConditions,
		FitnessLevel:       p.FitnessLevel,
		PrefLocation:       p.PrefLocation,
		PrefEducationLevel: p.PrefEducationLevel,
	}
	if p.Age.Valid {
		d.Age = &p.Age.Int64
	}
	if p.HeightCm.Valid {
		d.HeightCm = &p.HeightCm.Int64
	}
	if p.PrefAgeMin.Valid {
		d.PrefAgeMin = &p.PrefAgeMin.Int64
	}
	if p.PrefAgeMax.Valid {
		d.PrefAgeMax = &p.PrefAgeMax.Int64
	}
	if p.ImageFilename.Valid {
		d.ImageFilename = p.ImageFilename.String
	}
	return d
}

// matchEntry is one dashboard row: a candidate with the freshly computed
// score, the interest state between us, and the two gate decisions.
type matchEntry struct {
	Profile           interface{}    `json:"profile"`
	Score             int            `json:"score"`
	Breakdown         ScoreBreakdown `json:"breakdown"`
	CanView           bool           `json:"can_view"`
	InterestStatus    string         `json:"interest_status,omitempty"`
	InterestDirection string         `json:"interest_direction,omitempty"`
	InterestID        *int           `json:"interest_id,omitempty"`
	MessagingUnlocked bool           `json:"messaging_unlocked"`
	CompletionPercent int            `json:"completion_percent"`
}

// matchesRouter handles GET /matches and GET /matches/{userID}.
func matchesRouter(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 1 || parts[0] != "matches" {
			http.NotFound(w, r)
			return
		}
		if len(parts) == 1 {
			dashboardHandler(db).ServeHTTP(w, r)
			return
		}
		if len(parts) == 2 {
			matchProfileHandler(db).ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	}
}

// GET /matches
// Scores every other profile against the viewer. Scores are NEVER stored or
// cached; they are recalculated on each request from the latest profile data.
func dashboardHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		me := r.Context().Value(userIDKey).(int)

		myProfile, err := getProfileByUserID(db, me)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if myProfile == nil {
			writeError(w, http.StatusConflict, "profile_required")
			return
		}

		candidates, err := listOtherProfiles(db, me)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		// One query for all interest edges instead of one per candidate.
		interests, err := interestsByPeer(db, me)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		suggestions := []matchEntry{}
		for _, cand := range candidates {
			score, breakdown := matchScore(myProfile, cand)
			canView := score >= cfg.MatchThreshold

			interest := interests[cand.UserID]

			entry := matchEntry{
				Score:             score,
				Breakdown:         breakdown,
				CanView:           canView,
				MessagingUnlocked: false,
				CompletionPercent: profileCompletion(cand),
			}
			if canView {
				entry.Profile = detailProfile(cand)
			} else {
				entry.Profile = summarizeProfile(cand)
			}
			if interest != nil {
				entry.InterestStatus = interest.Status
				entry.InterestDirection = interest.direction(me)
				entry.InterestID = &interest.ID
				entry.MessagingUnlocked = canView && interest.Status == interestAccepted
			}
			suggestions = append(suggestions, entry)
		}

		sort.SliceStable(suggestions, func(i, j int) bool {
			return suggestions[i].Score > suggestions[j].Score
		})

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"completion_percent": profileCompletion(myProfile),
			"suggestions":        suggestions,
		})
	})
}

// GET /matches/{userID}
// Single candidate view. Full details only when the dynamic score reaches
// the threshold; below it the response is redacted to the summary shape.
func matchProfileHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[0] != "matches" {
			http.NotFound(w, r)
			return
		}
		targetID, err := strconv.Atoi(parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		me := r.Context().Value(userIDKey).(int)
		if targetID == me {
			writeError(w, http.StatusBadRequest, "invalid_target")
			return
		}

		myProfile, err := getProfileByUserID(db, me)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if myProfile == nil {
			writeError(w, http.StatusConflict, "profile_required")
			return
		}

		target, err := getProfileByUserID(db, targetID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if target == nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		score, breakdown := matchScore(myProfile, target)
		canView := score >= cfg.MatchThreshold

		interest, err := getInterestBetween(db, me, targetID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		online, err := isOnlineNow(db, targetID)
		if err != nil {
			// Not critical. If the check fails, assume offline.
			online = false
		}

		entry := matchEntry{
			Score:             score,
			Breakdown:         breakdown,
			CanView:           canView,
			CompletionPercent: profileCompletion(target),
		}
		if canView {
			entry.Profile = detailProfile(target)
		} else {
			entry.Profile = summarizeProfile(target)
		}
		if interest != nil {
			entry.InterestStatus = interest.Status
			entry.InterestDirection = interest.direction(me)
			entry.InterestID = &interest.ID
			entry.MessagingUnlocked = canView && interest.Status == interestAccepted
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"match":     entry,
			"is_online": online,
		})
	})
}
