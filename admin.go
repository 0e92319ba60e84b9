package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
)

// isAdmin enforces server-side access control for the /admin routes.
// A user is admin when their email equals the configured ADMIN_EMAIL;
// there are no hardcoded credentials.
func isAdmin(db *sql.DB, userID int) bool {
	var email string
	if err := db.QueryRow(`SELECT email FROM users WHERE id = $1`, userID).Scan(&email); err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(cfg.AdminEmail))
}

// GET /admin/overview
// Lists users and profiles and, when ?a=&b= name two profile ids, runs the
// scoring engine between them as a quick debugging tool.
func adminOverviewHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		me := r.Context().Value(userIDKey).(int)
		if !isAdmin(db, me) {
			writeError(w, http.StatusForbidden, "admin_required")
			return
		}

		type userRow struct {
			ID        int    `json:"id"`
			Email     string `json:"email"`
			CreatedAt string `json:"created_at"`
		}
		users := []userRow{}
		rows, err := db.Query(`SELECT id, email, created_at::text FROM users ORDER BY id`)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		defer rows.Close()
		for rows.Next() {
			var u userRow
			if rows.Scan(&u.ID, &u.Email, &u.CreatedAt) == nil {
				users = append(users, u)
			}
		}

		profiles := []profileDetail{}
		prows, err := db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY id`)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		defer prows.Close()
		for prows.Next() {
			if p, err := scanProfile(prows); err == nil {
				profiles = append(profiles, detailProfile(p))
			}
		}

		resp := map[string]interface{}{
			"users":    users,
			"profiles": profiles,
		}

		// Quick match tool: score two profiles selected via query params.
		aID, errA := strconv.Atoi(r.URL.Query().Get("a"))
		bID, errB := strconv.Atoi(r.URL.Query().Get("b"))
		if errA == nil && errB == nil {
			pa, _ := getProfileByID(db, aID)
			pb, _ := getProfileByID(db, bID)
			if pa != nil && pb != nil {
				score, breakdown := matchScore(pa, pb)
				resp["match_result"] = map[string]interface{}{
					"a":         detailProfile(pa),
					"b":         detailProfile(pb),
					"score":     score,
					"breakdown": breakdown,
				}
			}
		}

		writeJSON(w, http.StatusOK, resp)
	})
}

// POST /admin/verify  {"profile_id": 1, "verified": true}
func adminVerifyHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		me := r.Context().Value(userIDKey).(int)
		if !isAdmin(db, me) {
			writeError(w, http.StatusForbidden, "admin_required")
			return
		}

		type verifyRequest struct {
			ProfileID int  `json:"profile_id"`
			Verified  bool `json:"verified"`
		}
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}

		res, err := db.Exec(`UPDATE profiles SET is_verified = $1 WHERE id = $2`, req.Verified, req.ProfileID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("adminVerifyHandler error:", err)
			return
		}
		if aff, _ := res.RowsAffected(); aff == 0 {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"verified": req.Verified})
	})
}
