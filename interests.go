package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
)

// Handler functions for creating and responding to interests.
//
// TERMINOLOGY
// send: create pending (or auto-accept if an opposite pending exists).
// respond accepted: pending → accepted (terminal), recipient only.
// respond rejected: pending → rejected (terminal), recipient only.

// A dispatcher router function for all /interests/... requests
func interestsRouter(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(r.URL.Path, "/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[0] != "interests" {
			http.NotFound(w, r)
			return
		}

		// POST /interests/{userID} → send interest to that user
		if r.Method == http.MethodPost && len(parts) == 2 {
			sendInterestHandler(db).ServeHTTP(w, r)
			return
		}

		// POST /interests/{interestID}/respond
		if r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "respond" {
			respondInterestHandler(db).ServeHTTP(w, r)
			return
		}

		http.NotFound(w, r)
	}
}

// POST /interests/{userID}
// Creates a pending interest from the authenticated user to {userID}.
// One interest per unordered pair:
//   - reverse pending → auto-accept that row instead of creating a second one,
//   - my own pending / an accepted row → idempotent OK with the existing row,
//   - rejected → 409, the pair is settled,
//   - otherwise insert a new pending row. A concurrent duplicate insert loses
//     the unique-pair race and re-reads the winner rather than erroring.
func sendInterestHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[0] != "interests" {
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

		// Ensure the target user exists before touching the pair.
		exists, err := userExists(db, targetID)
		if err != nil || !exists {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		type response struct {
			Status     string `json:"status"`
			InterestID *int   `json:"interest_id,omitempty"`
		}
		var resp response
		wroteErr := false

		err = withTx(r.Context(), db, func(tx *sql.Tx) error {
			// Lock the existing interest row between me and target (either direction)
			row, err := loadInterestPairForUpdate(tx, me, targetID)
			if err != nil {
				return err
			}

			// Mutual-interest rule: if THEY already sent ME a pending interest,
			// accept it instead of creating a second row.
			if row != nil && row.Status == interestPending && row.FromUserID == targetID && row.ToUserID == me {
				if err := tx.QueryRow(`
					UPDATE interests SET status = 'accepted', responded_at = NOW()
					WHERE id = $1 RETURNING id`, row.ID,
				).Scan(&resp.InterestID); err != nil {
					return err
				}
				resp.Status = interestAccepted
				return nil
			}

			if row != nil {
				// There is already a row (some state) between us.
				switch row.Status {
				case interestPending, interestAccepted:
					// My own pending, or already accepted -> idempotent OK
					resp.Status = row.Status
					resp.InterestID = &row.ID
					return nil
				case interestRejected:
					writeError(w, http.StatusConflict, "interest_rejected")
					wroteErr = true
					return nil
				default:
					// Unknown enum value
					writeError(w, http.StatusConflict, "invalid_state")
					wroteErr = true
					return nil
				}
			}

			// No existing row: create a new pending interest. ON CONFLICT covers
			// the race where both sides insert simultaneously; the loser falls
			// through to re-read the winning row.
			err = tx.QueryRow(`
				INSERT INTO interests (from_user_id, to_user_id, status)
				VALUES ($1, $2, 'pending')
				ON CONFLICT DO NOTHING
				RETURNING id
			`, me, targetID).Scan(&resp.InterestID)
			if err == sql.ErrNoRows {
				winner, err := loadInterestPairForUpdate(tx, me, targetID)
				if err != nil {
					return err
				}
				if winner == nil {
					return sql.ErrNoRows
				}
				resp.Status = winner.Status
				resp.InterestID = &winner.ID
				return nil
			}
			if err != nil {
				return err
			}
			resp.Status = interestPending
			return nil
		})

		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("sendInterestHandler tx error:", err)
			return
		}
		if wroteErr {
			return // error already written inside the tx
		}
		if resp.Status == "" {
			writeError(w, http.StatusInternalServerError, "unknown_state")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// POST /interests/{interestID}/respond  {"action": "accepted"|"rejected"}
// Only the recipient (to_user_id) of that exact row may respond, and only
// while it is still pending. The sender can never resolve their own request.
func respondInterestHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "interests" || parts[2] != "respond" {
			http.NotFound(w, r)
			return
		}
		interestID, err := strconv.Atoi(parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		type RespondRequest struct {
			Action string `json:"action"`
		}
		var req RespondRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		req.Action = strings.ToLower(strings.TrimSpace(req.Action))
		if req.Action != interestAccepted && req.Action != interestRejected {
			writeError(w, http.StatusBadRequest, "invalid_action")
			return
		}

		me := r.Context().Value(userIDKey).(int)

		type response struct {
			Status string `json:"status"`
		}
		var resp response
		wroteErr := false

		err = withTx(r.Context(), db, func(tx *sql.Tx) error {
			var in Interest
			err := tx.QueryRow(`
				SELECT id, from_user_id, to_user_id, status, created_at, responded_at
				FROM interests WHERE id = $1 FOR UPDATE
			`, interestID).Scan(&in.ID, &in.FromUserID, &in.ToUserID, &in.Status, &in.CreatedAt, &in.RespondedAt)
			if err == sql.ErrNoRows {
				writeError(w, http.StatusNotFound, "not_found")
				wroteErr = true
				return nil
			}
			if err != nil {
				return err
			}

			// Only the receiver can respond; the sender may not resolve
			// their own request.
			if in.ToUserID != me || in.FromUserID == me {
				writeError(w, http.StatusForbidden, "not_allowed")
				wroteErr = true
				return nil
			}

			if in.Status != interestPending {
				writeError(w, http.StatusConflict, "already_responded")
				wroteErr = true
				return nil
			}

			if _, err := tx.Exec(`
				UPDATE interests SET status = $1, responded_at = NOW() WHERE id = $2
			`, req.Action, in.ID); err != nil {
				return err
			}
			resp.Status = req.Action
			return nil
		})

		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("respondInterestHandler tx error:", err)
			return
		}
		if wroteErr {
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// GET /interests
// Lists the caller's pending interests, both directions, each enriched with
// the other side's profile summary via the per-request profile loader.
func listInterestsHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		me := r.Context().Value(userIDKey).(int)

		rows, err := db.Query(`
			SELECT id, from_user_id, to_user_id, status, created_at, responded_at
			FROM interests
			WHERE (from_user_id = $1 OR to_user_id = $1) AND status = 'pending'
			ORDER BY created_at DESC, id DESC
		`, me)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		defer rows.Close()

		var interests []Interest
		for rows.Next() {
			var in Interest
			if err := rows.Scan(&in.ID, &in.FromUserID, &in.ToUserID, &in.Status, &in.CreatedAt, &in.RespondedAt); err == nil {
				interests = append(interests, in)
			}
		}

		// Batch-load the peer profiles in one query instead of one per row:
		// schedule every load first, then resolve the thunks.
		loaders := loadersFromContext(r.Context())
		thunks := make(map[int]func() (*Profile, error))
		if loaders != nil {
			for _, in := range interests {
				peerID := in.FromUserID
				if peerID == me {
					peerID = in.ToUserID
				}
				if _, ok := thunks[peerID]; !ok {
					thunks[peerID] = loaders.Profile.Load(r.Context(), peerID)
				}
			}
		}

		type entry struct {
			InterestID int             `json:"interest_id"`
			UserID     int             `json:"user_id"`
			Direction  string          `json:"direction"`
			Status     string          `json:"status"`
			Profile    *profileSummary `json:"profile,omitempty"`
		}
		incoming := []entry{}
		outgoing := []entry{}

		for _, in := range interests {
			peerID := in.FromUserID
			if peerID == me {
				peerID = in.ToUserID
			}
			e := entry{
				InterestID: in.ID,
				UserID:     peerID,
				Direction:  in.direction(me),
				Status:     in.Status,
			}
			if thunk, ok := thunks[peerID]; ok {
				if p, err := thunk(); err == nil && p != nil {
					s := summarizeProfile(p)
					e.Profile = &s
				}
			}
			if e.Direction == "incoming" {
				incoming = append(incoming, e)
			} else {
				outgoing = append(outgoing, e)
			}
		}

		writeJSON(w, http.StatusOK, map[string][]entry{
			"incoming": incoming,
			"outgoing": outgoing,
		})
	})
}
