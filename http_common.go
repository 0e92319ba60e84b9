package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
)

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// withTx wraps a function in a database transaction.
// - Ensures COMMIT on success, ROLLBACK on errors or panics.
// - Keeps handler bodies tiny and all state changes atomic.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		// If the callback panics, make sure to rollback before re-panicking
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// loadInterestPairForUpdate returns the interest row between two users (in
// EITHER direction) and takes a row lock (`FOR UPDATE`) so no concurrent
// request can modify it until our transaction finishes. At most one row can
// exist per unordered pair; the ORDER BY is belt-and-braces against legacy
// duplicates.
//   - Returns (nil, nil) if no row exists yet.
func loadInterestPairForUpdate(tx *sql.Tx, a, b int) (*Interest, error) {
	row := tx.QueryRow(`
		SELECT id, from_user_id, to_user_id, status, created_at, responded_at
		FROM interests
		WHERE (from_user_id = $1 AND to_user_id = $2)
		   OR (from_user_id = $2 AND to_user_id = $1)
		ORDER BY id ASC
		LIMIT 1
		FOR UPDATE
	`, a, b)

	var in Interest
	if err := row.Scan(&in.ID, &in.FromUserID, &in.ToUserID, &in.Status, &in.CreatedAt, &in.RespondedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

// getInterestBetween is the read-only unordered pair lookup used by the
// messaging gate and the dashboard. Returns (nil, nil) when no row exists.
func getInterestBetween(db *sql.DB, a, b int) (*Interest, error) {
	row := db.QueryRow(`
		SELECT id, from_user_id, to_user_id, status, created_at, responded_at
		FROM interests
		WHERE (from_user_id = $1 AND to_user_id = $2)
		   OR (from_user_id = $2 AND to_user_id = $1)
		ORDER BY id ASC
		LIMIT 1
	`, a, b)

	var in Interest
	if err := row.Scan(&in.ID, &in.FromUserID, &in.ToUserID, &in.Status, &in.CreatedAt, &in.RespondedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

// interestsByPeer loads every interest row involving the user in one query,
// keyed by the other side's user id. Dashboard enrichment uses this instead
// of one pair lookup per candidate.
func interestsByPeer(db *sql.DB, userID int) (map[int]*Interest, error) {
	rows, err := db.Query(`
		SELECT id, from_user_id, to_user_id, status, created_at, responded_at
		FROM interests
		WHERE from_user_id = $1 OR to_user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byPeer := make(map[int]*Interest)
	for rows.Next() {
		var in Interest
		if err := rows.Scan(&in.ID, &in.FromUserID, &in.ToUserID, &in.Status, &in.CreatedAt, &in.RespondedAt); err != nil {
			return nil, err
		}
		peerID := in.FromUserID
		if peerID == userID {
			peerID = in.ToUserID
		}
		byPeer[peerID] = &in
	}
	return byPeer, rows.Err()
}

// direction reports the interest edge from the viewer's perspective.
func (in *Interest) direction(viewerID int) string {
	if in.FromUserID == viewerID {
		return "outgoing"
	}
	return "incoming"
}

func userExists(db *sql.DB, userID int) (bool, error) {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}
