package main

import "database/sql"

// gateResult is the messaging permission decision. Score and status are
// recomputed on every call so profile edits take effect immediately; nothing
// here is ever cached.
type gateResult struct {
	Allowed        bool   `json:"allowed"`
	Score          int    `json:"score"`
	InterestStatus string `json:"interest_status,omitempty"`
}

// canMessage is the centralized server-side permission check. Rules:
//   - both users must have profiles,
//   - the dynamic match score must reach the configured threshold,
//   - the interest between the pair must be accepted (either direction).
//
// Every message read/write path MUST go through this to avoid data leakage.
func canMessage(db *sql.DB, fromUserID, toUserID int) (gateResult, error) {
	fromProfile, err := getProfileByUserID(db, fromUserID)
	if err != nil {
		return gateResult{}, err
	}
	toProfile, err := getProfileByUserID(db, toUserID)
	if err != nil {
		return gateResult{}, err
	}
	if fromProfile == nil || toProfile == nil {
		return gateResult{Allowed: false, Score: 0}, nil
	}

	score, _ := matchScore(fromProfile, toProfile)

	interest, err := getInterestBetween(db, fromUserID, toUserID)
	if err != nil {
		return gateResult{}, err
	}
	status := ""
	if interest != nil {
		status = interest.Status
	}

	return gateResult{
		Allowed:        score >= cfg.MatchThreshold && status == interestAccepted,
		Score:          score,
		InterestStatus: status,
	}, nil
}

// canViewFullProfile gates full profile details behind the same threshold
// and scoring call as messaging, so the two rules cannot drift apart.
// Interest acceptance is not required just to look.
func canViewFullProfile(viewer, candidate *Profile) bool {
	score, _ := matchScore(viewer, candidate)
	return score >= cfg.MatchThreshold
}
