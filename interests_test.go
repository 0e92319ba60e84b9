package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sendInterest hits POST /interests/{userID} and returns the decoded response.
func sendInterest(t *testing.T, from TestUser, toID int) (int, map[string]interface{}) {
	t.Helper()

	req := authedRequest(http.MethodPost, fmt.Sprintf("/interests/%d", toID), nil, from)
	w := httptest.NewRecorder()
	interestsRouter(db).ServeHTTP(w, req)

	var resp map[string]interface{}
	json.NewDecoder(w.Body).Decode(&resp)
	return w.Code, resp
}

// respondInterest hits POST /interests/{id}/respond with the given action.
func respondInterest(t *testing.T, user TestUser, interestID int, action string) (int, map[string]interface{}) {
	t.Helper()

	payload := []byte(fmt.Sprintf(`{"action":%q}`, action))
	req := authedRequest(http.MethodPost, fmt.Sprintf("/interests/%d/respond", interestID), bytes.NewBuffer(payload), user)
	w := httptest.NewRecorder()
	interestsRouter(db).ServeHTTP(w, req)

	var resp map[string]interface{}
	json.NewDecoder(w.Body).Decode(&resp)
	return w.Code, resp
}

// pairRowCount counts interest rows between two users, either direction.
func pairRowCount(t *testing.T, a, b int) int {
	t.Helper()

	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM interests
		WHERE (from_user_id = $1 AND to_user_id = $2)
		   OR (from_user_id = $2 AND to_user_id = $1)
	`, a, b).Scan(&n)
	require.NoError(t, err)
	return n
}

func interestStatus(t *testing.T, interestID int) string {
	t.Helper()

	var status string
	err := db.QueryRow("SELECT status FROM interests WHERE id = $1", interestID).Scan(&status)
	require.NoError(t, err)
	return status
}

func TestSendInterestLifecycle(t *testing.T) {
	requireDB(t)

	alice := createTestUser(t, "int_alice@example.com", "password123")
	bob := createTestUser(t, "int_bob@example.com", "password123")
	defer cleanupTestData(alice.Email, bob.Email)

	t.Run("Send Creates Pending", func(t *testing.T) {
		code, resp := sendInterest(t, alice, bob.ID)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "pending", resp["status"])
		assert.NotNil(t, resp["interest_id"])
		assert.Equal(t, 1, pairRowCount(t, alice.ID, bob.ID))
	})

	t.Run("Resend Is Idempotent", func(t *testing.T) {
		code1, resp1 := sendInterest(t, alice, bob.ID)
		code2, resp2 := sendInterest(t, alice, bob.ID)
		require.Equal(t, http.StatusOK, code1)
		require.Equal(t, http.StatusOK, code2)
		assert.Equal(t, resp1["interest_id"], resp2["interest_id"])
		assert.Equal(t, 1, pairRowCount(t, alice.ID, bob.ID))
	})

	t.Run("Reverse Send Auto Accepts", func(t *testing.T) {
		code, resp := sendInterest(t, bob, alice.ID)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "accepted", resp["status"])
		// The pending row flipped; no second row appeared.
		assert.Equal(t, 1, pairRowCount(t, alice.ID, bob.ID))
	})

	t.Run("Send After Accept Returns Existing", func(t *testing.T) {
		code, resp := sendInterest(t, alice, bob.ID)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "accepted", resp["status"])
		assert.Equal(t, 1, pairRowCount(t, alice.ID, bob.ID))
	})
}

func TestSendInterestValidation(t *testing.T) {
	requireDB(t)

	alice := createTestUser(t, "int_val_alice@example.com", "password123")
	defer cleanupTestData(alice.Email)

	t.Run("Self Target", func(t *testing.T) {
		code, resp := sendInterest(t, alice, alice.ID)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "invalid_target", resp["error"])
	})

	t.Run("Unknown Target", func(t *testing.T) {
		code, _ := sendInterest(t, alice, 99999999)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestRespondInterest(t *testing.T) {
	requireDB(t)

	alice := createTestUser(t, "resp_alice@example.com", "password123")
	bob := createTestUser(t, "resp_bob@example.com", "password123")
	carol := createTestUser(t, "resp_carol@example.com", "password123")
	defer cleanupTestData(alice.Email, bob.Email, carol.Email)

	code, resp := sendInterest(t, alice, bob.ID)
	require.Equal(t, http.StatusOK, code)
	interestID := int(resp["interest_id"].(float64))

	t.Run("Sender Cannot Respond", func(t *testing.T) {
		code, resp := respondInterest(t, alice, interestID, "accepted")
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "not_allowed", resp["error"])
		assert.Equal(t, "pending", interestStatus(t, interestID))
	})

	t.Run("Third Party Cannot Respond", func(t *testing.T) {
		code, _ := respondInterest(t, carol, interestID, "rejected")
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "pending", interestStatus(t, interestID))
	})

	t.Run("Invalid Action", func(t *testing.T) {
		code, resp := respondInterest(t, bob, interestID, "maybe")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "invalid_action", resp["error"])
	})

	t.Run("Recipient Rejects", func(t *testing.T) {
		code, resp := respondInterest(t, bob, interestID, "rejected")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "rejected", resp["status"])
		assert.Equal(t, "rejected", interestStatus(t, interestID))
	})

	t.Run("Rejected Is Terminal", func(t *testing.T) {
		code, resp := respondInterest(t, bob, interestID, "accepted")
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "already_responded", resp["error"])
		assert.Equal(t, "rejected", interestStatus(t, interestID))
	})

	t.Run("Send To Rejected Pair Conflicts", func(t *testing.T) {
		code, resp := sendInterest(t, alice, bob.ID)
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "interest_rejected", resp["error"])
		assert.Equal(t, 1, pairRowCount(t, alice.ID, bob.ID))
	})

	t.Run("Unknown Interest", func(t *testing.T) {
		code, _ := respondInterest(t, bob, 99999999, "accepted")
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestInterestsByPeer(t *testing.T) {
	requireDB(t)

	alice := createTestUser(t, "bypeer_alice@example.com", "password123")
	bob := createTestUser(t, "bypeer_bob@example.com", "password123")
	carol := createTestUser(t, "bypeer_carol@example.com", "password123")
	dave := createTestUser(t, "bypeer_dave@example.com", "password123")
	defer cleanupTestData(alice.Email, bob.Email, carol.Email, dave.Email)

	// alice → bob (outgoing), carol → alice (incoming), dave uninvolved.
	code, _ := sendInterest(t, alice, bob.ID)
	require.Equal(t, http.StatusOK, code)
	code, _ = sendInterest(t, carol, alice.ID)
	require.Equal(t, http.StatusOK, code)

	byPeer, err := interestsByPeer(db, alice.ID)
	require.NoError(t, err)

	require.Contains(t, byPeer, bob.ID)
	assert.Equal(t, "outgoing", byPeer[bob.ID].direction(alice.ID))
	require.Contains(t, byPeer, carol.ID)
	assert.Equal(t, "incoming", byPeer[carol.ID].direction(alice.ID))
	assert.NotContains(t, byPeer, dave.ID)
}

func TestListInterests(t *testing.T) {
	requireDB(t)

	alice := createTestUser(t, "list_alice@example.com", "password123")
	bob := createTestUser(t, "list_bob@example.com", "password123")
	carol := createTestUser(t, "list_carol@example.com", "password123")
	defer cleanupTestData(alice.Email, bob.Email, carol.Email)

	saveTestProfile(t, alice, defaultTestProfile())
	saveTestProfile(t, bob, defaultTestProfile())
	saveTestProfile(t, carol, defaultTestProfile())

	// alice → bob (outgoing for alice), carol → alice (incoming for alice)
	code, _ := sendInterest(t, alice, bob.ID)
	require.Equal(t, http.StatusOK, code)
	code, _ = sendInterest(t, carol, alice.ID)
	require.Equal(t, http.StatusOK, code)

	req := authedRequest(http.MethodGet, "/interests", nil, alice)
	req = req.WithContext(withLoaders(req.Context(), newLoaders(db)))
	w := httptest.NewRecorder()
	listInterestsHandler(db).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Incoming []struct {
			UserID  int `json:"user_id"`
			Profile *struct {
				FullName string `json:"full_name"`
			} `json:"profile"`
		} `json:"incoming"`
		Outgoing []struct {
			UserID int `json:"user_id"`
		} `json:"outgoing"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	require.Len(t, resp.Incoming, 1)
	assert.Equal(t, carol.ID, resp.Incoming[0].UserID)
	require.NotNil(t, resp.Incoming[0].Profile)
	assert.Equal(t, "Test Person", resp.Incoming[0].Profile.FullName)

	require.Len(t, resp.Outgoing, 1)
	assert.Equal(t, bob.ID, resp.Outgoing[0].UserID)
}
