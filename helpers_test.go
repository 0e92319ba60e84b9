package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// createTestUser creates a user with the given email and password, returns TestUser with ID and Token
func createTestUser(t *testing.T, email, password string) TestUser {
	t.Helper()

	// Clean up existing user
	db.Exec("DELETE FROM users WHERE email = $1", email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to generate bcrypt hash: %v", err)
	}

	var userID int
	err = db.QueryRow("INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id", email, string(hash)).Scan(&userID)
	if err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}

	token := loginUser(t, email, password)

	return TestUser{
		ID:       userID,
		Email:    email,
		Password: password,
		Token:    token,
	}
}

// loginUser logs in a user and returns the JWT token
func loginUser(t *testing.T, email, password string) string {
	t.Helper()

	reqBody := []byte(fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	loginHandler(db).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login failed for %s: status %d", email, w.Code)
	}

	var respBody map[string]interface{}
	json.NewDecoder(w.Body).Decode(&respBody)
	token, ok := respBody["token"].(string)
	if !ok {
		t.Fatalf("expected token in login response, got %v", respBody)
	}

	return token
}

// defaultTestProfile is a complete profile request that scores 100 against
// an identical copy of itself.
func defaultTestProfile() profileRequest {
	return profileRequest{
		FullName:           "Test Person",
		Age:                30,
		Gender:             "Other",
		HeightCm:           170,
		MaritalStatus:      "Never Married",
		Location:           "Pune",
		HighestEducation:   "Masters",
		Occupation:         "Software Engineer",
		IncomeRange:        "10-15 LPA",
		Smoking:            "No",
		Drinking:           "No",
		MedicalConditions:  "None",
		FitnessLevel:       "Active",
		PrefAgeMin:         25,
		PrefAgeMax:         35,
		PrefLocation:       "Pune",
		PrefEducationLevel: "Bachelors",
	}
}

// saveTestProfile upserts a profile through the real handler.
func saveTestProfile(t *testing.T, user TestUser, profile profileRequest) {
	t.Helper()

	payload, _ := json.Marshal(profile)
	req := httptest.NewRequest(http.MethodPut, "/me/profile", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+user.Token)
	w := httptest.NewRecorder()

	meProfileHandler(db).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("profile save failed for %s: status %d body %s", user.Email, w.Code, w.Body.String())
	}
}

// cleanupTestData removes users created during a test (cascades to
// profiles, interests and messages).
func cleanupTestData(emails ...string) {
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// authedRequest builds a request with the user's bearer token.
func authedRequest(method, target string, body *bytes.Buffer, user TestUser) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+user.Token)
	return req
}
