package main

import (
	"database/sql"
	"time"
)

// Profile is the fixed-shape record every scoring and completion lookup
// runs against. Optional columns use sql.Null* so "absent" and "zero"
// stay distinguishable.
type Profile struct {
	ID     int
	UserID int

	FullName      string
	Age           sql.NullInt64
	Gender        string
	HeightCm      sql.NullInt64
	MaritalStatus string
	Location      string

	HighestEducation string
	Occupation       string
	IncomeRange      string

	Smoking           string
	Drinking          string
	MedicalConditions string
	FitnessLevel      string

	PrefAgeMin         sql.NullInt64
	PrefAgeMax         sql.NullInt64
	PrefLocation       string
	PrefEducationLevel string

	ImageFilename sql.NullString
	IsVerified    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interest is a directional request between two users. At most one row
// exists per unordered pair, whichever side sent it.
type Interest struct {
	ID          int
	FromUserID  int
	ToUserID    int
	Status      string // pending | accepted | rejected
	CreatedAt   time.Time
	RespondedAt sql.NullTime
}

// Interest status values.
const (
	interestPending  = "pending"
	interestAccepted = "accepted"
	interestRejected = "rejected"
)

// Message is append-only; either body or attachment may be empty, not both.
type Message struct {
	ID                 int64
	FromUserID         int
	ToUserID           int
	Body               sql.NullString
	AttachmentFilename sql.NullString
	CreatedAt          time.Time
}

const profileColumns = `
	id, user_id, full_name, age, gender, height_cm, marital_status, location,
	highest_education, occupation, income_range,
	smoking, drinking, medical_conditions, fitness_level,
	pref_age_min, pref_age_max, pref_location, pref_education_level,
	image_filename, is_verified, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.FullName, &p.Age, &p.Gender, &p.HeightCm, &p.MaritalStatus, &p.Location,
		&p.HighestEducation, &p.Occupation, &p.IncomeRange,
		&p.Smoking, &p.Drinking, &p.MedicalConditions, &p.FitnessLevel,
		&p.PrefAgeMin, &p.PrefAgeMax, &p.PrefLocation, &p.PrefEducationLevel,
		&p.ImageFilename, &p.IsVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// getProfileByUserID returns (nil, nil) when the user has no profile yet.
func getProfileByUserID(db *sql.DB, userID int) (*Profile, error) {
	row := db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func getProfileByID(db *sql.DB, profileID int) (*Profile, error) {
	row := db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, profileID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// listOtherProfiles enumerates messaging/scoring candidates, newest edits first.
func listOtherProfiles(db *sql.DB, currentUserID int) ([]*Profile, error) {
	rows, err := db.Query(`SELECT `+profileColumns+` FROM profiles WHERE user_id <> $1 ORDER BY updated_at DESC`, currentUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
