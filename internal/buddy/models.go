package buddy

import (
	"encoding/json"
	"time"
)

// Gender values stored on users
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Gender preference values stored on buddy preferences
const (
	PreferenceMale         = "male"
	PreferenceFemale       = "female"
	PreferenceOther        = "other"
	PreferenceNoPreference = "no_preference"
)

// ConnectionStatus is the state of a directed like edge
type ConnectionStatus string

const (
	StatusPending ConnectionStatus = "pending"
	StatusMutual  ConnectionStatus = "mutual"
	StatusBlocked ConnectionStatus = "blocked"
)

// Valid reports whether s is a known connection status
func (s ConnectionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusMutual, StatusBlocked:
		return true
	}
	return false
}

// UserProfile is the slice of a user account that matching needs
type UserProfile struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Gender   string `json:"gender" db:"gender"`
	Age      int    `json:"age" db:"age"`
}

// BuddyPreference holds a user's matching preferences. The list fields
// (workout types, availability days, goals) are stored as JSON-encoded text
// and decoded leniently: records are sparsely filled in practice and a
// malformed value must never fail a whole scoring pass.
type BuddyPreference struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	GenderPreference string    `json:"gender_preference" db:"gender_preference"`
	MinAge           int       `json:"min_age" db:"min_age"`
	MaxAge           int       `json:"max_age" db:"max_age"`
	WorkoutTypes     *string   `json:"-" db:"workout_types"`
	AvailabilityDays *string   `json:"-" db:"availability_days"`
	FitnessLevel     *string   `json:"fitness_level" db:"fitness_level"`
	Goals            *string   `json:"-" db:"goals"`
	GymLocation      *string   `json:"gym_location" db:"gym_location"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// WorkoutTypeList decodes the stored workout types
func (p *BuddyPreference) WorkoutTypeList() []string {
	list, _ := decodeList(p.WorkoutTypes)
	return list
}

// AvailabilityDayList decodes the stored availability days
func (p *BuddyPreference) AvailabilityDayList() []string {
	list, _ := decodeList(p.AvailabilityDays)
	return list
}

// GoalList decodes the stored goals
func (p *BuddyPreference) GoalList() []string {
	list, _ := decodeList(p.Goals)
	return list
}

// decodeList decodes a JSON-encoded string list column. ok is false when
// the value is present but unparsable, which scoring treats as "no data"
// rather than an error.
func decodeList(raw *string) (list []string, ok bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	if err := json.Unmarshal([]byte(*raw), &list); err != nil {
		return nil, false
	}
	return list, true
}

// encodeList encodes a string list for storage, returning nil for an
// absent list
func encodeList(list []string) *string {
	if list == nil {
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

// Connection is a directed like edge between two users
type Connection struct {
	ID         int64            `json:"id" db:"id"`
	FromUserID int64            `json:"from_user_id" db:"from_user_id"`
	ToUserID   int64            `json:"to_user_id" db:"to_user_id"`
	Status     ConnectionStatus `json:"status" db:"status"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}

// BlockedUser is a directed block edge with an optional reason
type BlockedUser struct {
	ID        int64     `json:"id" db:"id"`
	BlockerID int64     `json:"blocker_id" db:"blocker_id"`
	BlockedID int64     `json:"blocked_id" db:"blocked_id"`
	Reason    *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Candidate pairs a user with their preference for scoring
type Candidate struct {
	User       UserProfile
	Preference BuddyPreference
}
