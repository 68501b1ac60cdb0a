// internal/buddy/dto.go
package buddy

import "time"

// DTOs for API requests/responses

// ScoredMatch is one discovery result, ranked by compatibility
type ScoredMatch struct {
	UserID             int64    `json:"user_id"`
	Username           string   `json:"username"`
	Age                int      `json:"age"`
	Gender             string   `json:"gender"`
	CompatibilityScore float64  `json:"compatibility_score"`
	FitnessLevel       *string  `json:"fitness_level"`
	GymLocation        *string  `json:"gym_location"`
	WorkoutTypes       []string `json:"workout_types"`
}

// LikeRequest asks to like another user
type LikeRequest struct {
	ToUserID int64 `json:"to_user_id" validate:"required,gt=0"`
}

// LikeResult reports whether the like completed a mutual pair
type LikeResult struct {
	Mutual  bool   `json:"mutual"`
	Message string `json:"message"`
}

// BlockRequest asks to block another user
type BlockRequest struct {
	BlockedID int64  `json:"blocked_id" validate:"required,gt=0"`
	Reason    string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ConnectionView is one connection as seen by the requesting user: the
// edge plus the counterpart's public details
type ConnectionView struct {
	ConnectionID int64            `json:"connection_id"`
	UserID       int64            `json:"user_id"`
	Username     string           `json:"username"`
	Age          int              `json:"age"`
	Gender       string           `json:"gender"`
	Status       ConnectionStatus `json:"status"`
	ConnectedAt  time.Time        `json:"connected_at"`
	FitnessLevel *string          `json:"fitness_level"`
	GymLocation  *string          `json:"gym_location"`
}

// UpsertPreferencesRequest carries preference fields. Nil fields are left
// unchanged on an existing record and defaulted on a new one.
type UpsertPreferencesRequest struct {
	GenderPreference *string  `json:"gender_preference,omitempty" validate:"omitempty,oneof=male female other no_preference"`
	MinAge           *int     `json:"min_age,omitempty" validate:"omitempty,gte=13,lte=120"`
	MaxAge           *int     `json:"max_age,omitempty" validate:"omitempty,gte=13,lte=120"`
	WorkoutTypes     []string `json:"workout_types,omitempty"`
	AvailabilityDays []string `json:"availability_days,omitempty"`
	FitnessLevel     *string  `json:"fitness_level,omitempty" validate:"omitempty,max=20"`
	Goals            []string `json:"goals,omitempty"`
	GymLocation      *string  `json:"gym_location,omitempty" validate:"omitempty,max=200"`
}

// PreferencesView is the decoded form of a preference record
type PreferencesView struct {
	GenderPreference string   `json:"gender_preference"`
	MinAge           int      `json:"min_age"`
	MaxAge           int      `json:"max_age"`
	WorkoutTypes     []string `json:"workout_types"`
	AvailabilityDays []string `json:"availability_days"`
	FitnessLevel     *string  `json:"fitness_level"`
	Goals            []string `json:"goals"`
	GymLocation      *string  `json:"gym_location"`
}
