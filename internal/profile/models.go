package profile

import "time"

// Profile is the public view of a user account
type Profile struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Gender    string    `json:"gender" db:"gender"`
	Age       int       `json:"age" db:"age"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateProfileRequest carries the mutable profile fields. Nil means
// "leave unchanged".
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=80,alphanum"`
	Gender   *string `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Age      *int    `json:"age,omitempty" validate:"omitempty,gte=13,lte=120"`
}
