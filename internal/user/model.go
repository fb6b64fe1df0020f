package user

import "time"

// Audit carries the record-keeping fields shared by durable records.
type Audit struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	Audit
}

// Fields is a partial update. Nil pointers mean "leave unchanged"; a
// pointer to an empty string is a deliberate write of the empty value.
type Fields struct {
	Username     *string
	Email        *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
}

func (f Fields) Empty() bool {
	return f.Username == nil && f.Email == nil && f.PasswordHash == nil &&
		f.FirstName == nil && f.LastName == nil
}
