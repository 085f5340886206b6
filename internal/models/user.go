package models

import "time"

// DateLayout is the wire format for dates of birth.
const DateLayout = "2006-01-02"

type User struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	DateOfBirth time.Time `json:"dateOfBirth" db:"date_of_birth"`
	Password    string    `json:"-" db:"password"` // bcrypt hash
}

// UserView is the public projection of a user returned by the directory search.
type UserView struct {
	ID          int64    `json:"id" example:"1"`
	Name        string   `json:"name" example:"John"`
	DateOfBirth string   `json:"dateOfBirth" example:"1990-05-01"`
	Emails      []string `json:"emails" example:"john@example.com"`
	Phones      []string `json:"phones" example:"79201234567"`
}

func NewUserView(u User, emails, phones []string) UserView {
	if emails == nil {
		emails = []string{}
	}
	if phones == nil {
		phones = []string{}
	}
	return UserView{
		ID:          u.ID,
		Name:        u.Name,
		DateOfBirth: u.DateOfBirth.Format(DateLayout),
		Emails:      emails,
		Phones:      phones,
	}
}

// SearchCriteria holds the optional directory filters. Zero values are ignored.
type SearchCriteria struct {
	Name        string
	Email       string
	Phone       string
	DateOfBirth *time.Time
}

// Key renders the criteria as a stable string, used for cache keys.
func (c SearchCriteria) Key() string {
	dob := ""
	if c.DateOfBirth != nil {
		dob = c.DateOfBirth.Format(DateLayout)
	}
	return "name=" + c.Name + "|email=" + c.Email + "|phone=" + c.Phone + "|dob=" + dob
}
