package models

// ContactKind names a contact table: email_data or phone_data.
type ContactKind string

const (
	ContactEmail ContactKind = "email"
	ContactPhone ContactKind = "phone"
)

// Contact is one row of email_data or phone_data.
type Contact struct {
	ID     int64  `json:"id" db:"id"`
	UserID int64  `json:"userId" db:"user_id"`
	Value  string `json:"value" db:"value"`
}
