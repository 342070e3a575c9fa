package models

import "time"

// Student is a named subject of diagnoses, owned by the submitting user.
// Names are stored trimmed and lowercased; lookups use the normalized form.
type Student struct {
	ID        string    `db:"student_id" json:"student_id"`
	Name      string    `db:"student_name" json:"student_name"`
	UserID    string    `db:"fk_user_id" json:"fk_user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
