package models

import "time"

// TimetableSlot places a subject and teacher into a weekly period for a class.
// Day is ISO weekday 1 (Monday) through 5 (Friday); Period is the 1-based
// lesson index within the day.
type TimetableSlot struct {
	ID        string    `db:"id" json:"id"`
	Grade     string    `db:"grade" json:"grade"`
	Stream    string    `db:"stream" json:"stream"`
	Day       int       `db:"day" json:"day"`
	Period    int       `db:"period" json:"period"`
	Subject   string    `db:"subject" json:"subject"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableSlotDetail adds teacher metadata to a slot.
type TimetableSlotDetail struct {
	TimetableSlot
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// TimetableFilter scopes slot listing to a class.
type TimetableFilter struct {
	Grade     string
	Stream    string
	TeacherID string
	Day       *int
}
