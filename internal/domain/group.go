package domain

import "time"

// GroupMember — связь участника (студента или преподавателя) с группой.
type GroupMember struct {
	ID         int64     `json:"id" db:"id"`
	GroupID    string    `json:"group_id" db:"group_id"`
	GroupName  string    `json:"group_name" db:"group_name"`
	MemberID   string    `json:"member_id" db:"member_id"`
	MemberName string    `json:"member_name" db:"member_name"`
	MemberType string    `json:"member_type" db:"member_type"` // student | teacher
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// RosterRow — одна строка импортируемого списка «группа-преподаватель-студент».
type RosterRow struct {
	GroupID     string `json:"group_id"`
	GroupName   string `json:"group_name"`
	TeacherID   string `json:"teacher_id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

// UploadedFile — архивная копия загруженного файла импорта.
type UploadedFile struct {
	ID           int64     `json:"id" db:"id"`
	Filename     string    `json:"filename" db:"filename"`
	ContentType  string    `json:"content_type" db:"content_type"`
	Content      []byte    `json:"-" db:"content"`
	OperatedBy   string    `json:"operated_by" db:"operated_by"`
	OperatedTime time.Time `json:"operated_time" db:"operated_time"`
}
