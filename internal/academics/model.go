package academics

import "time"

// Base holds the columns every table shares. UpdatedAt is stamped once at
// creation; updates leave it untouched.
type Base struct {
	ID          int64     `json:"id" db:"id"`
	SubmittedBy string    `json:"submitted_by" db:"submitted_by"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// User is a person known to the system. Password holds a bcrypt hash.
type User struct {
	Base
	UserType string `json:"user_type" db:"user_type"`
	FullName string `json:"full_name" db:"full_name"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	Password string `json:"-" db:"password"`
}

type Department struct {
	Base
	DepartmentName string `json:"department_name" db:"department_name"`
}

type Course struct {
	Base
	CourseName   string `json:"course_name" db:"course_name"`
	DepartmentID int64  `json:"department_id" db:"department_id"`
	Semester     string `json:"semester" db:"semester"`
	ClassID      int64  `json:"class_id" db:"class_id"`
	LectureHours int64  `json:"lecture_hours" db:"lecture_hours"`
}

type Student struct {
	Base
	UserID       int64 `json:"user_id" db:"user_id"`
	DepartmentID int64 `json:"department_id" db:"department_id"`
	ClassID      int64 `json:"class_id" db:"class_id"`
}

type AttendanceLog struct {
	Base
	StudentID int64 `json:"student_id" db:"student_id"`
	CourseID  int64 `json:"course_id" db:"course_id"`
	Present   bool  `json:"present" db:"present"`
}
