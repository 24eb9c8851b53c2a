package academics

import "time"

// Create contracts carry only client-supplied fields. Binding tags are
// enforced by gin before anything reaches the store.

type UserCreate struct {
	SubmittedBy string `json:"submitted_by" binding:"required"`
	UserType    string `json:"user_type" binding:"required"`
	FullName    string `json:"full_name" binding:"required"`
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,max=72"`
}

// DepartmentCreate mirrors the full department row minus the generated id;
// updated_at may be supplied and otherwise defaults to now.
type DepartmentCreate struct {
	SubmittedBy    string     `json:"submitted_by" binding:"required"`
	DepartmentName string     `json:"department_name" binding:"required"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

type CourseAdd struct {
	SubmittedBy  string `json:"submitted_by" binding:"required"`
	CourseName   string `json:"course_name" binding:"required"`
	DepartmentID int64  `json:"department_id" binding:"required"`
	Semester     string `json:"semester" binding:"required"`
	ClassID      *int64 `json:"class_id" binding:"required"`
	LectureHours *int64 `json:"lecture_hours" binding:"required,gte=0"`
}

type StudentCreate struct {
	SubmittedBy  string `json:"submitted_by" binding:"required"`
	UserID       int64  `json:"user_id" binding:"required"`
	DepartmentID int64  `json:"department_id" binding:"required"`
	ClassID      *int64 `json:"class_id" binding:"required"`
}

// AttendanceLogCreate leaves present optional; it defaults to false.
type AttendanceLogCreate struct {
	SubmittedBy string `json:"submitted_by" binding:"required"`
	StudentID   int64  `json:"student_id" binding:"required"`
	CourseID    int64  `json:"course_id" binding:"required"`
	Present     *bool  `json:"present"`
}

func (in UserCreate) entity(now time.Time) User {
	return User{
		Base:     Base{SubmittedBy: in.SubmittedBy, UpdatedAt: now},
		UserType: in.UserType,
		FullName: in.FullName,
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	}
}

func (in DepartmentCreate) entity(now time.Time) Department {
	if in.UpdatedAt != nil {
		now = in.UpdatedAt.UTC()
	}
	return Department{
		Base:           Base{SubmittedBy: in.SubmittedBy, UpdatedAt: now},
		DepartmentName: in.DepartmentName,
	}
}

func (in CourseAdd) entity(now time.Time) Course {
	return Course{
		Base:         Base{SubmittedBy: in.SubmittedBy, UpdatedAt: now},
		CourseName:   in.CourseName,
		DepartmentID: in.DepartmentID,
		Semester:     in.Semester,
		ClassID:      deref(in.ClassID),
		LectureHours: deref(in.LectureHours),
	}
}

func (in StudentCreate) entity(now time.Time) Student {
	return Student{
		Base:         Base{SubmittedBy: in.SubmittedBy, UpdatedAt: now},
		UserID:       in.UserID,
		DepartmentID: in.DepartmentID,
		ClassID:      deref(in.ClassID),
	}
}

func (in AttendanceLogCreate) entity(now time.Time) AttendanceLog {
	return AttendanceLog{
		Base:      Base{SubmittedBy: in.SubmittedBy, UpdatedAt: now},
		StudentID: in.StudentID,
		CourseID:  in.CourseID,
		Present:   deref(in.Present),
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Read contracts are the response shapes. Embedding only points from
// children to parents (log -> student -> user), never back, so
// serialization always terminates.

// UserRead never carries username or password.
type UserRead struct {
	Base
	UserType string `json:"user_type"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type DepartmentRead struct {
	Base
	DepartmentName string `json:"department_name"`
}

type CourseRead struct {
	Base
	CourseName   string         `json:"course_name"`
	Department   DepartmentRead `json:"department"`
	Semester     string         `json:"semester"`
	ClassID      int64          `json:"class_id"`
	LectureHours int64          `json:"lecture_hours"`
}

type StudentRead struct {
	Base
	ClassID    int64          `json:"class_id"`
	User       UserRead       `json:"user"`
	Department DepartmentRead `json:"department"`
}

type AttendanceLogRead struct {
	Base
	Student StudentRead `json:"student"`
	Course  CourseRead  `json:"course"`
	Present bool        `json:"present"`
}

func (b *Base) dest() []any {
	return []any{&b.ID, &b.SubmittedBy, &b.UpdatedAt}
}

// normalize pins scanned timestamps to UTC; drivers may hand back a fixed
// zone depending on how the column was stored.
func (b *Base) normalize() {
	b.UpdatedAt = b.UpdatedAt.UTC()
}

func (u *UserRead) dest() []any {
	return append(u.Base.dest(), &u.UserType, &u.FullName, &u.Email)
}

func (d *DepartmentRead) dest() []any {
	return append(d.Base.dest(), &d.DepartmentName)
}

func (c *CourseRead) dest() []any {
	out := append(c.Base.dest(), &c.CourseName, &c.Semester, &c.ClassID, &c.LectureHours)
	return append(out, c.Department.dest()...)
}

func (c *CourseRead) normalize() {
	c.Base.normalize()
	c.Department.normalize()
}

func (s *StudentRead) dest() []any {
	out := append(s.Base.dest(), &s.ClassID)
	out = append(out, s.User.dest()...)
	return append(out, s.Department.dest()...)
}

func (s *StudentRead) normalize() {
	s.Base.normalize()
	s.User.normalize()
	s.Department.normalize()
}

func (a *AttendanceLogRead) dest() []any {
	out := append(a.Base.dest(), &a.Present)
	out = append(out, a.Student.dest()...)
	return append(out, a.Course.dest()...)
}

func (a *AttendanceLogRead) normalize() {
	a.Base.normalize()
	a.Student.normalize()
	a.Course.normalize()
}
