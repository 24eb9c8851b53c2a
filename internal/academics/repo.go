package academics

import (
	"context"
	"database/sql"
	"fmt"

	"academics/internal/store"
)

// Repository issues explicit SQL against one Querier: the pool for plain
// reads, or a transaction inside Service.
type Repository struct {
	q store.Querier
}

// NewRepository creates a repo.
func NewRepository(q store.Querier) *Repository {
	return &Repository{q: q}
}

func baseCols(alias string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.submitted_by, %[1]s.updated_at", alias)
}

func userReadCols(u string) string {
	return fmt.Sprintf("%s, %[2]s.user_type, %[2]s.full_name, %[2]s.email", baseCols(u), u)
}

func departmentReadCols(d string) string {
	return fmt.Sprintf("%s, %s.department_name", baseCols(d), d)
}

func courseReadCols(c, d string) string {
	return fmt.Sprintf("%s, %[2]s.course_name, %[2]s.semester, %[2]s.class_id, %[2]s.lecture_hours, %[3]s",
		baseCols(c), c, departmentReadCols(d))
}

func studentReadCols(s, u, d string) string {
	return fmt.Sprintf("%s, %s.class_id, %s, %s", baseCols(s), s, userReadCols(u), departmentReadCols(d))
}

var (
	userReadSelect = "SELECT " + userReadCols("u") + " FROM users u"

	departmentReadSelect = "SELECT " + departmentReadCols("d") + " FROM departments d"

	courseReadSelect = "SELECT " + courseReadCols("c", "cd") + `
		FROM courses c
		JOIN departments cd ON cd.id = c.department_id`

	studentReadSelect = "SELECT " + studentReadCols("s", "su", "sd") + `
		FROM students s
		JOIN users su ON su.id = s.user_id
		JOIN departments sd ON sd.id = s.department_id`

	attendanceLogReadSelect = "SELECT " + baseCols("a") + ", a.present, " +
		studentReadCols("s", "su", "sd") + ", " + courseReadCols("c", "cd") + `
		FROM attendance_logs a
		JOIN students s ON s.id = a.student_id
		JOIN users su ON su.id = s.user_id
		JOIN departments sd ON sd.id = s.department_id
		JOIN courses c ON c.id = a.course_id
		JOIN departments cd ON cd.id = c.department_id`
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

type readable interface {
	dest() []any
	normalize()
}

func listReads[T any, PT interface {
	*T
	readable
}](ctx context.Context, q store.Querier, query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Classify(err)
	}
	defer rows.Close()

	res := make([]T, 0)
	for rows.Next() {
		var v T
		if err := rows.Scan(PT(&v).dest()...); err != nil {
			return nil, err
		}
		PT(&v).normalize()
		res = append(res, v)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Classify(err)
	}
	return res, nil
}

func getRead[T any, PT interface {
	*T
	readable
}](ctx context.Context, q store.Querier, query string, id int64) (T, error) {
	var v T
	if err := q.QueryRowContext(ctx, query, id).Scan(PT(&v).dest()...); err != nil {
		return v, store.Classify(err)
	}
	PT(&v).normalize()
	return v, nil
}

// -------- read contracts --------

func (r *Repository) ListUserReads(ctx context.Context) ([]UserRead, error) {
	return listReads[UserRead](ctx, r.q, userReadSelect+" ORDER BY u.id")
}

func (r *Repository) GetUserRead(ctx context.Context, id int64) (UserRead, error) {
	return getRead[UserRead](ctx, r.q, userReadSelect+" WHERE u.id = ?", id)
}

func (r *Repository) ListDepartmentReads(ctx context.Context) ([]DepartmentRead, error) {
	return listReads[DepartmentRead](ctx, r.q, departmentReadSelect+" ORDER BY d.id")
}

func (r *Repository) GetDepartmentRead(ctx context.Context, id int64) (DepartmentRead, error) {
	return getRead[DepartmentRead](ctx, r.q, departmentReadSelect+" WHERE d.id = ?", id)
}

func (r *Repository) ListCourseReads(ctx context.Context) ([]CourseRead, error) {
	return listReads[CourseRead](ctx, r.q, courseReadSelect+" ORDER BY c.id")
}

func (r *Repository) GetCourseRead(ctx context.Context, id int64) (CourseRead, error) {
	return getRead[CourseRead](ctx, r.q, courseReadSelect+" WHERE c.id = ?", id)
}

func (r *Repository) ListStudentReads(ctx context.Context) ([]StudentRead, error) {
	return listReads[StudentRead](ctx, r.q, studentReadSelect+" ORDER BY s.id")
}

func (r *Repository) GetStudentRead(ctx context.Context, id int64) (StudentRead, error) {
	return getRead[StudentRead](ctx, r.q, studentReadSelect+" WHERE s.id = ?", id)
}

func (r *Repository) ListAttendanceLogReads(ctx context.Context) ([]AttendanceLogRead, error) {
	return listReads[AttendanceLogRead](ctx, r.q, attendanceLogReadSelect+" ORDER BY a.id")
}

func (r *Repository) GetAttendanceLogRead(ctx context.Context, id int64) (AttendanceLogRead, error) {
	return getRead[AttendanceLogRead](ctx, r.q, attendanceLogReadSelect+" WHERE a.id = ?", id)
}

// -------- shared row helpers --------

func (r *Repository) insert(ctx context.Context, query string, id *int64, args ...any) error {
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(id); err != nil {
		return store.Classify(err)
	}
	return nil
}

func (r *Repository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return store.Classify(err)
	}
	return requireRow(res)
}

func (r *Repository) deleteRow(ctx context.Context, table string, id int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return store.ClassifyDelete(err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &store.Error{Kind: store.ErrNotFound}
	}
	return nil
}

// queryRows runs query and scans every row with scan. The result is never nil.
func queryRows[T any](ctx context.Context, q store.Querier, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Classify(err)
	}
	defer rows.Close()
	res := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Classify(err)
	}
	return res, nil
}

// -------- users --------

// InsertUser writes u and assigns its generated id.
func (r *Repository) InsertUser(ctx context.Context, u *User) error {
	return r.insert(ctx, `
		INSERT INTO users (submitted_by, updated_at, user_type, full_name, username, email, password)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, &u.ID, u.SubmittedBy, u.UpdatedAt, u.UserType, u.FullName, u.Username, u.Email, u.Password)
}

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.SubmittedBy, &u.UpdatedAt, &u.UserType, &u.FullName, &u.Username, &u.Email, &u.Password)
	u.normalize()
	return u, err
}

const userCols = "id, submitted_by, updated_at, user_type, full_name, username, email, password"

func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE id = ?", id))
	return u, store.Classify(err)
}

func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	return queryRows(ctx, r.q, scanUser, "SELECT "+userCols+" FROM users ORDER BY id")
}

// UpdateUser rewrites every mutable column. updated_at is left as stamped.
func (r *Repository) UpdateUser(ctx context.Context, u User) error {
	return r.update(ctx, `
		UPDATE users
		SET submitted_by = ?, user_type = ?, full_name = ?, username = ?, email = ?, password = ?
		WHERE id = ?
	`, u.SubmittedBy, u.UserType, u.FullName, u.Username, u.Email, u.Password, u.ID)
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "users", id)
}

// -------- departments --------

func (r *Repository) InsertDepartment(ctx context.Context, d *Department) error {
	return r.insert(ctx, `
		INSERT INTO departments (submitted_by, updated_at, department_name)
		VALUES (?, ?, ?)
		RETURNING id
	`, &d.ID, d.SubmittedBy, d.UpdatedAt, d.DepartmentName)
}

func scanDepartment(row scanner) (Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.SubmittedBy, &d.UpdatedAt, &d.DepartmentName)
	d.normalize()
	return d, err
}

const departmentCols = "id, submitted_by, updated_at, department_name"

func (r *Repository) GetDepartment(ctx context.Context, id int64) (Department, error) {
	d, err := scanDepartment(r.q.QueryRowContext(ctx, "SELECT "+departmentCols+" FROM departments WHERE id = ?", id))
	return d, store.Classify(err)
}

func (r *Repository) ListDepartments(ctx context.Context) ([]Department, error) {
	return queryRows(ctx, r.q, scanDepartment, "SELECT "+departmentCols+" FROM departments ORDER BY id")
}

// FindDepartmentsByName returns departments with an exact name match.
func (r *Repository) FindDepartmentsByName(ctx context.Context, name string) ([]Department, error) {
	return queryRows(ctx, r.q, scanDepartment, "SELECT "+departmentCols+" FROM departments WHERE department_name = ? ORDER BY id", name)
}

func (r *Repository) UpdateDepartment(ctx context.Context, d Department) error {
	return r.update(ctx, `
		UPDATE departments SET submitted_by = ?, department_name = ? WHERE id = ?
	`, d.SubmittedBy, d.DepartmentName, d.ID)
}

func (r *Repository) DeleteDepartment(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "departments", id)
}

// -------- courses --------

func (r *Repository) InsertCourse(ctx context.Context, c *Course) error {
	return r.insert(ctx, `
		INSERT INTO courses (submitted_by, updated_at, course_name, department_id, semester, class_id, lecture_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, &c.ID, c.SubmittedBy, c.UpdatedAt, c.CourseName, c.DepartmentID, c.Semester, c.ClassID, c.LectureHours)
}

func scanCourse(row scanner) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.SubmittedBy, &c.UpdatedAt, &c.CourseName, &c.DepartmentID, &c.Semester, &c.ClassID, &c.LectureHours)
	c.normalize()
	return c, err
}

const courseCols = "id, submitted_by, updated_at, course_name, department_id, semester, class_id, lecture_hours"

func (r *Repository) GetCourse(ctx context.Context, id int64) (Course, error) {
	c, err := scanCourse(r.q.QueryRowContext(ctx, "SELECT "+courseCols+" FROM courses WHERE id = ?", id))
	return c, store.Classify(err)
}

func (r *Repository) ListCourses(ctx context.Context) ([]Course, error) {
	return queryRows(ctx, r.q, scanCourse, "SELECT "+courseCols+" FROM courses ORDER BY id")
}

// FindCoursesByName returns courses with an exact name match.
func (r *Repository) FindCoursesByName(ctx context.Context, name string) ([]Course, error) {
	return queryRows(ctx, r.q, scanCourse, "SELECT "+courseCols+" FROM courses WHERE course_name = ? ORDER BY id", name)
}

func (r *Repository) UpdateCourse(ctx context.Context, c Course) error {
	return r.update(ctx, `
		UPDATE courses
		SET submitted_by = ?, course_name = ?, department_id = ?, semester = ?, class_id = ?, lecture_hours = ?
		WHERE id = ?
	`, c.SubmittedBy, c.CourseName, c.DepartmentID, c.Semester, c.ClassID, c.LectureHours, c.ID)
}

func (r *Repository) DeleteCourse(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "courses", id)
}

// -------- students --------

func (r *Repository) InsertStudent(ctx context.Context, s *Student) error {
	return r.insert(ctx, `
		INSERT INTO students (submitted_by, updated_at, user_id, department_id, class_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, &s.ID, s.SubmittedBy, s.UpdatedAt, s.UserID, s.DepartmentID, s.ClassID)
}

func scanStudent(row scanner) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.SubmittedBy, &s.UpdatedAt, &s.UserID, &s.DepartmentID, &s.ClassID)
	s.normalize()
	return s, err
}

const studentCols = "id, submitted_by, updated_at, user_id, department_id, class_id"

func (r *Repository) GetStudent(ctx context.Context, id int64) (Student, error) {
	s, err := scanStudent(r.q.QueryRowContext(ctx, "SELECT "+studentCols+" FROM students WHERE id = ?", id))
	return s, store.Classify(err)
}

func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	return queryRows(ctx, r.q, scanStudent, "SELECT "+studentCols+" FROM students ORDER BY id")
}

// FindStudentsByUser returns the student rows attached to a user.
func (r *Repository) FindStudentsByUser(ctx context.Context, userID int64) ([]Student, error) {
	return queryRows(ctx, r.q, scanStudent, "SELECT "+studentCols+" FROM students WHERE user_id = ? ORDER BY id", userID)
}

func (r *Repository) UpdateStudent(ctx context.Context, s Student) error {
	return r.update(ctx, `
		UPDATE students SET submitted_by = ?, user_id = ?, department_id = ?, class_id = ? WHERE id = ?
	`, s.SubmittedBy, s.UserID, s.DepartmentID, s.ClassID, s.ID)
}

func (r *Repository) DeleteStudent(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "students", id)
}

// -------- attendance logs --------

func (r *Repository) InsertAttendanceLog(ctx context.Context, a *AttendanceLog) error {
	return r.insert(ctx, `
		INSERT INTO attendance_logs (submitted_by, updated_at, student_id, course_id, present)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, &a.ID, a.SubmittedBy, a.UpdatedAt, a.StudentID, a.CourseID, a.Present)
}

func scanAttendanceLog(row scanner) (AttendanceLog, error) {
	var a AttendanceLog
	err := row.Scan(&a.ID, &a.SubmittedBy, &a.UpdatedAt, &a.StudentID, &a.CourseID, &a.Present)
	a.normalize()
	return a, err
}

const attendanceLogCols = "id, submitted_by, updated_at, student_id, course_id, present"

func (r *Repository) GetAttendanceLog(ctx context.Context, id int64) (AttendanceLog, error) {
	a, err := scanAttendanceLog(r.q.QueryRowContext(ctx, "SELECT "+attendanceLogCols+" FROM attendance_logs WHERE id = ?", id))
	return a, store.Classify(err)
}

func (r *Repository) ListAttendanceLogs(ctx context.Context) ([]AttendanceLog, error) {
	return queryRows(ctx, r.q, scanAttendanceLog, "SELECT "+attendanceLogCols+" FROM attendance_logs ORDER BY id")
}

// FindAttendanceLogsByStudent returns a student's logs in insertion order.
func (r *Repository) FindAttendanceLogsByStudent(ctx context.Context, studentID int64) ([]AttendanceLog, error) {
	return queryRows(ctx, r.q, scanAttendanceLog, "SELECT "+attendanceLogCols+" FROM attendance_logs WHERE student_id = ? ORDER BY id", studentID)
}

func (r *Repository) UpdateAttendanceLog(ctx context.Context, a AttendanceLog) error {
	return r.update(ctx, `
		UPDATE attendance_logs SET submitted_by = ?, student_id = ?, course_id = ?, present = ? WHERE id = ?
	`, a.SubmittedBy, a.StudentID, a.CourseID, a.Present, a.ID)
}

func (r *Repository) DeleteAttendanceLog(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "attendance_logs", id)
}
