package academics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"academics/internal/store"
)

// Service runs each create as one unit of work: insert, then re-read the
// row through its read contract so generated columns come from the store.
type Service struct {
	db         *store.DB
	bcryptCost int
	now        func() time.Time
}

// NewService creates a service backed by a store.
func NewService(db *store.DB, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		db:         db,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *Service) repo() *Repository { return NewRepository(s.db) }

// CreateUser stores a bcrypt hash in place of the plaintext password.
func (s *Service) CreateUser(ctx context.Context, in UserCreate) (UserRead, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return UserRead{}, fmt.Errorf("hash password: %w", err)
	}
	u := in.entity(s.now())
	u.Password = string(hash)

	var out UserRead
	err = s.db.WithTx(ctx, func(q store.Querier) error {
		repo := NewRepository(q)
		if err := repo.InsertUser(ctx, &u); err != nil {
			return err
		}
		var err error
		out, err = repo.GetUserRead(ctx, u.ID)
		return err
	})
	return out, err
}

func (s *Service) CreateDepartment(ctx context.Context, in DepartmentCreate) (DepartmentRead, error) {
	d := in.entity(s.now())
	var out DepartmentRead
	err := s.db.WithTx(ctx, func(q store.Querier) error {
		repo := NewRepository(q)
		if err := repo.InsertDepartment(ctx, &d); err != nil {
			return err
		}
		var err error
		out, err = repo.GetDepartmentRead(ctx, d.ID)
		return err
	})
	return out, err
}

func (s *Service) CreateCourse(ctx context.Context, in CourseAdd) (CourseRead, error) {
	c := in.entity(s.now())
	var out CourseRead
	err := s.db.WithTx(ctx, func(q store.Querier) error {
		repo := NewRepository(q)
		if err := repo.InsertCourse(ctx, &c); err != nil {
			return err
		}
		var err error
		out, err = repo.GetCourseRead(ctx, c.ID)
		return err
	})
	return out, err
}

func (s *Service) CreateStudent(ctx context.Context, in StudentCreate) (StudentRead, error) {
	st := in.entity(s.now())
	var out StudentRead
	err := s.db.WithTx(ctx, func(q store.Querier) error {
		repo := NewRepository(q)
		if err := repo.InsertStudent(ctx, &st); err != nil {
			return err
		}
		var err error
		out, err = repo.GetStudentRead(ctx, st.ID)
		return err
	})
	return out, err
}

func (s *Service) CreateAttendanceLog(ctx context.Context, in AttendanceLogCreate) (AttendanceLogRead, error) {
	a := in.entity(s.now())
	var out AttendanceLogRead
	err := s.db.WithTx(ctx, func(q store.Querier) error {
		repo := NewRepository(q)
		if err := repo.InsertAttendanceLog(ctx, &a); err != nil {
			return err
		}
		var err error
		out, err = repo.GetAttendanceLogRead(ctx, a.ID)
		return err
	})
	return out, err
}

func (s *Service) ListUsers(ctx context.Context) ([]UserRead, error) {
	return s.repo().ListUserReads(ctx)
}

func (s *Service) ListDepartments(ctx context.Context) ([]DepartmentRead, error) {
	return s.repo().ListDepartmentReads(ctx)
}

func (s *Service) ListCourses(ctx context.Context) ([]CourseRead, error) {
	return s.repo().ListCourseReads(ctx)
}

func (s *Service) ListStudents(ctx context.Context) ([]StudentRead, error) {
	return s.repo().ListStudentReads(ctx)
}

func (s *Service) ListAttendanceLogs(ctx context.Context) ([]AttendanceLogRead, error) {
	return s.repo().ListAttendanceLogReads(ctx)
}
