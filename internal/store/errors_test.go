package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func insertUser(ctx context.Context, q Querier, username, email string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (submitted_by, updated_at, user_type, full_name, username, email, password)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, "t", time.Now().UTC(), "student", "Test", username, email, "x")
	return err
}

func TestClassifySQLiteUnique(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := insertUser(ctx, db, "alice", "a@x.com"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := Classify(insertUser(ctx, db, "alice", "other@x.com"))
	if !errors.Is(err, ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	var classified *Error
	if !errors.As(err, &classified) || classified.Detail != "users.username" {
		t.Fatalf("expected users.username detail, got %#v", err)
	}
}

func TestClassifySQLiteForeignKey(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		INSERT INTO courses (submitted_by, updated_at, course_name, department_id, semester, class_id, lecture_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, "t", time.Now().UTC(), "Algorithms", 9999, "Fall", 1, 3)
	if !errors.Is(Classify(err), ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}
}

func TestClassifyDeleteReferenced(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var deptID int64
	err := db.QueryRowContext(ctx,
		"INSERT INTO departments (submitted_by, updated_at, department_name) VALUES (?, ?, ?) RETURNING id",
		"t", now, "CS").Scan(&deptID)
	if err != nil {
		t.Fatalf("insert department: %v", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO courses (submitted_by, updated_at, course_name, department_id, semester, class_id, lecture_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, "t", now, "Algorithms", deptID, "Fall", 1, 3)
	if err != nil {
		t.Fatalf("insert course: %v", err)
	}

	_, err = db.ExecContext(ctx, "DELETE FROM departments WHERE id = ?", deptID)
	err = ClassifyDelete(err)
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
	if errors.Is(err, ErrForeignKeyViolation) {
		t.Fatal("delete failure must not report as a foreign key violation")
	}
}

func TestClassifyPostgresCodes(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"23505", ErrUniqueViolation},
		{"23503", ErrForeignKeyViolation},
	}
	for _, tt := range tests {
		err := Classify(fmt.Errorf("exec: %w", &pgconn.PgError{Code: tt.code, ConstraintName: "users_email_key"}))
		if !errors.Is(err, tt.want) {
			t.Fatalf("code %s: expected %v, got %v", tt.code, tt.want, err)
		}
		var classified *Error
		if !errors.As(err, &classified) || classified.Detail != "users_email_key" {
			t.Fatalf("code %s: expected constraint detail, got %v", tt.code, err)
		}
	}

	other := &pgconn.PgError{Code: "42601"}
	if got := Classify(other); got != error(other) {
		t.Fatalf("expected unknown pg error unchanged, got %v", got)
	}
}

func TestClassifyMisc(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatal("nil must stay nil")
	}
	if !errors.Is(Classify(sql.ErrNoRows), ErrNotFound) {
		t.Fatal("ErrNoRows should map to ErrNotFound")
	}
	if !errors.Is(Classify(sql.ErrConnDone), ErrUnavailable) {
		t.Fatal("ErrConnDone should map to ErrUnavailable")
	}
	if !errors.Is(Classify(sql.ErrNoRows), sql.ErrNoRows) {
		t.Fatal("cause should stay reachable")
	}
	plain := errors.New("plain")
	if Classify(plain) != plain {
		t.Fatal("unknown errors are returned unchanged")
	}

	once := Classify(sql.ErrNoRows)
	if Classify(once) != once {
		t.Fatal("classified errors are not wrapped twice")
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: ErrUniqueViolation, Detail: "users.email"}
	if err.Error() != "unique constraint violation: users.email" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if (&Error{Kind: ErrNotFound}).Error() != "not found" {
		t.Fatal("unexpected message without detail")
	}
}

func TestSQLiteDetail(t *testing.T) {
	got := sqliteDetail("constraint failed: UNIQUE constraint failed: users.email (2067)")
	if got != "users.email" {
		t.Fatalf("unexpected detail %q", got)
	}
	if sqliteDetail("disk I/O error") != "" {
		t.Fatal("expected empty detail")
	}
}
