package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agropath/farmauth/internal/common"
	"github.com/agropath/farmauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_ReturnsIDAndCreatedAt(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+users\b.*RETURNING\s+id,\s*created_at\s*$`

	createdAt := time.Now()
	mock.ExpectQuery(q).
		WithArgs("Ravi", "+911234567890", "Kothrud", "12", "Pune").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("uid-1", createdAt))

	got, err := repo.Create(context.Background(), &models.User{
		Name: "Ravi", Phone: "+911234567890", Local: "Kothrud", Area: "12", City: "Pune",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "uid-1" || !got.CreatedAt.Equal(createdAt) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicatePhone(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("Ravi", "+911234567890", "", "", "").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_phone_key"})

	_, err := repo.Create(context.Background(), &models.User{Name: "Ravi", Phone: "+911234567890"})
	if !errors.Is(err, common.ErrPhoneExists) {
		t.Fatalf("want common.ErrPhoneExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("Ravi", "+911234567890", "", "", "").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Name: "Ravi", Phone: "+911234567890"})
	if err == nil || !regexp.MustCompile(`error performing sql request: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByPhone(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,\s*name,\s*phone,\s*local,\s*area,\s*city,\s*created_at\s+FROM\s+users\s+WHERE\s+phone\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("+911234567890").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "local", "area", "city", "created_at"}).
			AddRow("uid-1", "Ravi", "+911234567890", "Kothrud", "12", "Pune", time.Now()))

	got, err := repo.FindByPhone(context.Background(), "+911234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "uid-1" || got.Name != "Ravi" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestFindByPhone_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.*FROM\s+users\s+WHERE\s+phone`).
		WithArgs("+910000000000").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByPhone(context.Background(), "+910000000000")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.*FROM\s+users\s+WHERE\s+id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
