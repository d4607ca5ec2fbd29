package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/user"
	"github.com/trezcool/onestop/storage/database"
)

const (
	userColumns     = `id, name, email, password, role, department, enrollment_no, employee_id, created_at`
	emailConstraint = "users_email_key"
)

// columns users may be ordered by
var userOrderings = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "role",
	"created_at": "created_at",
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func trapNoRowsErr(err error, notFound error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return err
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO users (name, email, password, role, department, enrollment_no, employee_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := repo.db.QueryRowxContext(
		ctx, q,
		usr.Name, usr.Email, usr.PasswordHash, usr.Role, usr.Department, usr.EnrollmentNo, usr.EmployeeID, usr.CreatedAt,
	).Scan(&usr.ID)
	if err != nil {
		if database.IsUniqueViolation(err, emailConstraint) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int64) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return usr, trapNoRowsErr(err, user.ErrNotFound)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return usr, trapNoRowsErr(err, user.ErrNotFound)
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	cond := userConditions(filter)
	q += cond.String() + ` ORDER BY ` + orderBy(ordering, userOrderings, "created_at DESC") + `, id`

	users := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &users, q, cond.args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users
		SET name = $2, email = $3, role = $4, department = $5, enrollment_no = $6, employee_id = $7
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Email, usr.Role, usr.Department, usr.EnrollmentNo, usr.EmployeeID)
	if err != nil {
		if database.IsUniqueViolation(err, emailConstraint) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = mustAffect(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) SetPasswordHash(ctx context.Context, id int64, hash []byte) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	return mustAffect(res, user.ErrNotFound)
}

func (repo *userRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return mustAffect(res, user.ErrNotFound)
}

func mustAffect(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
