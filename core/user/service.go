package user

import (
	"context"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("Email already registered.")
	ErrInvalidCredentials = errors.New("Invalid email or password.")

	// compared against when the email is unknown so both login failures cost one bcrypt round
	dummyPassword = "not-the-password-you-are-looking-for"
)

type (
	// Repository is the credential store.
	// CreateUser and UpdateUser return ErrEmailExists on a unique email violation,
	// the Get* methods return ErrNotFound when no record matches.
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int64) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		QueryUsers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		SetPasswordHash(ctx context.Context, id int64, hash []byte) error
		DeleteUser(ctx context.Context, id int64) error
	}

	// PasswordHasher hashes and verifies passwords. Verify never errors: a malformed hash is a mismatch.
	PasswordHasher interface {
		Hash(pwd string) ([]byte, error)
		Verify(pwd string, hash []byte) bool
	}

	Service struct {
		repo       Repository
		hasher     PasswordHasher
		validate   *validator.Validate
		translator ut.Translator

		dummyOnce sync.Once
		dummyHash []byte
	}
)

func NewService(repo Repository, hasher PasswordHasher, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{
		repo:       repo,
		hasher:     hasher,
		validate:   validate,
		translator: translator,
	}
}

// Register validates nu and stores a new User with a hashed password.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, formValidationError(err, svc.translator)
	}

	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, ErrEmailExists
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "checking email uniqueness")
	}

	hash, err := svc.hasher.Hash(nu.Password)
	if err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	role, _ := ParseRole(nu.Role)
	usr := User{
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: hash,
		Role:         role,
		Department:   optionalString(nu.Department),
		EnrollmentNo: optionalString(nu.EnrollmentNo),
		EmployeeID:   optionalString(nu.EmployeeID),
		CreatedAt:    time.Now().UTC(),
	}

	// a concurrent registration may still win the race: the store reports it as ErrEmailExists
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, ErrEmailExists
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// Authenticate returns the User matching creds.
// An unknown email and a wrong password both yield ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	creds.Clean()
	if creds.Email == "" || creds.Password == "" {
		return User{}, core.NewValidationMessage(MsgCredentialsRequired)
	}

	usr, err := svc.repo.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return User{}, errors.Wrap(err, "finding user by email")
		}
		svc.hasher.Verify(creds.Password, svc.getDummyHash())
		return User{}, ErrInvalidCredentials
	}
	if !svc.hasher.Verify(creds.Password, usr.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) getDummyHash() []byte {
	svc.dummyOnce.Do(func() {
		svc.dummyHash, _ = svc.hasher.Hash(dummyPassword)
	})
	return svc.dummyHash
}

func (svc *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	filter.Clean()
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

// Update applies uu to the User identified by id.
// Email and Role are only changed when asAdmin is set; a user editing their own profile keeps both.
func (svc *Service) Update(ctx context.Context, id int64, uu UpdateUser, asAdmin bool) (User, error) {
	uu.Clean()
	if err := svc.validate.Struct(uu); err != nil {
		return User{}, formValidationError(err, svc.translator)
	}

	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Name = uu.Name
	usr.Department = optionalString(uu.Department)
	usr.EnrollmentNo = optionalString(uu.EnrollmentNo)
	usr.EmployeeID = optionalString(uu.EmployeeID)
	if asAdmin {
		if uu.Email != "" {
			usr.Email = uu.Email
		}
		if role, ok := ParseRole(uu.Role); ok {
			usr.Role = role
		}
	}

	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, ErrEmailExists
		}
		return User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

// SetPassword replaces the password of the User identified by email.
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	hash, err := svc.hasher.Hash(pwd)
	if err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	if err = svc.repo.SetPasswordHash(ctx, usr.ID, hash); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.PasswordHash = hash
	return usr, nil
}
