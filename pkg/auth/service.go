package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost  = 12
	TokenExpiry = 7 * 24 * time.Hour
	// MembershipTerm is in years.
	MembershipTerm = 1
)

// JWTClaims carry just enough to gate routes by role without a lookup.
type JWTClaims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type CreateUserOptions struct {
	Email    string
	Name     string
	Password string
	Role     string
}

type Service struct {
	db        *bun.DB
	jwtSecret []byte
}

func NewService(db *bun.DB, jwtSecret string) *Service {
	return &Service{
		db:        db,
		jwtSecret: []byte(jwtSecret),
	}
}

func (s *Service) CountUsers(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// Authenticate checks credentials. Unknown emails and bad passwords produce
// the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.email = ? COLLATE NOCASE", strings.TrimSpace(email)).
		Scan(ctx)
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid email or password")
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, errcodes.Unauthorized("Invalid email or password")
	}

	return user, nil
}

func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return signedToken, nil
}

func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

func (s *Service) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// CreateUser registers a user with an active one-year membership.
func (s *Service) CreateUser(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	email := strings.TrimSpace(opts.Email)
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("u.email = ? COLLATE NOCASE", email).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.Conflict("An account with this email already exists.")
	}

	hashedPassword, err := HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	role := opts.Role
	if role == "" {
		role = models.RoleMember
	}

	now := time.Now()
	user := &models.User{
		UID:          uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Email:        email,
		Name:         strings.TrimSpace(opts.Name),
		PasswordHash: hashedPassword,
		Role:         role,
		Status:       models.MemberStatusActive,
		JoinedAt:     now,
		ExpiresAt:    now.AddDate(MembershipTerm, 0, 0),
	}

	_, err = s.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// EnsureExpiry back-fills a membership expiry that was never set, as one
// term from the join date.
func (s *Service) EnsureExpiry(ctx context.Context, user *models.User) error {
	joined := user.JoinedAt
	if joined.IsZero() {
		joined = user.CreatedAt
	}
	if user.ExpiresAt.After(joined) {
		return nil
	}

	user.ExpiresAt = joined.AddDate(MembershipTerm, 0, 0)
	user.UpdatedAt = time.Now()
	_, err := s.db.NewUpdate().
		Model(user).
		Column("expires_at", "updated_at").
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// UpdateName changes the user's display name.
func (s *Service) UpdateName(ctx context.Context, user *models.User, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errcodes.ValidationError(`"name" is required`)
	}

	user.Name = name
	user.UpdatedAt = time.Now()
	_, err := s.db.NewUpdate().
		Model(user).
		Column("name", "updated_at").
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// CreateFirstAdmin only works while the users table is empty.
func (s *Service) CreateFirstAdmin(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	count, err := s.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errcodes.Forbidden("Running setup again")
	}

	opts.Role = models.RoleAdmin
	return s.CreateUser(ctx, opts)
}

func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(hashedPassword), nil
}

func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
