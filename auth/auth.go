package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/junaidrashid-git/storefront-api/errs"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Service registers users and exchanges credentials for tokens.
type Service struct {
	db     *gorm.DB
	tokens *TokenMaker
	admins map[string]struct{}
	log    zerolog.Logger
}

// NewService builds the auth service. Users registering with an address in
// adminEmails get the admin role.
func NewService(db *gorm.DB, tokens *TokenMaker, adminEmails []string, log zerolog.Logger) *Service {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[NormalizeEmail(e)] = struct{}{}
	}
	return &Service{db: db, tokens: tokens, admins: admins, log: log.With().Str("component", "auth").Logger()}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := NormalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errs.Validation("a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, errs.Validation("password must be at least 8 characters")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, errs.Internal("failed to check email", err)
	}
	if existing > 0 {
		return nil, errs.Validation("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.Internal("failed to hash password", err)
	}

	user := models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if _, ok := s.admins[email]; ok {
		user.Role = models.RoleAdmin
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// lost a race with a concurrent registration for the same address
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.Validation("email is already registered")
		}
		return nil, errs.Internal("failed to create user", err)
	}
	s.log.Info().Uint("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	return s.session(&user)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(in.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Unauthorized("invalid email or password")
		}
		return nil, errs.Internal("failed to fetch user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errs.Unauthorized("invalid email or password")
	}

	return s.session(&user)
}

// CurrentRole returns the stored role of userID. A deleted account is Unauthorized.
func (s *Service) CurrentRole(ctx context.Context, userID uint) (models.Role, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "role").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.Unauthorized("account no longer exists")
		}
		return "", errs.Internal("failed to load user role", err)
	}
	return user.Role, nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, errs.Internal("token generation failed", err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: user}, nil
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
