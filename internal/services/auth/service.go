// Package auth covers credential verification and token lifecycle for the
// back office and customer API.
package auth

import (
	"errors"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
	"ledgerd/internal/utils"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
	minPasswordLen  = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and contain a special character")
)

type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     string
	Country  string
}

type Service interface {
	Register(req RegisterRequest) (*models.User, error)
	Login(email, password, ip string) (*models.User, string, string, error)
	RefreshTokens(refreshToken string) (string, string, error)
	Logout(userID uint) error
	ChangePassword(userID uint, oldPassword, newPassword string) error
	GetUserByID(userID uint) (*models.User, error)
	GetUserTokenVersion(userID uint) (int, error)
}

type service struct {
	users repositories.UserRepository
}

func NewService(users repositories.UserRepository) Service {
	if users == nil {
		panic("user repository is required")
	}
	return &service{users: users}
}

func (s *service) Register(req RegisterRequest) (*models.User, error) {
	if req.Email == "" || req.Name == "" {
		return nil, errors.New("name and email are required")
	}
	if !passwordStrongEnough(req.Password) {
		return nil, ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}

	user := &models.User{
		Name:     req.Name,
		Email:    strings.ToLower(req.Email),
		Password: string(hashed),
		Role:     role,
		Status:   "active",
		Country:  req.Country,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Login(email, password, ip string) (*models.User, string, string, error) {
	user, err := s.users.GetByEmail(strings.ToLower(email))
	if err != nil {
		log.Printf("login failed: no user for %s", email)
		return nil, "", "", ErrInvalidCredentials
	}

	now := time.Now()
	if user.AccountLockoutUntil != nil && user.AccountLockoutUntil.After(now) {
		return nil, "", "", ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			lockedUntil := now.Add(lockoutDuration)
			user.AccountLockoutUntil = &lockedUntil
			user.FailedLoginAttempts = 0
		}
		if updateErr := s.users.Update(user); updateErr != nil {
			log.Printf("failed to record login attempt for user %d: %v", user.ID, updateErr)
		}
		return nil, "", "", ErrInvalidCredentials
	}

	user.FailedLoginAttempts = 0
	user.AccountLockoutUntil = nil
	user.LastLoginAt = now
	user.LastLoginIP = ip
	if err := s.users.Update(user); err != nil {
		log.Printf("failed to record login for user %d: %v", user.ID, err)
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	})
	if err != nil {
		log.Printf("token generation failed: %v", err)
		return nil, "", "", errors.New("error generating tokens")
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return "", "", errors.New("user not found")
	}

	if user.TokenVersion != claims.TokenVersion {
		return "", "", errors.New("token version mismatch")
	}

	return utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	})
}

// Logout bumps the token version, invalidating every outstanding token.
func (s *service) Logout(userID uint) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	user.TokenVersion++
	return s.users.Update(user)
}

func (s *service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return errors.New("failed to get user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return errors.New("invalid old password")
	}

	if !passwordStrongEnough(newPassword) {
		return ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	user.Password = string(hashed)
	user.TokenVersion++ // invalidate existing tokens

	if err := s.users.Update(user); err != nil {
		return errors.New("failed to update password")
	}
	return nil
}

func (s *service) GetUserByID(userID uint) (*models.User, error) {
	return s.users.GetByID(userID)
}

func (s *service) GetUserTokenVersion(userID uint) (int, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

func passwordStrongEnough(password string) bool {
	return len(password) >= minPasswordLen && strings.ContainsAny(password, "!@#$%^&*()-_=+[]{};:,.<>?")
}
