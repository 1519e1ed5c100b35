package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"dern-backend/internal/auth"
	"dern-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotFound            = errors.New("user not found")
	ErrInvalidAvailability = errors.New("invalid availability")
	ErrNotTechnician       = errors.New("user is not a technician")
)

type Service struct {
	repo   Repository
	tokens *auth.Manager
	now    func() time.Time
}

func NewService(repo Repository, tokens *auth.Manager) *Service {
	return &Service{repo: repo, tokens: tokens, now: time.Now}
}

func (s *Service) GetByID(ctx context.Context, id string) (models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return LoginResponse{}, ErrInvalidCredentials
		}
		return LoginResponse{}, err
	}
	if !user.IsActive {
		return LoginResponse{}, ErrInvalidCredentials
	}
	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		return LoginResponse{}, ErrInvalidCredentials
	}

	token, err := s.tokens.NewAccessToken(user.ID, user.Role)
	if err != nil {
		return LoginResponse{}, err
	}

	return LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL.Seconds()),
		User:        ToPublic(user),
	}, nil
}

// SetAvailability changes a technician's availability flag. The flag only gates new
// bookings; appointments already on the calendar are left alone.
func (s *Service) SetAvailability(ctx context.Context, actor auth.Identity, availability string) (models.User, error) {
	availability = strings.ToLower(strings.TrimSpace(availability))
	if !models.IsValidAvailability(availability) {
		return models.User{}, ErrInvalidAvailability
	}
	if actor.Role != models.UserRoleTechnician {
		return models.User{}, ErrNotTechnician
	}

	updated, err := s.repo.UpdateAvailability(ctx, actor.ID, availability, s.now().UTC())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return updated, nil
}

// NewUser builds a user record with a fresh id and a bcrypt hash of password.
func NewUser(name, email, password, role string, now time.Time) (models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		ID:           primitive.NewObjectID().Hex(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == models.UserRoleTechnician {
		user.Availability = models.AvailabilityAvailable
	}
	return user, nil
}

func ToPublic(user models.User) Public {
	return Public{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		Availability: user.Availability,
	}
}
