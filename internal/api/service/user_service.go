package service

import (
	"context"
	"ctchen222/tictactoe-timetravel/internal/api/auth"
	"ctchen222/tictactoe-timetravel/internal/api/models"
	"ctchen222/tictactoe-timetravel/internal/api/repository"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserService defines the interface for user-related business logic.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GuestLogin(ctx context.Context) (*models.LoginResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	tokens   *auth.Tokens
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, tokens *auth.Tokens) UserService {
	return &userService{userRepo: userRepo, tokens: tokens}
}

// Register handles user registration.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) error {
	// Check if user already exists
	existingUser, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	if existingUser != nil {
		return ErrUsernameTaken
	}

	user := &models.User{
		Username: req.Username,
	}

	// A concurrent registration can still win between the check and the insert.
	if err := s.userRepo.CreateUser(ctx, user, req.Password); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// Login handles user login and returns a JWT on success.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.PlayerID(), user.Username, false)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{PlayerID: user.PlayerID(), Token: token}, nil
}

// GuestLogin generates a player id for a guest and a token bound to it.
func (s *userService) GuestLogin(ctx context.Context) (*models.LoginResponse, error) {
	playerID := "guest-" + uuid.New().String()
	token, err := s.tokens.Issue(playerID, "", true)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{PlayerID: playerID, Token: token}, nil
}
