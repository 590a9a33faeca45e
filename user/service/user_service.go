package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "feedback-analyzer/backend/pkg/errors"
	"feedback-analyzer/backend/pkg/jwt"
	"feedback-analyzer/backend/shared/redis"
	"feedback-analyzer/backend/user/models"
	"feedback-analyzer/backend/user/repository"
)

type UserService struct {
	repo   repository.UserRepository
	tokens *jwt.Service
	cache  *redis.RedisClient
}

func NewUserService(repo repository.UserRepository, tokens *jwt.Service) *UserService {
	return &UserService{repo: repo, tokens: tokens, cache: redis.NewRedisClient()}
}

// Signup registers a new user. The email must not already be taken.
func (s *UserService) Signup(req *models.SignupRequest) (*models.UserResponse, error) {
	existing, err := s.repo.GetByEmail(req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewInternalServerError("SIGNUP_FAILED", "Failed to create user")
	}
	if existing != nil {
		return nil, apperrors.NewBadRequestError("EMAIL_TAKEN", "Email already registered")
	}

	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password, // hashed by the BeforeCreate hook
	}
	if err := s.repo.Create(user); err != nil {
		return nil, apperrors.NewInternalServerError("SIGNUP_FAILED", "Failed to create user")
	}

	resp := user.ToResponse()
	return &resp, nil
}

// Login verifies credentials and issues a signed token. Unknown emails and
// wrong passwords produce the same error so callers cannot probe accounts.
func (s *UserService) Login(req *models.LoginRequest) (string, *models.UserResponse, error) {
	user, err := s.GetUserByEmail(req.Email)
	if err != nil || user == nil {
		return "", nil, apperrors.NewUnauthorizedError("INVALID_CREDENTIALS", "Invalid email or password")
	}
	if !models.CheckPasswordHash(req.Password, user.Password) {
		return "", nil, apperrors.NewUnauthorizedError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", nil, apperrors.NewInternalServerError("TOKEN_FAILED", "Failed to issue token")
	}

	resp := user.ToResponse()
	return token, &resp, nil
}

func (s *UserService) GetUserByEmail(email string) (*models.User, error) {
	// Try cache first
	cacheKey := fmt.Sprintf("user:email:%s", email)
	if cached, err := s.cache.Get(cacheKey); err == nil && cached != "" {
		var user models.User
		if err := json.Unmarshal([]byte(cached), &user); err == nil {
			return &user, nil
		}
	}
	// Fallback to DB
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	// Cache result
	if data, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(cacheKey, data, 10*time.Minute)
	}
	return user, nil
}

func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	return s.repo.GetByID(id)
}
