package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "feedback-analyzer/backend/pkg/errors"
	"feedback-analyzer/backend/pkg/jwt"
	"feedback-analyzer/backend/user/models"
	"feedback-analyzer/backend/user/repository"
)

func newUserFixture(t *testing.T) *UserService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	repo := repository.NewGormUserRepository(db)
	tokens := jwt.NewService("test-secret", time.Hour)
	return NewUserService(repo, tokens)
}

func TestSignup_CreatesUserWithHashedPassword(t *testing.T) {
	svc := newUserFixture(t)

	resp, err := svc.Signup(&models.SignupRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.NotZero(t, resp.ID)

	stored, err := svc.GetUserByID(resp.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", stored.Password)
	assert.True(t, models.CheckPasswordHash("correct horse", stored.Password))
}

func TestSignup_RejectsDuplicateEmail(t *testing.T) {
	svc := newUserFixture(t)

	req := &models.SignupRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@duplicate.example.com",
		Password:  "correct horse",
	}
	_, err := svc.Signup(req)
	require.NoError(t, err)

	_, err = svc.Signup(req)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, "EMAIL_TAKEN", appErr.Code)
	assert.Equal(t, "Email already registered", appErr.Message)
}

func TestLogin_IssuesValidToken(t *testing.T) {
	svc := newUserFixture(t)

	resp, err := svc.Signup(&models.SignupRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@login.example.com",
		Password:  "correct horse",
	})
	require.NoError(t, err)

	token, user, err := svc.Login(&models.LoginRequest{
		Email:    "ada@login.example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.ID, user.ID)

	claims, err := jwt.NewService("test-secret", time.Hour).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID)
	assert.Equal(t, "ada@login.example.com", claims.Email)
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc := newUserFixture(t)

	_, err := svc.Signup(&models.SignupRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@creds.example.com",
		Password:  "correct horse",
	})
	require.NoError(t, err)

	_, _, badPassword := svc.Login(&models.LoginRequest{Email: "ada@creds.example.com", Password: "wrong"})
	_, _, unknownEmail := svc.Login(&models.LoginRequest{Email: "nobody@example.com", Password: "wrong"})

	for _, err := range []error{badPassword, unknownEmail} {
		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
		assert.Equal(t, "Invalid email or password", appErr.Message)
	}
}
