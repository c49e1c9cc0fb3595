package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkwell-app/backend/internal/database"
	"github.com/inkwell-app/backend/internal/logger"
	"github.com/inkwell-app/backend/internal/models"
)

const testSecret = "test-secret-key-for-auth-tests"

func setupTestDB(t *testing.T) {
	t.Helper()

	logger.Log = zap.NewNop()
	logger.SugaredLog = logger.Log.Sugar()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Notification{},
	))

	database.DB = db
}

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		Email:       "alice@example.com",
		Username:    "alice",
		Password:    "supersecret1",
		DisplayName: "Alice",
	}
}

func TestRegisterCreatesUser(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte(testSecret))

	resp, err := svc.Register(validRegisterRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, "alice", resp.User.Username)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	// Password hash never serializes and never stores plaintext
	assert.NotEqual(t, "supersecret1", resp.User.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte(testSecret))

	_, err := svc.Register(validRegisterRequest())
	require.NoError(t, err)

	req := validRegisterRequest()
	req.Username = "different"
	req.Email = "ALICE@example.com" // case-insensitive match
	_, err = svc.Register(req)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte(testSecret))

	_, err := svc.Register(validRegisterRequest())
	require.NoError(t, err)

	req := validRegisterRequest()
	req.Email = "other@example.com"
	req.Username = "Alice"
	_, err = svc.Register(req)
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLogin(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte(testSecret))

	_, err := svc.Register(validRegisterRequest())
	require.NoError(t, err)

	resp, err := svc.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "supersecret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotNil(t, resp.User.LastActiveAt)
}

func TestLoginWrongPassword(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte(testSecret))

	_, err := svc.Register(validRegisterRequest())
	require.NoError(t, err)

	_, err = svc.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "wrongpassword",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte(testSecret))

	_, err := svc.Login(LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateToken(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte(testSecret))

	resp, err := svc.Register(validRegisterRequest())
	require.NoError(t, err)

	user, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte(testSecret))

	resp, err := svc.Register(validRegisterRequest())
	require.NoError(t, err)

	other := NewService([]byte("a-completely-different-secret"))
	_, err = other.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte(testSecret))

	_, err := svc.ParseUserID("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseUserIDExpiredToken(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte(testSecret))

	claims := jwt.MapClaims{
		"user_id": "some-user",
		"exp":     time.Now().Add(-time.Hour).Unix(),
		"iat":     time.Now().Add(-2 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ParseUserID(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
