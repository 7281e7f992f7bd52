package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pantryshare/backend/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const denylistKeyPrefix = "auth:denylist"

// TokenClaims is the validated identity carried by a request.
type TokenClaims struct {
	UserID uuid.UUID
}

// RegisterInput carries the account fields of a registration request.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// AuthService issues and validates JWTs and manages accounts. Logged-out
// tokens are denylisted in Redis until they expire; a nil Redis client
// disables the denylist (single-process dev and tests).
type AuthService struct {
	db        *gorm.DB
	redis     *redis.Client
	jwtSecret string
}

func NewAuthService(db *gorm.DB, redisClient *redis.Client, jwtSecret string) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		jwtSecret: jwtSecret,
	}
}

// Register creates an account and returns a signed token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (string, *models.User, error) {
	if input.Email == "" {
		return "", nil, newValidationError("email", "email is required")
	}
	if input.Password == "" {
		return "", nil, newValidationError("password", "password is required")
	}
	if len(input.Password) < 8 {
		return "", nil, newValidationError("password", "password must be at least 8 characters")
	}
	if input.Username == "" {
		return "", nil, newValidationError("username", "username is required")
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return "", nil, ErrConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	user := models.User{
		Email:        input.Email,
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hashed),
		Role:         models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return "", nil, ErrConflict
		}
		return "", nil, err
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// Login verifies the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.generateToken(user.ID)
}

// Logout denylists the token for the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, expiresAt, err := s.parseToken(tokenString)
	if err != nil {
		return err
	}
	if s.redis == nil {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	key := fmt.Sprintf("%s:%s:%s", denylistKeyPrefix, claims.UserID, tokenString)
	return s.redis.Set(ctx, key, "1", ttl).Err()
}

// ValidateToken checks the signature, expiry and denylist.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	claims, _, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if s.redis != nil {
		key := fmt.Sprintf("%s:%s:%s", denylistKeyPrefix, claims.UserID, tokenString)
		n, err := s.redis.Exists(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, errors.New("token revoked")
		}
	}
	return claims, nil
}

// GetUser loads one account.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every account, oldest first.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *AuthService) generateToken(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) parseToken(tokenString string) (*TokenClaims, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, time.Time{}, errors.New("invalid token claims")
	}
	rawID, ok := claims["user_id"].(string)
	if !ok {
		return nil, time.Time{}, errors.New("invalid token claims")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, time.Time{}, errors.New("invalid token claims")
	}

	expiresAt := time.Time{}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	return &TokenClaims{UserID: userID}, expiresAt, nil
}
