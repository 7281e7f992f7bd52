package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryshare/backend/internal/service"
	"github.com/pantryshare/backend/internal/testhelpers"
)

const testJWTSecret = "test-secret-key-of-sufficient-length"

func registerInput(email string) service.RegisterInput {
	return service.RegisterInput{
		Email:     email,
		Username:  "tester",
		FirstName: "Test",
		LastName:  "User",
		Password:  "password123",
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewAuthService(db, nil, testJWTSecret)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, registerInput("alice@example.com"))
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "password123", user.PasswordHash)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	loginToken, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	claims, err = svc.ValidateToken(ctx, loginToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewAuthService(db, nil, testJWTSecret)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerInput("alice@example.com"))
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, registerInput("alice@example.com"))
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewAuthService(db, nil, testJWTSecret)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*service.RegisterInput)
		field  string
	}{
		{"missing email", func(in *service.RegisterInput) { in.Email = "" }, "email"},
		{"missing username", func(in *service.RegisterInput) { in.Username = "" }, "username"},
		{"short password", func(in *service.RegisterInput) { in.Password = "short" }, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := registerInput("bob@example.com")
			tc.mutate(&input)
			_, _, err := svc.Register(ctx, input)
			var verr *service.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestLoginBadCredentials(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewAuthService(db, nil, testJWTSecret)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerInput("alice@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewAuthService(db, nil, testJWTSecret)

	_, err := svc.ValidateToken(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	issuer := service.NewAuthService(db, nil, testJWTSecret)
	verifier := service.NewAuthService(db, nil, "another-secret-of-sufficient-length")
	ctx := context.Background()

	token, _, err := issuer.Register(ctx, registerInput("alice@example.com"))
	require.NoError(t, err)

	_, err = verifier.ValidateToken(ctx, token)
	assert.Error(t, err)
}
