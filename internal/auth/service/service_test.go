package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"saathi/internal/auth/service"
	userstore "saathi/internal/auth/store/user"
	jwttoken "saathi/internal/jwt_token"
	dErrors "saathi/pkg/domain-errors"
)

type AuthServiceTestSuite struct {
	suite.Suite
	users *userstore.InMemory
	jwt   *jwttoken.JWTService
	svc   *service.Service
	ctx   context.Context
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.users = userstore.NewInMemory()
	s.jwt = jwttoken.NewJWTService("test-signing-key", "saathi")
	s.svc = service.New(s.users, s.jwt, time.Hour)
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) TestRegisterIssuesValidToken() {
	user, token, err := s.svc.Register(s.ctx, "ravi@example.com", "Ravi", "s3cret-pass")
	s.Require().NoError(err)
	s.Equal("ravi@example.com", user.Email)
	s.NotEmpty(user.PasswordHash)
	s.NotEqual("s3cret-pass", user.PasswordHash)

	claims, err := s.jwt.ValidateToken(token)
	s.Require().NoError(err)
	s.Equal(user.ID.String(), claims.UserID)
}

func (s *AuthServiceTestSuite) TestRegisterNormalizesEmail() {
	user, _, err := s.svc.Register(s.ctx, "  Ravi@Example.COM ", "Ravi", "s3cret-pass")
	s.Require().NoError(err)
	s.Equal("ravi@example.com", user.Email)
}

func (s *AuthServiceTestSuite) TestRegisterDerivesNameFromEmail() {
	user, _, err := s.svc.Register(s.ctx, "ravi.kumar@example.com", "", "s3cret-pass")
	s.Require().NoError(err)
	s.Equal("Ravi Kumar", user.Name)
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateEmailConflicts() {
	_, _, err := s.svc.Register(s.ctx, "ravi@example.com", "Ravi", "s3cret-pass")
	s.Require().NoError(err)

	_, _, err = s.svc.Register(s.ctx, "ravi@example.com", "Other", "another-pass")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AuthServiceTestSuite) TestRegisterValidation() {
	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "s3cret-pass"},
		{"malformed email", "not-an-email", "s3cret-pass"},
		{"short password", "ravi@example.com", "short"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, _, err := s.svc.Register(s.ctx, tc.email, "Ravi", tc.password)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *AuthServiceTestSuite) TestLoginRoundTrip() {
	registered, _, err := s.svc.Register(s.ctx, "ravi@example.com", "Ravi", "s3cret-pass")
	s.Require().NoError(err)

	user, token, err := s.svc.Login(s.ctx, "ravi@example.com", "s3cret-pass")
	s.Require().NoError(err)
	s.Equal(registered.ID, user.ID)
	s.NotEmpty(token)
}

func (s *AuthServiceTestSuite) TestLoginWrongPasswordUnauthorized() {
	_, _, err := s.svc.Register(s.ctx, "ravi@example.com", "Ravi", "s3cret-pass")
	s.Require().NoError(err)

	_, _, err = s.svc.Login(s.ctx, "ravi@example.com", "wrong-pass")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceTestSuite) TestLoginUnknownEmailUnauthorized() {
	_, _, err := s.svc.Login(s.ctx, "nobody@example.com", "whatever-pass")
	s.Require().Error(err)
	// Same error as a wrong password so callers can't probe for accounts.
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
