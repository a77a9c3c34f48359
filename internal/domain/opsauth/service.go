package opsauth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/quizops/quizops-api/internal/pkg/jwt"
	"github.com/quizops/quizops-api/internal/pkg/password"
)

// Service handles operator authentication
type Service struct {
	repo     Repository
	sessions *jwt.Service
}

// NewService creates opsauth service
func NewService(repo Repository, sessions *jwt.Service) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// Login verifies operator credentials and issues a session token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))

	op, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !op.Active || !password.Verify(req.Password, op.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.sessions.GenerateSessionToken(op.Username)
	if err != nil {
		return nil, err
	}

	log.Info().Str("username", op.Username).Msg("operator session issued")

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.sessions.GetTTL().Seconds()),
	}, nil
}
