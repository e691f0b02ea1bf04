package usecase

import (
	"context"
	"log/slog"
	"strings"

	"tunesphere/internal/domain"
	"tunesphere/internal/ports"
)

const (
	msgFillAllFields        = "Please fill all fields!"
	msgLoginSuccessful      = "Login successful!"
	msgInvalidCredentials   = "Invalid credentials!"
	msgRegistrationComplete = "Registration successful!"
	msgAccountExists        = "Username or email already exists!"
)

// AuthService implements the login and registration forms on top of the
// credential store. Passwords are compared in plaintext.
type AuthService struct {
	store  ports.CredentialStore
	logger *slog.Logger
}

func NewAuthService(store ports.CredentialStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{store: store, logger: logger.With("component", "auth")}
}

// Login checks a username/password pair.
func (s *AuthService) Login(ctx context.Context, username, password string) domain.AuthResult {
	if anyBlank(username, password) {
		return domain.AuthResult{Message: msgFillAllFields}
	}

	ok, err := s.store.Verify(ctx, username, password)
	if err != nil {
		s.logger.Error("credential lookup failed", "username", username, "err", err)
		return domain.AuthResult{Message: msgInvalidCredentials}
	}
	if !ok {
		s.logger.Info("login rejected", "username", username)
		return domain.AuthResult{Message: msgInvalidCredentials}
	}

	s.logger.Info("login accepted", "username", username)
	return domain.AuthResult{OK: true, Message: msgLoginSuccessful, Username: username}
}

// Register creates an account. A duplicate username or email is reported
// as a message, not an error.
func (s *AuthService) Register(ctx context.Context, username, email, password string) domain.AuthResult {
	if anyBlank(username, email, password) {
		return domain.AuthResult{Message: msgFillAllFields}
	}

	ok, err := s.store.Insert(ctx, username, email, password)
	if err != nil {
		s.logger.Error("account insert failed", "username", username, "err", err)
		return domain.AuthResult{Message: msgAccountExists}
	}
	if !ok {
		return domain.AuthResult{Message: msgAccountExists}
	}

	s.logger.Info("account created", "username", username)
	return domain.AuthResult{OK: true, Message: msgRegistrationComplete, Username: username}
}

// anyBlank reports whether a form field is empty or whitespace only.
func anyBlank(fields ...string) bool {
	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			return true
		}
	}
	return false
}
