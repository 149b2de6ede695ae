package service

import (
	"context"
	"fmt"

	"github.com/jaekwang-park/todo-web/internal/cognito"
)

// AuthService signs operators in against Cognito. The access token it hands
// out is what the auth middleware checks on write requests.
type AuthService struct {
	cognitoClient cognito.Client
}

func NewAuthService(cognitoClient cognito.Client) *AuthService {
	return &AuthService{cognitoClient: cognitoClient}
}

type LoginInput struct {
	Email    string
	Password string
}

type TokenOutput struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int32  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

type RefreshInput struct {
	Email        string
	RefreshToken string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (TokenOutput, error) {
	if input.Email == "" {
		return TokenOutput{}, newValidationError("email", "This field is required.")
	}
	if input.Password == "" {
		return TokenOutput{}, newValidationError("password", "This field is required.")
	}

	out, err := s.cognitoClient.Login(ctx, cognito.LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return TokenOutput{}, fmt.Errorf("login failed: %w", err)
	}
	return tokenOutput(out), nil
}

// Refresh exchanges a refresh token for new id and access tokens. Cognito
// does not rotate the refresh token, so the output leaves it empty.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (TokenOutput, error) {
	if input.Email == "" {
		return TokenOutput{}, newValidationError("email", "This field is required.")
	}
	if input.RefreshToken == "" {
		return TokenOutput{}, newValidationError("refresh_token", "This field is required.")
	}

	out, err := s.cognitoClient.RefreshTokens(ctx, cognito.RefreshInput{
		Email:        input.Email,
		RefreshToken: input.RefreshToken,
	})
	if err != nil {
		return TokenOutput{}, fmt.Errorf("refresh failed: %w", err)
	}
	out.RefreshToken = ""
	return tokenOutput(out), nil
}

func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return newValidationError("access_token", "This field is required.")
	}
	if err := s.cognitoClient.GlobalSignOut(ctx, cognito.GlobalSignOutInput{AccessToken: accessToken}); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

func tokenOutput(out cognito.AuthOutput) TokenOutput {
	return TokenOutput{
		IDToken:      out.IDToken,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    out.ExpiresIn,
		TokenType:    out.TokenType,
	}
}
