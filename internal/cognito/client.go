package cognito

import "context"

// Client defines the Cognito operations used for operator sign-in.
type Client interface {
	Login(ctx context.Context, input LoginInput) (AuthOutput, error)
	RefreshTokens(ctx context.Context, input RefreshInput) (AuthOutput, error)
	GlobalSignOut(ctx context.Context, input GlobalSignOutInput) error
}

// LoginInput contains the operator's credentials.
type LoginInput struct {
	Email    string
	Password string
}

// AuthOutput contains tokens returned after successful authentication.
type AuthOutput struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int32
	TokenType    string
}

// RefreshInput contains the parameters for refreshing tokens. Email is only
// needed to compute the secret hash.
type RefreshInput struct {
	Email        string
	RefreshToken string
}

// GlobalSignOutInput revokes every token issued to the owner of AccessToken.
type GlobalSignOutInput struct {
	AccessToken string
}
