package middleware

import (
	"fmt"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenCookie carries the Cognito access token set by /auth/login so
// that browser form posts authenticate without an Authorization header.
const AccessTokenCookie = "access_token"

const devSubject = "dev"

type AuthConfig struct {
	DevMode     bool
	JWKSClient  *JWKSClient
	Issuer      string
	AppClientID string
}

// Auth guards state-changing requests. Reads stay public.
type Auth struct {
	cfg AuthConfig
}

func NewAuth(cfg AuthConfig) (*Auth, error) {
	if !cfg.DevMode {
		if cfg.JWKSClient == nil {
			return nil, fmt.Errorf("middleware: JWKSClient is required when DevMode is false")
		}
		if cfg.AppClientID == "" {
			return nil, fmt.Errorf("middleware: AppClientID is required when DevMode is false")
		}
	}
	return &Auth{cfg: cfg}, nil
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.DevMode {
			next.ServeHTTP(w, r.WithContext(SetSubject(r.Context(), devSubject)))
			return
		}

		a.handleJWT(w, r, next)
	})
}

func (a *Auth) handleJWT(w http.ResponseWriter, r *http.Request, next http.Handler) {
	tokenStr, ok := bearerToken(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization required")
		return
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}
		return a.cfg.JWKSClient.GetKey(r.Context(), kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
		return
	}

	if !a.issuedForClient(claims) {
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token not issued for this client")
		return
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sub claim not found")
		return
	}

	next.ServeHTTP(w, r.WithContext(SetSubject(r.Context(), sub)))
}

// issuedForClient accepts ID tokens (aud) and access tokens (client_id).
func (a *Auth) issuedForClient(claims jwt.MapClaims) bool {
	switch claims["token_use"] {
	case nil, "id", "access":
	default:
		return false
	}
	if clientID, _ := claims["client_id"].(string); clientID == a.cfg.AppClientID {
		return true
	}
	aud, err := claims.GetAudience()
	return err == nil && slices.Contains(aud, a.cfg.AppClientID)
}

func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		tok, ok := strings.CutPrefix(h, "Bearer ")
		return tok, ok && tok != ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func isPublicPath(p string) bool {
	p = path.Clean(p)
	return p == "/health" || p == "/metrics" || strings.HasPrefix(p, "/auth/")
}

// CognitoJWKSURL returns the JWKS URL for the given Cognito User Pool.
func CognitoJWKSURL(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", region, userPoolID)
}

// CognitoIssuer returns the expected issuer for the given Cognito User Pool.
func CognitoIssuer(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}
