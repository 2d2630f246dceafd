package security

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default service-account mount paths inside a pod.
const (
	DefaultServiceAccountDir = "/var/run/secrets/kubernetes.io/serviceaccount"
	DefaultTokenFile         = DefaultServiceAccountDir + "/token"
	DefaultCAFile            = DefaultServiceAccountDir + "/ca.crt"
	DefaultNamespaceFile     = DefaultServiceAccountDir + "/namespace"
)

// ServiceAccountToken is a bearer token plus whatever its claims reveal.
// Claims are read without verification; the API server is the verifier.
type ServiceAccountToken struct {
	Raw            string
	Namespace      string
	ServiceAccount string
	ExpiresAt      time.Time
	// Opaque is true when the token is not a JWT.
	Opaque bool
}

// serviceAccountClaims covers both projected and legacy token layouts.
type serviceAccountClaims struct {
	jwt.RegisteredClaims
	Kubernetes struct {
		Namespace      string `json:"namespace"`
		ServiceAccount struct {
			Name string `json:"name"`
		} `json:"serviceaccount"`
	} `json:"kubernetes.io"`
	LegacyNamespace      string `json:"kubernetes.io/serviceaccount/namespace"`
	LegacyServiceAccount string `json:"kubernetes.io/serviceaccount/service-account.name"`
}

// ReadToken loads a bearer token from path and inspects its claims.
func ReadToken(path string) (*ServiceAccountToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("security/token: failed to read token file: %w", err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return nil, fmt.Errorf("security/token: token file %s is empty", path)
	}
	return InspectToken(raw), nil
}

// InspectToken parses raw as a JWT without verifying it. Non-JWT tokens are
// returned as opaque.
func InspectToken(raw string) *ServiceAccountToken {
	tok := &ServiceAccountToken{Raw: raw}

	claims := &serviceAccountClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		tok.Opaque = true
		return tok
	}

	tok.Namespace = claims.Kubernetes.Namespace
	if tok.Namespace == "" {
		tok.Namespace = claims.LegacyNamespace
	}
	tok.ServiceAccount = claims.Kubernetes.ServiceAccount.Name
	if tok.ServiceAccount == "" {
		tok.ServiceAccount = claims.LegacyServiceAccount
	}
	if claims.ExpiresAt != nil {
		tok.ExpiresAt = claims.ExpiresAt.Time
	}
	return tok
}

// Expired reports whether the token carries an expiry before now.
func (t *ServiceAccountToken) Expired(now time.Time) bool {
	return t != nil && !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// AuthorizationHeader returns the Authorization header value for the token.
func (t *ServiceAccountToken) AuthorizationHeader() string {
	return "Bearer " + t.Raw
}

// String never reveals the token itself.
func (t *ServiceAccountToken) String() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("ServiceAccountToken{namespace=%q, serviceAccount=%q, token=%s}",
		t.Namespace, t.ServiceAccount, Mask(t.Raw))
}
