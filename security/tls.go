package security

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/kbukum/kubeping/logger"
)

// Key algorithms accepted for the client key.
const (
	KeyAlgorithmRSA     = "RSA"
	KeyAlgorithmEC      = "EC"
	KeyAlgorithmEd25519 = "Ed25519"
)

// TLSConfig holds the TLS material used to reach the orchestration API.
type TLSConfig struct {
	// SkipVerify disables server certificate verification.
	// Not recommended for production.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile is the CA bundle used to verify the API server. A missing or
	// unreadable bundle is tolerated and the system roots are used instead.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// CertFile is the client certificate (PEM). Optional when KeyFile is a PKCS#12 bundle.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`

	// KeyFile is the client key: PEM (plain or encrypted) or a PKCS#12 bundle.
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`

	// KeyPassword decrypts KeyFile when it is protected.
	KeyPassword string `yaml:"key_password" mapstructure:"key_password"`

	// KeyAlgorithm is the expected algorithm of the client key (RSA, EC, Ed25519).
	KeyAlgorithm string `yaml:"key_algorithm" mapstructure:"key_algorithm"`

	// ServerName overrides the server name used for certificate verification.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// MinVersion is the minimum TLS version. Defaults to TLS 1.2.
	MinVersion uint16 `yaml:"min_version" mapstructure:"min_version"`
}

// Build creates a *tls.Config from the configuration.
// Returns nil if no TLS settings are configured. CA bundle problems are
// reported on log as warnings and never fail the build.
func (c *TLSConfig) Build(log *logger.Logger) (*tls.Config, error) {
	if c == nil || !c.hasSettings() {
		return nil, nil
	}
	if log == nil {
		log = logger.NewNop()
	}

	minVersion := c.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}

	cfg := &tls.Config{
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in
		ServerName:         c.ServerName,
		MinVersion:         minVersion,
	}

	if err := c.loadCA(cfg); err != nil {
		log.Warn("CA bundle not installed, using system roots", logger.Fields(
			"ca_file", c.CAFile, logger.FieldError, err.Error()))
	}

	if err := c.loadClientCert(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the TLS configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.CertFile != "" && c.KeyFile == "" {
		return fmt.Errorf("security/tls: cert_file requires key_file")
	}
	if c.KeyFile != "" && c.CertFile == "" && !isPKCS12(c.KeyFile) {
		return fmt.Errorf("security/tls: key_file requires cert_file unless it is a PKCS#12 bundle")
	}
	switch normalizeAlgorithm(c.KeyAlgorithm) {
	case "", KeyAlgorithmRSA, KeyAlgorithmEC, KeyAlgorithmEd25519:
	default:
		return fmt.Errorf("security/tls: unsupported key algorithm %q", c.KeyAlgorithm)
	}
	return nil
}

// IsEnabled returns true if any TLS setting is configured.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && c.hasSettings()
}

func (c *TLSConfig) hasSettings() bool {
	return c.SkipVerify || c.CAFile != "" || c.CertFile != "" || c.KeyFile != "" || c.ServerName != ""
}

func (c *TLSConfig) loadCA(cfg *tls.Config) error {
	if c.CAFile == "" {
		return nil
	}
	ca, err := os.ReadFile(c.CAFile)
	if err != nil {
		return fmt.Errorf("security/tls: failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca) {
		return fmt.Errorf("security/tls: failed to parse CA certificate")
	}
	cfg.RootCAs = pool
	return nil
}

func (c *TLSConfig) loadClientCert(cfg *tls.Config) error {
	if c.KeyFile == "" {
		return nil
	}
	keyData, err := os.ReadFile(c.KeyFile)
	if err != nil {
		return fmt.Errorf("security/tls: failed to read client key: %w", err)
	}

	var cert tls.Certificate
	if isPKCS12(c.KeyFile) || !strings.Contains(string(keyData), "-----BEGIN") {
		cert, err = c.loadPKCS12(keyData)
	} else {
		cert, err = c.loadPEMPair(keyData)
	}
	if err != nil {
		return err
	}

	if err := checkAlgorithm(cert.PrivateKey, c.KeyAlgorithm); err != nil {
		return err
	}
	cfg.Certificates = []tls.Certificate{cert}
	return nil
}

func (c *TLSConfig) loadPEMPair(keyData []byte) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(c.CertFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("security/tls: failed to read client certificate: %w", err)
	}

	block, _ := pem.Decode(keyData)
	if block == nil {
		return tls.Certificate{}, fmt.Errorf("security/tls: client key is not PEM encoded")
	}

	//nolint:staticcheck // legacy encrypted PEM keys are still issued by some clusters
	if x509.IsEncryptedPEMBlock(block) {
		if c.KeyPassword == "" {
			return tls.Certificate{}, fmt.Errorf("security/tls: client key is encrypted but no password is set")
		}
		der, err := x509.DecryptPEMBlock(block, []byte(c.KeyPassword)) //nolint:staticcheck
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("security/tls: failed to decrypt client key: %w", err)
		}
		keyData = pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der})
	}

	cert, err := tls.X509KeyPair(certPEM, keyData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("security/tls: failed to load client certificate: %w", err)
	}
	return cert, nil
}

func (c *TLSConfig) loadPKCS12(data []byte) (tls.Certificate, error) {
	key, leaf, err := pkcs12.Decode(data, c.KeyPassword)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("security/tls: failed to decode PKCS#12 client key: %w", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}, nil
}

func checkAlgorithm(key any, algorithm string) error {
	want := normalizeAlgorithm(algorithm)
	if want == "" {
		return nil
	}
	var got string
	switch key.(type) {
	case *rsa.PrivateKey:
		got = KeyAlgorithmRSA
	case *ecdsa.PrivateKey:
		got = KeyAlgorithmEC
	case ed25519.PrivateKey, *ed25519.PrivateKey:
		got = KeyAlgorithmEd25519
	default:
		got = fmt.Sprintf("%T", key)
	}
	if got != want {
		return fmt.Errorf("security/tls: client key algorithm is %s, expected %s", got, want)
	}
	return nil
}

func normalizeAlgorithm(algorithm string) string {
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "":
		return ""
	case "RSA":
		return KeyAlgorithmRSA
	case "EC", "ECDSA":
		return KeyAlgorithmEC
	case "ED25519", "EDDSA":
		return KeyAlgorithmEd25519
	default:
		return algorithm
	}
}

func isPKCS12(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".p12", ".pfx":
		return true
	}
	return false
}
