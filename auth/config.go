package auth

import (
	"crypto/rsa"
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod defines supported JWT signing algorithms.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	RS256 SigningMethod = "RS256"
)

// Config configures the JWT token service.
type Config struct {
	// Secret is the HMAC signing key (required for HS256).
	Secret string `yaml:"secret" mapstructure:"secret"`

	// Method is the signing algorithm (default: HS256).
	Method SigningMethod `yaml:"method" mapstructure:"method"`

	// Issuer is the "iss" claim.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`

	// TokenTTL is the lifetime of issued tokens (default: 15m).
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`

	// PrivateKey is the RSA private key (required for RS256). Set
	// programmatically, not from config files.
	PrivateKey *rsa.PrivateKey `yaml:"-" mapstructure:"-"`

	// PublicKey is the RSA public key for verification. If not set, it is
	// derived from PrivateKey.
	PublicKey *rsa.PublicKey `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.Issuer == "" {
		c.Issuer = "steady"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 15 * time.Minute
	}
}

// Validate checks required fields based on the signing method.
func (c *Config) Validate() error {
	switch c.Method {
	case HS256:
		if c.Secret == "" {
			return errors.New("auth: secret is required for HS256")
		}
	case RS256:
		if c.PrivateKey == nil && c.PublicKey == nil {
			return errors.New("auth: a key is required for RS256")
		}
	default:
		return errors.New("auth: unsupported signing method: " + string(c.Method))
	}
	return nil
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	if c.Method == RS256 {
		return gojwt.SigningMethodRS256
	}
	return gojwt.SigningMethodHS256
}

func (c *Config) signKey() interface{} {
	if c.Method == RS256 {
		return c.PrivateKey
	}
	return []byte(c.Secret)
}

func (c *Config) verifyKey() interface{} {
	if c.Method == RS256 {
		if c.PublicKey != nil {
			return c.PublicKey
		}
		return &c.PrivateKey.PublicKey
	}
	return []byte(c.Secret)
}
