package adapter

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig builds a client TLS configuration from the ssl_* parameters.
// sslmode skip-verify or require disables certificate verification.
func (c ConnectionConfig) TLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.SSLMode == "skip-verify" || c.SSLMode == "require",
	}

	if c.SSLCert != "" && c.SSLKey != "" {
		cert, err := tls.LoadX509KeyPair(c.SSLCert, c.SSLKey)
		if err != nil {
			return nil, fmt.Errorf("error loading client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if c.SSLRootCert != "" {
		caCert, err := os.ReadFile(c.SSLRootCert)
		if err != nil {
			return nil, fmt.Errorf("error reading CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates found in %s", c.SSLRootCert)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}
