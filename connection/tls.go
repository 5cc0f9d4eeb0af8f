package connection

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/maxpoletaev/gridlink/errs"
)

var errCertificateRevoked = errors.New("certificate revoked")

// TLSConfig controls the TLS layer of member connections. Chain validation,
// hostname verification and the revocation check are independent: any of
// them can be disabled without affecting the others.
type TLSConfig struct {
	Enabled bool
	// CAFile is a PEM bundle of trusted roots. The system roots are used
	// when it is empty.
	CAFile string
	// CertFile and KeyFile enable mutual authentication.
	CertFile string
	KeyFile  string
	// ServerName overrides the name used for hostname verification.
	ServerName string

	ValidateChain    bool
	ValidateHostname bool
	CheckRevocation  bool
	// CRLFiles are DER or PEM encoded revocation lists consulted when
	// CheckRevocation is on.
	CRLFiles []string
}

func (c *TLSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if (c.CertFile == "") != (c.KeyFile == "") {
		return errs.ErrConfig.Wrap(fmt.Errorf("tls cert and key files must be set together"))
	}

	if c.CheckRevocation && len(c.CRLFiles) == 0 {
		return errs.ErrConfig.Wrap(fmt.Errorf("tls revocation check requires crl files"))
	}

	return nil
}

// Build creates the crypto/tls configuration for a connection to host.
// Verification is done in VerifyConnection, so that the three checks can be
// toggled separately.
func (c *TLSConfig) Build(host string) (*tls.Config, error) {
	conf := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true, //nolint:gosec
	}

	var roots *x509.CertPool

	if c.CAFile != "" {
		caPEM, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, errs.ErrConfig.Wrap(fmt.Errorf("failed to read ca file: %w", err))
		}

		roots = x509.NewCertPool()
		if !roots.AppendCertsFromPEM(caPEM) {
			return nil, errs.ErrConfig.Wrap(fmt.Errorf("no certificates in ca file %s", c.CAFile))
		}
	}

	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, errs.ErrConfig.Wrap(fmt.Errorf("failed to load client certificate: %w", err))
		}

		conf.Certificates = []tls.Certificate{cert}
	}

	var crls []*x509.RevocationList

	if c.CheckRevocation {
		for _, path := range c.CRLFiles {
			crl, err := loadCRL(path)
			if err != nil {
				return nil, err
			}

			crls = append(crls, crl)
		}
	}

	serverName := c.ServerName
	if serverName == "" {
		serverName = host
	}

	conf.ServerName = serverName

	conf.VerifyConnection = func(state tls.ConnectionState) error {
		return c.verify(state, roots, crls, serverName)
	}

	return conf, nil
}

func (c *TLSConfig) verify(state tls.ConnectionState, roots *x509.CertPool, crls []*x509.RevocationList, serverName string) error {
	if len(state.PeerCertificates) == 0 {
		return fmt.Errorf("no peer certificates")
	}

	leaf := state.PeerCertificates[0]

	if c.ValidateChain {
		intermediates := x509.NewCertPool()
		for _, cert := range state.PeerCertificates[1:] {
			intermediates.AddCert(cert)
		}

		opts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: intermediates,
			CurrentTime:   time.Now(),
		}

		if _, err := leaf.Verify(opts); err != nil {
			return fmt.Errorf("certificate chain: %w", err)
		}
	}

	if c.ValidateHostname {
		if err := leaf.VerifyHostname(serverName); err != nil {
			return fmt.Errorf("hostname: %w", err)
		}
	}

	if c.CheckRevocation {
		for _, cert := range state.PeerCertificates {
			if isRevoked(cert, crls) {
				return fmt.Errorf("%w: serial %s", errCertificateRevoked, cert.SerialNumber)
			}
		}
	}

	return nil
}

func isRevoked(cert *x509.Certificate, crls []*x509.RevocationList) bool {
	for _, crl := range crls {
		if crl.Issuer.String() != cert.Issuer.String() {
			continue
		}

		for _, entry := range crl.RevokedCertificateEntries {
			if entry.SerialNumber.Cmp(cert.SerialNumber) == 0 {
				return true
			}
		}
	}

	return false
}

func loadCRL(path string) (*x509.RevocationList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.ErrConfig.Wrap(fmt.Errorf("failed to read crl file: %w", err))
	}

	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}

	crl, err := x509.ParseRevocationList(data)
	if err != nil {
		return nil, errs.ErrConfig.Wrap(fmt.Errorf("failed to parse crl %s: %w", path, err))
	}

	return crl, nil
}
