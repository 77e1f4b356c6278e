package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/brioso/stockroom/internal/config"
)

const selfSignedValidity = 365 * 24 * time.Hour

// WrapTLS wraps listener with TLS termination according to cfg. With
// SelfSigned set, a fresh throwaway certificate is generated for the process
// lifetime; otherwise the configured cert/key pair is loaded. Returns the
// listener unchanged if TLS is not enabled.
func WrapTLS(listener net.Listener, cfg config.TLS) (net.Listener, error) {
	if !cfg.Enabled() {
		return listener, nil
	}

	var cert tls.Certificate
	var err error
	if cfg.SelfSigned {
		cert, err = selfSignedCert()
	} else {
		cert, err = tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve TLS certificate: %w", err)
	}

	return tls.NewListener(listener, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// selfSignedCert generates an in-memory certificate covering localhost and
// the loopback/wildcard addresses phones on the local network connect to.
func selfSignedCert() (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128)) //nolint:mnd // serial number space per RFC 5280
	if err != nil {
		return tls.Certificate{}, err
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "stockroom self-signed"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(selfSignedValidity),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}, nil
}
