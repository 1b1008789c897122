package proxy

import (
	"crypto/tls"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCertificateNotConfigured(t *testing.T) {
	cert, err := loadCertificate(fixture_config())
	require.NoError(t, err)
	assert.Nil(t, cert)
}

func TestLoadCertificateInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "ca.pem")
	keyFile := filepath.Join(dir, "ca.key")
	require.NoError(t, os.WriteFile(certFile, []byte("not a cert"), 0644))
	require.NoError(t, os.WriteFile(keyFile, []byte("not a key"), 0600))

	cfg := fixture_config()
	cfg.Server.HTTPS.CACertFile = certFile
	cfg.Server.HTTPS.CAKeyFile = keyFile

	_, err := loadCertificate(cfg)
	assert.Error(t, err)

	cfg.Server.HTTPS.Enabled = true
	_, err = New(cfg)
	assert.Error(t, err, "a broken CA must prevent startup")
}

func TestNewWithDefaultMitm(t *testing.T) {
	cfg := fixture_config()
	cfg.Server.HTTPS.Enabled = true

	s, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.GetProxy().CertStore)
}

func TestCertStoreFetch(t *testing.T) {
	store := newCertStore()
	generated := 0
	gen := func() (*tls.Certificate, error) {
		generated++
		return &tls.Certificate{}, nil
	}

	first, err := store.Fetch("example.com", gen)
	require.NoError(t, err)
	second, err := store.Fetch("example.com", gen)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = store.Fetch("other.example.com", gen)
	require.NoError(t, err)
	assert.Equal(t, 2, generated)

	_, err = store.Fetch("broken.example.com", func() (*tls.Certificate, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
}
