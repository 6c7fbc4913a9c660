package certgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func parseCert(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("invalid certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert
}

func TestGenerateServerCertificate(t *testing.T) {
	certPEM, keyPEM, err := GenerateServerCertificate([]string{"localhost", "127.0.0.1"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateServerCertificate error: %v", err)
	}

	cert := parseCert(t, certPEM)
	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CN = %q; want localhost", cert.Subject.CommonName)
	}
	if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "localhost" {
		t.Errorf("DNSNames = %v; want [localhost]", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || !cert.IPAddresses[0].Equal([]byte{127, 0, 0, 1}) {
		t.Errorf("IPAddresses = %v; want [127.0.0.1]", cert.IPAddresses)
	}
	if err := cert.VerifyHostname("localhost"); err != nil {
		t.Errorf("VerifyHostname: %v", err)
	}

	if _, err := tls.X509KeyPair(certPEM, keyPEM); err != nil {
		t.Errorf("certificate and key do not match: %v", err)
	}
}

func TestGenerateServerCertificate_NoHosts(t *testing.T) {
	if _, _, err := GenerateServerCertificate(nil, time.Hour); err == nil {
		t.Fatal("expected error for empty host list")
	}
}

func TestEnsureServerCertificate(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "certs", "server.crt")
	keyPath := filepath.Join(dir, "certs", "server.key")

	created, err := EnsureServerCertificate(certPath, keyPath, []string{"localhost"})
	if err != nil {
		t.Fatalf("EnsureServerCertificate error: %v", err)
	}
	if !created {
		t.Fatal("expected a new pair to be written")
	}
	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("key mode = %v; want 0600", info.Mode().Perm())
	}

	first, _ := os.ReadFile(certPath)
	created, err = EnsureServerCertificate(certPath, keyPath, []string{"localhost"})
	if err != nil {
		t.Fatalf("second EnsureServerCertificate error: %v", err)
	}
	second, _ := os.ReadFile(certPath)
	if created || string(first) != string(second) {
		t.Error("existing pair must be kept")
	}
}

func TestClientTLSConfig_TrustsGeneratedServer(t *testing.T) {
	certPEM, keyPEM, err := GenerateServerCertificate([]string{"127.0.0.1"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{pair}}
	srv.StartTLS()
	defer srv.Close()

	caPath := filepath.Join(t.TempDir(), "ca.crt")
	if err := os.WriteFile(caPath, certPEM, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ClientTLSConfig(caPath)
	if err != nil {
		t.Fatalf("ClientTLSConfig error: %v", err)
	}

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: cfg}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request over pinned TLS failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d; want 204", resp.StatusCode)
	}
}

func TestClientTLSConfig_Errors(t *testing.T) {
	if _, err := ClientTLSConfig(filepath.Join(t.TempDir(), "missing.crt")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.crt")
	if err := os.WriteFile(bad, []byte("not a cert"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ClientTLSConfig(bad); err == nil {
		t.Error("expected error for invalid PEM")
	}
}
