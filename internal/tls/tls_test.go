package tls

import (
	standardtls "crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestGenerateSelfSignedCert(t *testing.T) {
	t.Parallel()

	cert, err := GenerateSelfSignedCert()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leaf := cert.Leaf
	if leaf == nil {
		t.Fatal("leaf certificate is nil")
	}
	if leaf.Subject.CommonName != "localhost" {
		t.Errorf("CN: got %q, want localhost", leaf.Subject.CommonName)
	}
	if !slices.Contains(leaf.DNSNames, "localhost") {
		t.Errorf("DNS SANs: %v does not contain localhost", leaf.DNSNames)
	}
	if !slices.ContainsFunc(leaf.IPAddresses, func(ip net.IP) bool { return ip.Equal(net.ParseIP("127.0.0.1")) }) {
		t.Errorf("IP SANs: %v does not contain 127.0.0.1", leaf.IPAddresses)
	}
}

func TestSelfSigned_Handshake(t *testing.T) {
	t.Parallel()

	serverCfg, clientCfg, err := SelfSigned()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ln, err := standardtls.Listen("tcp", "127.0.0.1:0", serverCfg)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.(*standardtls.Conn).Handshake()
	}()

	cfg := clientCfg.Clone()
	cfg.ServerName = "127.0.0.1"
	conn, err := standardtls.Dial("tcp", ln.Addr().String(), cfg)
	if err != nil {
		t.Fatalf("handshake with trusted self-signed cert failed: %v", err)
	}
	conn.Close()
}

func TestClientConfig(t *testing.T) {
	t.Parallel()

	cfg, err := ClientConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RootCAs != nil {
		t.Error("empty CA file should keep system roots")
	}
	if cfg.MinVersion != standardtls.VersionTLS12 {
		t.Errorf("MinVersion: got %x", cfg.MinVersion)
	}

	cert, err := GenerateSelfSignedCert()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "ca.pem")
	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Certificate[0]})
	if err := os.WriteFile(path, pemData, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err = ClientConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cert.Leaf.Verify(x509.VerifyOptions{Roots: cfg.RootCAs, DNSName: "localhost"}); err != nil {
		t.Errorf("loaded pool does not trust the certificate: %v", err)
	}
}

func TestClientConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := ClientConfig(filepath.Join(dir, "missing.pem")); err == nil {
		t.Error("expected error for missing file")
	}

	junk := filepath.Join(dir, "junk.pem")
	if err := os.WriteFile(junk, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ClientConfig(junk); err == nil {
		t.Error("expected error for file without certificates")
	}
}
