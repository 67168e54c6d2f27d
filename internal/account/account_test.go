package account

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lookupFrom(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestBuildActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		env       map[string]string
		wantNames []string
		wantErr   error
	}{
		{
			name:    "nothing configured",
			env:     map[string]string{},
			wantErr: ErrNoAccounts,
		},
		{
			name: "address without password",
			env: map[string]string{
				"GMAIL_EMAIL": "someone@gmail.com",
			},
			wantErr: ErrNoAccounts,
		},
		{
			name: "single account",
			env: map[string]string{
				"OUTLOOK_EMAIL":    "someone@outlook.com",
				"OUTLOOK_PASSWORD": "secret",
			},
			wantNames: []string{"outlook"},
		},
		{
			name: "catalog order preserved",
			env: map[string]string{
				"YAHOO_EMAIL":        "y@yahoo.com",
				"YAHOO_PASSWORD":     "p3",
				"GMAIL_EMAIL":        "g@gmail.com",
				"GMAIL_APP_PASSWORD": "p1",
			},
			wantNames: []string{"gmail", "yahoo"},
		},
		{
			name: "invalid address skipped",
			env: map[string]string{
				"GMAIL_EMAIL":        "not-an-address",
				"GMAIL_APP_PASSWORD": "p1",
				"YAHOO_EMAIL":        "y@yahoo.com",
				"YAHOO_PASSWORD":     "p3",
			},
			wantNames: []string{"yahoo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accounts, err := BuildActive(DefaultCatalog(), lookupFrom(tt.env), discardLogger())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error: got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(accounts) != len(tt.wantNames) {
				t.Fatalf("accounts: got %d, want %d", len(accounts), len(tt.wantNames))
			}
			for i, name := range tt.wantNames {
				if accounts[i].Name != name {
					t.Errorf("accounts[%d]: got %q, want %q", i, accounts[i].Name, name)
				}
				if accounts[i].Port != 587 {
					t.Errorf("accounts[%d].Port: got %d, want 587", i, accounts[i].Port)
				}
			}
		})
	}
}

func TestAccount_Addr(t *testing.T) {
	t.Parallel()

	a := Account{Host: "smtp.gmail.com", Port: 587}
	if got := a.Addr(); got != "smtp.gmail.com:587" {
		t.Errorf("Addr(): got %q, want %q", got, "smtp.gmail.com:587")
	}
}

func TestAccount_LogValueHidesPassword(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("selected", "account", Account{
		Name:     "gmail",
		Address:  "g@gmail.com",
		Password: "hunter2",
		Host:     "smtp.gmail.com",
		Port:     587,
	})

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("log output leaks password: %s", out)
	}
	if !strings.Contains(out, "g@gmail.com") {
		t.Errorf("log output missing address: %s", out)
	}
}
