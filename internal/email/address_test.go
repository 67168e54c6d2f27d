package email

import (
	"io"
	"log/slog"
	"testing"
)

func TestValidAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want bool
	}{
		{"cs@lahore.gov.pk", true},
		{"first.last+tag@example.co.uk", true},
		{"user_name%x@sub-domain.example.org", true},
		{"", false},
		{"plainaddress", false},
		{"@example.com", false},
		{"user@", false},
		{"user@example", false},
		{"user@example.c", false},
		{"user name@example.com", false},
		{"Jane <jane@example.com>", false},
	}

	for _, tt := range tests {
		if got := ValidAddress(tt.addr); got != tt.want {
			t.Errorf("ValidAddress(%q): got %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestFilterValid(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seen := make(map[string]struct{})

	to := FilterValid(logger, "to", []string{
		"commissioner@lahore.gov.pk",
		" dc@lahore.gov.pk ",
		"broken@",
		"Commissioner@Lahore.gov.pk",
	}, seen)

	want := []string{"commissioner@lahore.gov.pk", "dc@lahore.gov.pk"}
	if len(to) != len(want) {
		t.Fatalf("to: got %v, want %v", to, want)
	}
	for i := range want {
		if to[i] != want[i] {
			t.Errorf("to[%d]: got %q, want %q", i, to[i], want[i])
		}
	}

	cc := FilterValid(logger, "cc", []string{"dc@lahore.gov.pk", "media@example.com"}, seen)
	if len(cc) != 1 || cc[0] != "media@example.com" {
		t.Errorf("cc: got %v, want [media@example.com]", cc)
	}
}

func TestRecipients(t *testing.T) {
	t.Parallel()

	msg := &Email{
		To:  []string{"a@example.com"},
		Cc:  []string{"b@example.com"},
		Bcc: []string{"c@example.com"},
	}
	got := msg.Recipients()
	want := []string{"a@example.com", "b@example.com", "c@example.com"}
	if len(got) != len(want) {
		t.Fatalf("Recipients(): got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Recipients()[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}
