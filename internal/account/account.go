// Package account builds the list of outgoing mail accounts from a static
// service catalog and credentials found in the environment.
package account

import (
	"errors"
	"log/slog"
	"net"
	"strconv"

	"github.com/shineum/civicmail/internal/email"
)

// ErrNoAccounts is returned when no catalog entry has both credentials configured.
var ErrNoAccounts = errors.New("no email accounts configured")

// Service describes an SMTP submission service and the environment variables
// holding its credentials.
type Service struct {
	Name        string `yaml:"name"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	AddressEnv  string `yaml:"address_env"`
	PasswordEnv string `yaml:"password_env"`
}

// Account is an outgoing mail account with resolved credentials.
type Account struct {
	Name     string
	Address  string
	Password string
	Host     string
	Port     int
}

// Addr returns the host:port dial address.
func (a Account) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// LogValue keeps the credential out of log output.
func (a Account) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", a.Name),
		slog.String("address", a.Address),
		slog.String("host", a.Host),
	)
}

// DefaultCatalog returns the built-in services, all on the STARTTLS
// submission port.
func DefaultCatalog() []Service {
	return []Service{
		{Name: "gmail", Host: "smtp.gmail.com", Port: 587, AddressEnv: "GMAIL_EMAIL", PasswordEnv: "GMAIL_APP_PASSWORD"},
		{Name: "outlook", Host: "smtp-mail.outlook.com", Port: 587, AddressEnv: "OUTLOOK_EMAIL", PasswordEnv: "OUTLOOK_PASSWORD"},
		{Name: "yahoo", Host: "smtp.mail.yahoo.com", Port: 587, AddressEnv: "YAHOO_EMAIL", PasswordEnv: "YAHOO_PASSWORD"},
	}
}

// BuildActive resolves the catalog against lookup (usually os.Getenv) and
// returns the accounts whose address and password are both present, in
// catalog order. Accounts with a malformed address are skipped with a warning.
func BuildActive(catalog []Service, lookup func(string) string, logger *slog.Logger) ([]Account, error) {
	active := make([]Account, 0, len(catalog))
	for _, svc := range catalog {
		addr := lookup(svc.AddressEnv)
		pass := lookup(svc.PasswordEnv)
		if addr == "" || pass == "" {
			logger.Debug("account not configured", "service", svc.Name)
			continue
		}
		if !email.ValidAddress(addr) {
			logger.Warn("account address is invalid, skipping", "service", svc.Name, "env", svc.AddressEnv)
			continue
		}
		port := svc.Port
		if port == 0 {
			port = 587
		}
		active = append(active, Account{
			Name:     svc.Name,
			Address:  addr,
			Password: pass,
			Host:     svc.Host,
			Port:     port,
		})
	}

	if len(active) == 0 {
		return nil, ErrNoAccounts
	}

	logger.Info("email accounts loaded", "count", len(active))
	return active, nil
}
