package smtptest

import (
	"encoding/base64"
	"errors"
	"strings"
)

// authenticator checks AUTH PLAIN credentials, the only mechanism the
// SMTP transport uses.
type authenticator struct {
	username string
	password string
}

// enabled reports whether credentials are configured.
func (a authenticator) enabled() bool {
	return a.username != "" && a.password != ""
}

// verifyPlain checks base64(authzid \0 authcid \0 password).
func (a authenticator) verifyPlain(encoded string) error {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return errors.New("invalid base64 encoding")
	}
	parts := strings.SplitN(string(decoded), "\x00", 3)
	if len(parts) != 3 {
		return errors.New("invalid AUTH PLAIN format")
	}
	return a.check(parts[1], parts[2])
}

func (a authenticator) check(user, pass string) error {
	if user != a.username || pass != a.password {
		return errors.New("authentication failed")
	}
	return nil
}
