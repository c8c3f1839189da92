package notification

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Transport protocol names understood by the session layer.
const (
	ProtocolSMTP  = "smtp"
	ProtocolSMTPS = "smtps"
)

// Settings holds the SMTP connection parameters for a Dispatcher.
// All fields are scalar so two Settings compare equal with == exactly when
// every field matches, and the type can be used as a map key.
type Settings struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	FromAddr string `json:"from_address" yaml:"from_address"`
	TLS      bool   `json:"tls" yaml:"tls"`
}

// HasCredentials reports whether both username and password are non-blank.
func (s Settings) HasCredentials() bool {
	return !isBlank(s.Username) && !isBlank(s.Password)
}

// Protocol returns the transport protocol selected by the TLS flag.
func (s Settings) Protocol() string {
	if s.TLS {
		return ProtocolSMTPS
	}
	return ProtocolSMTP
}

// Validate checks the fields required to reach a server. The dispatcher does
// not call it; it is used when settings are loaded from configuration.
func (s Settings) Validate() error {
	var errs []error
	if isBlank(s.Host) {
		errs = append(errs, errors.New("host is required"))
	}
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range", s.Port))
	}
	if isBlank(s.FromAddr) {
		errs = append(errs, errors.New("from address is required"))
	}
	return errors.Join(errs...)
}

// Hash returns a hash derived only from the settings fields, so equal
// settings always hash identically.
func (s Settings) Hash() uint64 {
	h := fnv.New64a()
	for _, part := range []string{
		s.Host,
		strconv.Itoa(s.Port),
		s.Username,
		s.Password,
		s.FromAddr,
		strconv.FormatBool(s.TLS),
	} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// String renders the settings for diagnostics with the password masked.
func (s Settings) String() string {
	pw := ""
	if s.Password != "" {
		pw = "***"
	}
	return fmt.Sprintf("%s://%s@%s:%d (from %s, password %q)",
		s.Protocol(), s.Username, s.Host, s.Port, s.FromAddr, pw)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// nilIfBlank converts a blank credential to nil so the transport connects
// anonymously instead of attempting empty-credential authentication.
func nilIfBlank(s string) *string {
	if isBlank(s) {
		return nil
	}
	return &s
}
