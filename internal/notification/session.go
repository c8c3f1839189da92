package notification

import (
	"context"

	"github.com/wneessen/go-mail"
)

// Authenticator supplies credentials when the server requests authentication.
type Authenticator struct {
	Username string
	Password string
}

// SessionFactory creates a configured Session. auth is nil when the settings
// carry no usable credentials.
type SessionFactory interface {
	NewSession(props Properties, auth *Authenticator) (Session, error)
}

// Session is a configured protocol context used to obtain a transport and to
// compose messages. A Session is created per send and never reused.
type Session interface {
	Transport() (Transport, error)
	NewMessage(from, to, subject, body string) (*mail.Msg, error)
}

// Transport is a network connection bound to a Session. Its lifetime is a
// single send: connected after acquisition, closed before Send returns.
type Transport interface {
	// Connect dials host:port. Nil username/password mean an anonymous connection.
	Connect(ctx context.Context, host string, port int, username, password *string) error
	SendMessage(ctx context.Context, msg *mail.Msg, recipients []string) error
	Close() error
}
