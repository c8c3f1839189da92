package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
)

// GoMailSessionFactory is the SessionFactory backed by the go-mail library.
type GoMailSessionFactory struct{}

// NewSession returns a session bound to a copy of props.
func (GoMailSessionFactory) NewSession(props Properties, auth *Authenticator) (Session, error) {
	if props == nil {
		return nil, errors.New("mail properties are required")
	}
	return &goMailSession{props: props.Clone(), auth: auth}, nil
}

type goMailSession struct {
	props Properties
	auth  *Authenticator
}

// Transport returns an unconnected transport for the configured protocol.
func (s *goMailSession) Transport() (Transport, error) {
	protocol := s.props[PropTransportProtocol]
	switch protocol {
	case ProtocolSMTP, ProtocolSMTPS:
	default:
		return nil, fmt.Errorf("unsupported transport protocol %q", protocol)
	}
	return &goMailTransport{session: s, protocol: protocol}, nil
}

// NewMessage builds a plain-text MIME message.
func (s *goMailSession) NewMessage(from, to, subject, body string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

type goMailTransport struct {
	session  *goMailSession
	protocol string
	client   *mail.Client
}

// Connect dials host:port. A zero timeout property means no timeout: the I/O
// timeout is left at the go-mail default and the dial runs under ctx alone.
func (t *goMailTransport) Connect(ctx context.Context, host string, port int, username, password *string) error {
	opts := []mail.Option{mail.WithPort(port)}
	if timeout := t.session.props.Duration(PropTimeout, DefaultTimeout); timeout > 0 {
		opts = append(opts, mail.WithTimeout(timeout))
	}

	implicitTLS := t.protocol == ProtocolSMTPS
	if implicitTLS {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if username != nil && password != nil && t.session.props.AuthEnabled(t.protocol) {
		// The plain protocol has no TLS negotiation, so credentials travel
		// unencrypted exactly as configured.
		authType := mail.SMTPAuthPlainNoEnc
		if implicitTLS {
			authType = mail.SMTPAuthPlain
		}
		opts = append(opts,
			mail.WithSMTPAuth(authType),
			mail.WithUsername(*username),
			mail.WithPassword(*password),
		)
	}

	c, err := mail.NewClient(host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}
	t.client = c

	dialCtx := ctx
	if timeout := t.session.props.Duration(PropConnectionTimeout, DefaultTimeout); timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := c.DialWithContext(dialCtx); err != nil {
		return fmt.Errorf("connecting to %s:%d: %w", host, port, err)
	}
	return nil
}

// SendMessage sends msg to the envelope recipients taken from its own
// headers. recipients must be non-empty and is not written back into msg.
func (t *goMailTransport) SendMessage(ctx context.Context, msg *mail.Msg, recipients []string) error {
	if t.client == nil {
		return errors.New("transport is not connected")
	}
	if len(recipients) == 0 {
		return errors.New("message has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.client.Send(msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

func (t *goMailTransport) Close() error {
	if t.client == nil {
		return nil
	}
	return t.client.Close()
}
