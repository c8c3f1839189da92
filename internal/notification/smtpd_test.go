package notification_test

import (
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// smtpConversation is what one client connection sent to smtpServer.
type smtpConversation struct {
	auth     []string
	mailFrom string
	rcptTo   []string
	data     string
	quit     bool
}

// smtpServer is a minimal SMTP responder listening on loopback. It accepts
// any envelope and answers AUTH with authReply.
type smtpServer struct {
	// authMechs is advertised in the EHLO reply. Empty hides AUTH.
	authMechs string
	authReply string

	ln    net.Listener
	wg    sync.WaitGroup
	mu    sync.Mutex
	conns []net.Conn
	convs []*smtpConversation
}

func startSMTPServer(t *testing.T, authMechs, authReply string) *smtpServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &smtpServer{authMechs: authMechs, authReply: authReply, ln: ln}
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(func() {
		_ = ln.Close()
		// go-mail leaves the socket open when the handshake fails.
		s.mu.Lock()
		for _, c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
	})
	return s
}

func (s *smtpServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *smtpServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(conn)
		}()
	}
}

func (s *smtpServer) serve(conn net.Conn) {
	defer conn.Close()
	conv := &smtpConversation{}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.convs = append(s.convs, conv)
	s.mu.Unlock()

	tp := textproto.NewConn(conn)
	reply := func(format string, args ...any) bool {
		return tp.PrintfLine(format, args...) == nil
	}
	if !reply("220 localhost ESMTP ready") {
		return
	}
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(verb) {
		case "EHLO":
			if s.authMechs == "" {
				reply("250 localhost")
				continue
			}
			reply("250-localhost")
			reply("250 AUTH %s", s.authMechs)
		case "HELO":
			reply("250 localhost")
		case "AUTH":
			s.mu.Lock()
			conv.auth = append(conv.auth, arg)
			s.mu.Unlock()
			reply("%s", s.authReply)
		case "MAIL":
			s.mu.Lock()
			conv.mailFrom = arg
			s.mu.Unlock()
			reply("250 2.1.0 OK")
		case "RCPT":
			s.mu.Lock()
			conv.rcptTo = append(conv.rcptTo, arg)
			s.mu.Unlock()
			reply("250 2.1.5 OK")
		case "DATA":
			reply("354 end data with <CR><LF>.<CR><LF>")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			conv.data = string(body)
			s.mu.Unlock()
			reply("250 2.0.0 queued")
		case "RSET", "NOOP":
			reply("250 2.0.0 OK")
		case "QUIT":
			s.mu.Lock()
			conv.quit = true
			s.mu.Unlock()
			reply("221 2.0.0 bye")
			return
		default:
			reply("502 5.5.2 command not recognized")
		}
	}
}

// conversations returns a snapshot of every connection seen so far.
func (s *smtpServer) conversations() []smtpConversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]smtpConversation, len(s.convs))
	for i, c := range s.convs {
		out[i] = *c
		out[i].auth = append([]string(nil), c.auth...)
		out[i].rcptTo = append([]string(nil), c.rcptTo...)
	}
	return out
}
