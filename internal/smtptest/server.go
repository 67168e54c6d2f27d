// Package smtptest provides an in-process SMTP server that records the
// messages it accepts, for exercising SMTP clients in tests.
package smtptest

import (
	"crypto/tls"
	"log/slog"
	"net"
	"strings"
	"sync"
)

// Config controls how the server behaves.
type Config struct {
	// Hostname is used in the greeting and EHLO reply.
	Hostname string

	// TLSConfig enables STARTTLS when set.
	TLSConfig *tls.Config

	// Username and Password enable AUTH and make it mandatory before MAIL.
	Username string
	Password string

	// RejectRecipients are answered with 550 at RCPT.
	RejectRecipients []string

	// RejectData answers the end of DATA with 554.
	RejectData bool

	Logger *slog.Logger
}

// Server accepts SMTP sessions on a loopback port.
type Server struct {
	cfg      Config
	auth     authenticator
	logger   *slog.Logger
	listener net.Listener

	mu       sync.Mutex
	messages []*Message
	conns    map[net.Conn]struct{}

	wg sync.WaitGroup
}

// New creates a Server. Call Start to begin accepting connections.
func New(cfg Config) *Server {
	if cfg.Hostname == "" {
		cfg.Hostname = "localhost"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		auth:   authenticator{username: cfg.Username, password: cfg.Password},
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Start listens on 127.0.0.1 with an ephemeral port and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	s.listener = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.track(conn, true)
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer s.track(conn, false)
				newSession(conn, s).handle()
			}()
		}
	}()
	return nil
}

// Close stops the listener, drops open sessions and waits for them to end.
func (s *Server) Close() error {
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

func (s *Server) track(conn net.Conn, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Port returns the listening port.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Messages returns the messages accepted so far.
func (s *Server) Messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Server) record(m *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

func (s *Server) rejectsRecipient(addr string) bool {
	for _, r := range s.cfg.RejectRecipients {
		if strings.EqualFold(r, addr) {
			return true
		}
	}
	return false
}
