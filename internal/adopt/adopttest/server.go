// Package adopttest provides an in-process SSH server that behaves like a
// UniFi device shell, for tests of adoption sessions.
package adopttest

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// Options controls how the fake device behaves
type Options struct {
	Username string
	Password string

	// Banner is written when the shell starts, before the prompt
	Banner string
	// Prompt is written after the banner
	Prompt string
	// Response is written after the command line is received
	Response func(command string) string
	// HoldOpen keeps the channel open after responding until the client
	// sends EOF, instead of closing it
	HoldOpen bool
	// RejectPty refuses the pty-req request
	RejectPty bool
}

// DefaultOptions returns a device that accepts ubnt/ubnt
func DefaultOptions() Options {
	return Options{
		Username: "ubnt",
		Password: "ubnt",
		Banner:   "\r\n  Welcome to UniFi UAP-AC-Lite!\r\n\r\n",
		Prompt:   "\x1b[1;32mUAP-AC-Lite-BZ.v4.3.28#\x1b[0m ",
		Response: func(command string) string {
			url := strings.TrimSuffix(strings.TrimPrefix(command, "set-inform "), "/inform")
			return "\r\nAdoption request sent to '" + url + "/inform'. Use the controller to complete the adopt process.\r\n"
		},
	}
}

// Server is a running fake device
type Server struct {
	t        testing.TB
	opts     Options
	listener net.Listener
	config   *ssh.ServerConfig

	mu       sync.Mutex
	commands []string
	logins   int
	wg       sync.WaitGroup
}

// NewServer starts a fake device on a loopback port. It is shut down
// when the test finishes.
func NewServer(t testing.TB, opts Options) *Server {
	t.Helper()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		t.Fatalf("host key signer: %v", err)
	}

	s := &Server{t: t, opts: opts}
	s.config = &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if meta.User() == opts.Username && string(password) == opts.Password {
				s.mu.Lock()
				s.logins++
				s.mu.Unlock()
				return nil, nil
			}
			return nil, errors.New("invalid credentials")
		},
	}
	s.config.AddHostKey(signer)

	s.listener, err = net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s.wg.Add(1)
	go s.serve()

	t.Cleanup(s.Close)
	return s
}

// Address returns the host the server listens on
func (s *Server) Address() string {
	host, _, _ := net.SplitHostPort(s.listener.Addr().String())
	return host
}

// Port returns the port the server listens on
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

// Commands returns every command line received, without the newline
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Logins returns the number of successful authentications
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Close stops accepting connections
func (s *Server) Close() {
	s.listener.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	sconn, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "only session channels")
			continue
		}
		ch, requests, err := newChan.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(ch, requests)
	}
}

func (s *Server) handleSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	shell := make(chan bool, 1)
	go func() {
		started := false
		for req := range requests {
			switch req.Type {
			case "pty-req":
				_ = req.Reply(!s.opts.RejectPty, nil)
			case "shell":
				_ = req.Reply(true, nil)
				if !started {
					started = true
					shell <- true
				}
			default:
				_ = req.Reply(false, nil)
			}
		}
		if !started {
			shell <- false
		}
	}()

	defer ch.Close()
	if !<-shell {
		return
	}

	_, _ = ch.Write([]byte(s.opts.Banner + s.opts.Prompt))

	reader := bufio.NewReader(ch)
	line, err := reader.ReadString('\n')
	if err != nil {
		return
	}
	command := strings.TrimRight(line, "\r\n")

	s.mu.Lock()
	s.commands = append(s.commands, command)
	s.mu.Unlock()

	// Terminal echo
	_, _ = ch.Write([]byte(command + "\r\n"))
	if s.opts.Response != nil {
		_, _ = ch.Write([]byte(s.opts.Response(command)))
	}

	if s.opts.HoldOpen {
		_, _ = ch.Write([]byte(s.opts.Prompt))
		_, _ = reader.ReadString('\n')
	}

	_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
}
