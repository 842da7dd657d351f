// Package adopt drives an interactive SSH shell on a device through the
// set-inform provisioning handshake, streaming cleaned output as it goes.
package adopt

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"autoadopt/internal/logger"
)

// DefaultPort is the SSH management port
const DefaultPort = 22

// Config holds session timings and the command script
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	ShellSettle    time.Duration
	PromptSettle   time.Duration
	CommandSettle  time.Duration
	PollInterval   time.Duration
	DrainTimeout   time.Duration
	CloseTimeout   time.Duration

	// PromptMarkers are suffixes that identify a shell prompt line
	PromptMarkers []string
	// CommandTemplate is formatted with the controller URL
	CommandTemplate string
	Terminal        string

	// Mirror receives every cleaned output chunk except the captured
	// prompt line. nil discards.
	Mirror io.Writer
}

// DefaultConfig returns timings that suit UniFi devices
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:  10 * time.Second,
		ReadTimeout:     30 * time.Second,
		ShellSettle:     1000 * time.Millisecond,
		PromptSettle:    500 * time.Millisecond,
		CommandSettle:   500 * time.Millisecond,
		PollInterval:    100 * time.Millisecond,
		DrainTimeout:    5 * time.Second,
		CloseTimeout:    2 * time.Second,
		PromptMarkers:   []string{"#"},
		CommandTemplate: "set-inform %s/inform",
		Terminal:        "xterm",
		Mirror:          os.Stdout,
	}
}

// Request describes one adoption attempt
type Request struct {
	Address       string
	Port          int
	Username      string
	Password      string
	ControllerURL string
}

// Command returns the provisioning line sent to the device
func (r Request) Command(template string) string {
	return fmt.Sprintf(template, strings.TrimRight(r.ControllerURL, "/")) + "\n"
}

// Sink receives cleaned output chunks while a session runs
type Sink interface {
	Send(chunk string) error
}

// Result is the outcome of a session. Transcript is always populated,
// including on failure.
type Result struct {
	Transcript string
	// TimedOut is set when the drain ceiling was reached before the device
	// closed its output. The session still counts as successful.
	TimedOut bool
	Err      error
}

// Success reports whether the session completed
func (r Result) Success() bool {
	return r.Err == nil
}

// Controller runs adoption sessions
type Controller struct {
	config Config
	log    zerolog.Logger
}

// NewController creates a controller with the given config
func NewController(config Config) *Controller {
	if len(config.PromptMarkers) == 0 {
		config.PromptMarkers = []string{"#"}
	}
	if config.CommandTemplate == "" {
		config.CommandTemplate = DefaultConfig().CommandTemplate
	}
	if config.Terminal == "" {
		config.Terminal = "xterm"
	}
	if config.Mirror == nil {
		config.Mirror = io.Discard
	}
	return &Controller{
		config: config,
		log:    logger.WithComponent("adopt"),
	}
}

// Start runs the session on its own goroutine and delivers exactly one
// Result. Cancelling ctx after Start returns does not abort the session.
func (c *Controller) Start(ctx context.Context, req Request, sink Sink) <-chan Result {
	done := make(chan Result, 1)
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		done <- c.Run(ctx, req, sink)
	}()
	return done
}

// Run executes the adoption sequence and blocks until it finishes
func (c *Controller) Run(ctx context.Context, req Request, sink Sink) Result {
	s := &session{
		config: c.config,
		sink:   sink,
	}

	port := req.Port
	if port == 0 {
		port = DefaultPort
	}
	log := c.log.With().Str("ip", req.Address).Str("user", req.Username).Logger()
	log.Info().Msg("Starting adoption")

	res := s.run(ctx, req, port)
	switch {
	case res.Err != nil:
		log.Warn().Err(res.Err).Str("kind", string(KindOf(res.Err))).Msg("Adoption failed")
	case res.TimedOut:
		log.Info().Msg("Adoption finished, device kept output open")
	default:
		log.Info().Msg("Adoption finished")
	}
	return res
}

// session holds the state of one run
type session struct {
	config     Config
	sink       Sink
	transcript strings.Builder
}

// emit cleans chunk and records it in the transcript, the mirror and the sink
func (s *session) emit(chunk string) {
	cleaned := Clean(strings.ToValidUTF8(chunk, "\uFFFD"))
	if cleaned == "" {
		return
	}
	_, _ = io.WriteString(s.config.Mirror, cleaned)
	s.record(cleaned)
}

// record appends already cleaned text to the transcript and the sink
// without mirroring it
func (s *session) record(cleaned string) {
	s.transcript.WriteString(cleaned)
	if s.sink != nil {
		_ = s.sink.Send(cleaned)
	}
}

func (s *session) fail(err *SessionError) Result {
	return Result{
		Transcript: s.transcript.String() + "\n" + err.Message,
		Err:        err,
	}
}

func (s *session) run(ctx context.Context, req Request, port int) Result {
	s.emit(fmt.Sprintf("%s@%s\n", req.Username, req.Address))

	// Connecting
	addr := net.JoinHostPort(req.Address, strconv.Itoa(port))
	dialer := &net.Dialer{Timeout: s.config.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return s.fail(newSessionError(KindConnection, "Connection failed", err))
	}
	conn = &deadlineConn{Conn: conn, timeout: s.config.ReadTimeout}

	// Authenticating
	clientConfig := &ssh.ClientConfig{
		User: req.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(req.Password),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = req.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.config.ConnectTimeout,
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return s.fail(handshakeError(err))
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	// ShellStarting
	sess, err := client.NewSession()
	if err != nil {
		return s.fail(newSessionError(KindProtocol, "Failed to open channel", err))
	}
	defer sess.Close()

	modes := ssh.TerminalModes{
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty(s.config.Terminal, 24, 80, modes); err != nil {
		return s.fail(newSessionError(KindProtocol, "Failed to request PTY", err))
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		return s.fail(newSessionError(KindProtocol, "Failed to open stdin", err))
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		return s.fail(newSessionError(KindProtocol, "Failed to open stdout", err))
	}

	if err := sess.Shell(); err != nil {
		return s.fail(newSessionError(KindProtocol, "Failed to start shell", err))
	}

	out := newPump(stdout)
	defer out.stop()

	// AwaitingPrompt
	time.Sleep(s.config.ShellSettle)
	time.Sleep(s.config.PromptSettle)

	initial, _ := out.available()
	if prompt := extractPrompt(Clean(strings.ToValidUTF8(initial, "\uFFFD")), s.config.PromptMarkers); prompt != "" {
		s.record(prompt)
	}

	// CommandSent
	if _, err := io.WriteString(stdin, req.Command(s.config.CommandTemplate)); err != nil {
		return s.fail(newSessionError(KindProtocol, "Failed to send command", err))
	}
	time.Sleep(s.config.CommandSettle)

	// Draining
	timedOut := true
	deadline := time.Now().Add(s.config.DrainTimeout)
	for {
		chunk, eof := out.available()
		if chunk != "" {
			s.emit(chunk)
		}
		if eof {
			timedOut = false
			break
		}
		if !time.Now().Before(deadline) {
			break
		}
		time.Sleep(s.config.PollInterval)
	}

	// Done
	_ = stdin.Close()
	out.waitEOF(s.config.CloseTimeout)

	return Result{
		Transcript: s.transcript.String(),
		TimedOut:   timedOut,
	}
}

// deadlineConn applies a fresh read deadline before every read
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}
