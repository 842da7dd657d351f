package adopt

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoadopt/internal/adopt/adopttest"
)

func testConfig() Config {
	c := DefaultConfig()
	c.ConnectTimeout = 2 * time.Second
	c.ReadTimeout = 5 * time.Second
	c.ShellSettle = 100 * time.Millisecond
	c.PromptSettle = 50 * time.Millisecond
	c.CommandSettle = 50 * time.Millisecond
	c.PollInterval = 10 * time.Millisecond
	c.DrainTimeout = 2 * time.Second
	c.CloseTimeout = 500 * time.Millisecond
	c.Mirror = nil
	return c
}

type recordingSink struct {
	mu     sync.Mutex
	chunks []string
}

func (r *recordingSink) Send(chunk string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, chunk)
	return nil
}

func (r *recordingSink) joined() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.chunks, "")
}

func requestFor(srv *adopttest.Server, user, password string) Request {
	return Request{
		Address:       srv.Address(),
		Port:          srv.Port(),
		Username:      user,
		Password:      password,
		ControllerURL: "http://10.0.0.2:8080",
	}
}

func TestRunSuccess(t *testing.T) {
	srv := adopttest.NewServer(t, adopttest.DefaultOptions())

	var mirror bytes.Buffer
	config := testConfig()
	config.Mirror = &mirror
	sink := &recordingSink{}

	res := NewController(config).Run(context.Background(), requestFor(srv, "ubnt", "ubnt"), sink)

	require.NoError(t, res.Err)
	assert.True(t, res.Success())
	assert.False(t, res.TimedOut)

	want := "ubnt@127.0.0.1\n" +
		"UAP-AC-Lite-BZ.v4.3.28#\n" +
		"set-inform http://10.0.0.2:8080/inform\n" +
		"\nAdoption request sent to 'http://10.0.0.2:8080/inform'. Use the controller to complete the adopt process.\n"
	assert.Equal(t, want, res.Transcript)
	assert.Equal(t, want, sink.joined())
	assert.Equal(t, strings.Replace(want, "UAP-AC-Lite-BZ.v4.3.28#\n", "", 1), mirror.String(), "prompt line is not mirrored")

	assert.Equal(t, []string{"set-inform http://10.0.0.2:8080/inform"}, srv.Commands())
	assert.NotContains(t, res.Transcript, "\x1b")
	assert.NotContains(t, res.Transcript, "\r")
}

func TestRunAuthenticationFailure(t *testing.T) {
	srv := adopttest.NewServer(t, adopttest.DefaultOptions())
	sink := &recordingSink{}

	res := NewController(testConfig()).Run(context.Background(), requestFor(srv, "ubnt", "wrong"), sink)

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, ErrAuthentication)
	assert.Equal(t, KindAuthentication, KindOf(res.Err))
	assert.True(t, strings.HasPrefix(res.Transcript, "ubnt@127.0.0.1\n\nAuthentication failed: "), res.Transcript)
	assert.Equal(t, "ubnt@127.0.0.1\n\n"+res.Err.Error(), res.Transcript)
	assert.Equal(t, "ubnt@127.0.0.1\n", sink.joined())
	assert.Empty(t, srv.Commands())
}

func TestRunConnectionFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	req := Request{Address: "127.0.0.1", Port: port, Username: "admin", Password: "x", ControllerURL: "http://c"}
	res := NewController(testConfig()).Run(context.Background(), req, nil)

	assert.ErrorIs(t, res.Err, ErrConnection)
	assert.True(t, strings.HasPrefix(res.Transcript, "admin@127.0.0.1\n\nConnection failed: "), res.Transcript)
}

func TestRunProtocolFailure(t *testing.T) {
	opts := adopttest.DefaultOptions()
	opts.RejectPty = true
	srv := adopttest.NewServer(t, opts)

	res := NewController(testConfig()).Run(context.Background(), requestFor(srv, "ubnt", "ubnt"), nil)

	assert.ErrorIs(t, res.Err, ErrProtocol)
	assert.Contains(t, res.Transcript, "\nFailed to request PTY")
	assert.Equal(t, 1, srv.Logins())
}

func TestRunDrainTimeout(t *testing.T) {
	opts := adopttest.DefaultOptions()
	opts.HoldOpen = true
	srv := adopttest.NewServer(t, opts)

	config := testConfig()
	config.DrainTimeout = 200 * time.Millisecond

	res := NewController(config).Run(context.Background(), requestFor(srv, "ubnt", "ubnt"), nil)

	require.NoError(t, res.Err)
	assert.True(t, res.TimedOut)
	assert.Contains(t, res.Transcript, "Adoption request sent to")
	assert.True(t, strings.HasSuffix(res.Transcript, "UAP-AC-Lite-BZ.v4.3.28# "), strconv.Quote(res.Transcript))
}

func TestRunWithoutPrompt(t *testing.T) {
	opts := adopttest.DefaultOptions()
	opts.Prompt = "login ok\r\n"
	srv := adopttest.NewServer(t, opts)

	res := NewController(testConfig()).Run(context.Background(), requestFor(srv, "ubnt", "ubnt"), nil)

	require.NoError(t, res.Err)
	assert.True(t, strings.HasPrefix(res.Transcript, "ubnt@127.0.0.1\nset-inform "), res.Transcript)
}

func TestStartDetachesFromCaller(t *testing.T) {
	srv := adopttest.NewServer(t, adopttest.DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := NewController(testConfig()).Start(ctx, requestFor(srv, "ubnt", "ubnt"), nil)
	cancel()

	select {
	case res, ok := <-done:
		require.True(t, ok)
		require.NoError(t, res.Err)
		assert.Contains(t, res.Transcript, "set-inform http://10.0.0.2:8080/inform")
	case <-time.After(10 * time.Second):
		t.Fatal("session did not finish")
	}

	_, ok := <-done
	assert.False(t, ok, "result channel delivers exactly one value")
}

func TestRequestCommand(t *testing.T) {
	req := Request{ControllerURL: "http://unifi:8080/"}
	assert.Equal(t, "set-inform http://unifi:8080/inform\n", req.Command("set-inform %s/inform"))
}
