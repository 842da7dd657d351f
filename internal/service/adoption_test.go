package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoadopt/internal/adopt"
	"autoadopt/internal/adopt/adopttest"
	"autoadopt/internal/domain"
	"autoadopt/internal/stream"
)

func fastController() *adopt.Controller {
	c := adopt.DefaultConfig()
	c.ConnectTimeout = 2 * time.Second
	c.ReadTimeout = 5 * time.Second
	c.ShellSettle = 100 * time.Millisecond
	c.PromptSettle = 50 * time.Millisecond
	c.CommandSettle = 50 * time.Millisecond
	c.PollInterval = 10 * time.Millisecond
	c.DrainTimeout = 2 * time.Second
	c.CloseTimeout = 500 * time.Millisecond
	c.Mirror = nil
	return adopt.NewController(c)
}

func fastStream() stream.Config {
	return stream.Config{Window: 20 * time.Millisecond, Idle: 10 * time.Millisecond}
}

func settingsFor(srv *adopttest.Server) Settings {
	return Settings{
		ControllerURL: "http://192.168.1.2:8080/",
		Default:       domain.Credentials{Username: "ubnt", Password: "ubnt"},
		Alternate:     domain.Credentials{Username: "admin", Password: "wrong"},
		Port:          srv.Port(),
	}
}

func TestAdoptSuccess(t *testing.T) {
	srv := adopttest.NewServer(t, adopttest.DefaultOptions())
	store := newMemoryStore()
	bus := NewEventBus()
	events := make(chan Event, 256)
	bus.Subscribe(events)

	inv := NewInventory()
	inv.ReplaceAll([]domain.Device{domain.NewDevice(srv.Address(), "24:A4:3C:00:00:01", "Ubiquiti Networks Inc.", true)})
	_, err := inv.SetSelected(srv.Address(), true)
	require.NoError(t, err)

	svc := NewAdoptionService(fastController(), inv, store, store, bus, settingsFor(srv), fastStream())

	batch, err := svc.Adopt(context.Background(), nil, domain.CredentialsDefault)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.Address()}, batch.Started)
	assert.NotEmpty(t, batch.ID)
	svc.Wait()

	d, ok := inv.Get(srv.Address())
	require.True(t, ok)
	assert.Equal(t, domain.StatusSuccess, d.Status)
	assert.Contains(t, d.Transcript, "ubnt@127.0.0.1\n")
	assert.Contains(t, d.Transcript, "set-inform http://192.168.1.2:8080/inform\n")
	assert.Contains(t, d.Transcript, "Adoption request sent")

	assert.Equal(t, []string{"set-inform http://192.168.1.2:8080/inform"}, srv.Commands())

	runs := store.recorded()
	require.Len(t, runs, 1)
	assert.Equal(t, domain.StatusSuccess, runs[0].Status)
	assert.Equal(t, domain.CredentialsDefault, runs[0].Credentials)
	assert.Empty(t, runs[0].Error)

	saved, ok := store.device(srv.Address())
	require.True(t, ok)
	assert.Equal(t, domain.StatusSuccess, saved.Status)

	var streamed strings.Builder
	var sawComplete, sawBatch bool
	for len(events) > 0 {
		ev := <-events
		switch ev.Type {
		case EventAdoptionProgress:
			streamed.WriteString(ev.Payload.(map[string]string)["chunk"])
		case EventAdoptionComplete:
			sawComplete = true
		case EventBatchComplete:
			sawBatch = true
		}
	}
	assert.True(t, sawComplete)
	assert.True(t, sawBatch)
	assert.Equal(t, d.Transcript, streamed.String())
}

func TestAdoptAuthenticationFailure(t *testing.T) {
	srv := adopttest.NewServer(t, adopttest.DefaultOptions())
	store := newMemoryStore()
	inv := NewInventory()

	svc := NewAdoptionService(fastController(), inv, store, store, nil, settingsFor(srv), fastStream())

	batch, err := svc.Adopt(context.Background(), []string{srv.Address()}, domain.CredentialsAlternate)
	require.NoError(t, err)
	require.Len(t, batch.Started, 1)
	svc.Wait()

	d, ok := inv.Get(srv.Address())
	require.True(t, ok, "manual address gets a record")
	assert.Equal(t, domain.StatusError, d.Status)
	assert.True(t, strings.HasPrefix(d.Transcript, "admin@127.0.0.1\n"))
	assert.Contains(t, d.Transcript, "\nAuthentication failed")
	assert.Empty(t, srv.Commands())

	runs, err := svc.History(context.Background(), srv.Address(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, string(adopt.KindAuthentication), runs[0].ErrorKind)
}

func TestAdoptValidation(t *testing.T) {
	inv := NewInventory()
	svc := NewAdoptionService(&blockingAdopter{}, inv, nil, nil, nil, Settings{
		Default: domain.Credentials{Username: "ubnt", Password: "ubnt"},
	}, fastStream())

	_, err := svc.Adopt(context.Background(), nil, domain.CredentialsDefault)
	assert.ErrorIs(t, err, ErrNothingSelected)

	_, err = svc.Adopt(context.Background(), []string{"10.0.0.1"}, domain.CredentialsAlternate)
	assert.ErrorIs(t, err, ErrCredentialsNotConfigured)

	_, err = svc.Adopt(context.Background(), []string{"10.0.0.300"}, domain.CredentialsDefault)
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Equal(t, 0, inv.Len())
}

type blockingAdopter struct {
	mu       sync.Mutex
	requests []adopt.Request
	release  chan struct{}
}

func (b *blockingAdopter) Start(_ context.Context, req adopt.Request, sink adopt.Sink) <-chan adopt.Result {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	done := make(chan adopt.Result, 1)
	go func() {
		defer close(done)
		_ = sink.Send(req.Username + "@" + req.Address + "\n")
		<-b.release
		done <- adopt.Result{Transcript: req.Username + "@" + req.Address + "\n"}
	}()
	return done
}

func (b *blockingAdopter) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func TestAdoptSkipsInFlightDevices(t *testing.T) {
	adopter := &blockingAdopter{release: make(chan struct{})}
	inv := NewInventory()
	inv.ReplaceAll(devicesAt("10.0.0.1", "10.0.0.2"))

	svc := NewAdoptionService(adopter, inv, nil, nil, nil, Settings{
		ControllerURL: "http://10.0.0.254:8080",
		Default:       domain.Credentials{Username: "ubnt", Password: "ubnt"},
	}, fastStream())

	first, err := svc.Adopt(context.Background(), []string{"10.0.0.1", "10.0.0.2"}, domain.CredentialsDefault)
	require.NoError(t, err)
	assert.Len(t, first.Started, 2)

	second, err := svc.Adopt(context.Background(), []string{"10.0.0.1"}, domain.CredentialsDefault)
	require.NoError(t, err)
	assert.Empty(t, second.Started)
	assert.Contains(t, second.Skipped, "10.0.0.1")

	require.Eventually(t, func() bool { return adopter.count() == 2 }, time.Second, 5*time.Millisecond)

	close(adopter.release)
	svc.Wait()

	for _, d := range inv.List() {
		assert.Equal(t, domain.StatusSuccess, d.Status)
		assert.Equal(t, "ubnt@"+d.Address+"\n", d.Transcript)
	}
}

func TestUpdateSettings(t *testing.T) {
	bus := NewEventBus()
	events := make(chan Event, 1)
	bus.Subscribe(events)
	svc := NewAdoptionService(&blockingAdopter{}, NewInventory(), nil, nil, bus, Settings{}, fastStream())

	svc.UpdateSettings(Settings{ControllerURL: "http://10.1.1.1:8080"})
	assert.Equal(t, "http://10.1.1.1:8080", svc.Settings().ControllerURL)

	ev := <-events
	assert.Equal(t, EventSettingsReloaded, ev.Type)
}
