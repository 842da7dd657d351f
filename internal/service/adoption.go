package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"autoadopt/internal/adopt"
	"autoadopt/internal/domain"
	"autoadopt/internal/iprange"
	"autoadopt/internal/logger"
	"autoadopt/internal/stream"
)

var (
	// ErrNothingSelected is returned when bulk adoption has no targets
	ErrNothingSelected = errors.New("no devices selected")
	// ErrCredentialsNotConfigured is returned when the chosen credential set is empty
	ErrCredentialsNotConfigured = errors.New("credentials not configured")
	// ErrInvalidAddress is returned for adoption targets that are not IPv4 addresses
	ErrInvalidAddress = errors.New("invalid address")
)

// Adopter starts adoption sessions
type Adopter interface {
	Start(ctx context.Context, req adopt.Request, sink adopt.Sink) <-chan adopt.Result
}

// Settings are the adoption parameters that can change at runtime
type Settings struct {
	ControllerURL string
	Default       domain.Credentials
	Alternate     domain.Credentials
	// Port is the SSH port, 0 for the default
	Port int
}

// Credentials returns the credentials for set
func (s Settings) Credentials(set domain.CredentialSet) domain.Credentials {
	if set == domain.CredentialsAlternate {
		return s.Alternate
	}
	return s.Default
}

// Batch reports which addresses an Adopt call launched
type Batch struct {
	ID          string            `json:"id"`
	Credentials string            `json:"credentials"`
	Started     []string          `json:"started"`
	Skipped     map[string]string `json:"skipped,omitempty"`
}

// AdoptionService runs adoption sessions against inventory records
type AdoptionService struct {
	adopter      Adopter
	inventory    *Inventory
	devices      DeviceStore
	runs         AdoptionStore
	eventBus     *EventBus
	streamConfig stream.Config
	log          zerolog.Logger

	mu       sync.RWMutex
	settings Settings

	wg sync.WaitGroup
}

// NewAdoptionService creates an adoption service. devices and runs may be nil.
func NewAdoptionService(adopter Adopter, inventory *Inventory, devices DeviceStore, runs AdoptionStore, eventBus *EventBus, settings Settings, streamConfig stream.Config) *AdoptionService {
	return &AdoptionService{
		adopter:      adopter,
		inventory:    inventory,
		devices:      devices,
		runs:         runs,
		eventBus:     eventBus,
		streamConfig: streamConfig,
		settings:     settings,
		log:          logger.WithComponent("adoption"),
	}
}

// Settings returns the current adoption settings
func (s *AdoptionService) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings replaces the adoption settings. Running sessions keep the
// settings they started with.
func (s *AdoptionService) UpdateSettings(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.log.Info().Str("controller_url", settings.ControllerURL).Msg("Adoption settings updated")
	s.publish(Event{Type: EventSettingsReloaded, Payload: map[string]interface{}{
		"controller_url": settings.ControllerURL,
		"credentials": []domain.CredentialsSummary{
			settings.Default.ToSummary(domain.CredentialsDefault),
			settings.Alternate.ToSummary(domain.CredentialsAlternate),
		},
	}})
}

// Adopt starts a session for every address, or for the selected devices
// when addresses is empty. Addresses not in the inventory are added as
// manual records. Devices with an adoption already running are skipped.
// Sessions run in parallel and Adopt returns without waiting for them.
func (s *AdoptionService) Adopt(ctx context.Context, addresses []string, set domain.CredentialSet) (Batch, error) {
	settings := s.Settings()
	creds := settings.Credentials(set)
	if creds.IsZero() {
		return Batch{}, fmt.Errorf("%w: %s", ErrCredentialsNotConfigured, set)
	}

	if len(addresses) == 0 {
		addresses = s.inventory.Selected()
		if len(addresses) == 0 {
			return Batch{}, ErrNothingSelected
		}
	}

	for _, addr := range addresses {
		if _, err := iprange.Parse(addr); err != nil {
			return Batch{}, fmt.Errorf("%w %q: %v", ErrInvalidAddress, addr, err)
		}
	}

	batch := Batch{
		ID:          uuid.New().String(),
		Credentials: string(set),
		Skipped:     make(map[string]string),
	}

	for _, addr := range addresses {
		if _, ok := s.inventory.Get(addr); !ok {
			s.inventory.AddManual(addr)
		}
		d, err := s.inventory.BeginAdoption(addr)
		if err != nil {
			batch.Skipped[addr] = err.Error()
			continue
		}
		batch.Started = append(batch.Started, addr)
		s.publish(Event{Type: EventDeviceUpdated, Payload: d})
	}

	if len(batch.Started) == 0 {
		return batch, nil
	}

	s.log.Info().
		Str("batch", batch.ID).
		Str("credentials", string(set)).
		Strs("addresses", batch.Started).
		Msg("Starting adoption")

	ctx = context.WithoutCancel(ctx)
	g := new(errgroup.Group)
	for _, addr := range batch.Started {
		req := adopt.Request{
			Address:       addr,
			Port:          settings.Port,
			Username:      creds.Username,
			Password:      creds.Password,
			ControllerURL: settings.ControllerURL,
		}
		g.Go(func() error {
			s.runSession(ctx, req, set)
			return nil
		})
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = g.Wait()
		s.publish(Event{Type: EventBatchComplete, Payload: map[string]interface{}{
			"id":        batch.ID,
			"addresses": batch.Started,
		}})
		s.log.Info().Str("batch", batch.ID).Msg("Adoption batch complete")
	}()

	return batch, nil
}

// runSession drives one session, streaming batched output into the
// inventory, and records the outcome
func (s *AdoptionService) runSession(ctx context.Context, req adopt.Request, set domain.CredentialSet) {
	started := time.Now()
	st := stream.New(s.streamConfig)

	relayed := make(chan struct{})
	go func() {
		defer close(relayed)
		_ = st.Run(ctx, func(batch string) {
			if _, ok := s.inventory.AppendTranscript(req.Address, batch); !ok {
				return
			}
			s.publish(Event{Type: EventAdoptionProgress, Payload: map[string]string{
				"ip":    req.Address,
				"chunk": batch,
			}})
		})
	}()

	res := <-s.adopter.Start(ctx, req, st)
	st.Close()
	<-relayed

	d, _ := s.inventory.FinishAdoption(req.Address, res.Success(), res.Transcript)

	run := domain.AdoptionRun{
		ID:            uuid.New().String(),
		Address:       req.Address,
		Credentials:   set,
		Username:      req.Username,
		ControllerURL: req.ControllerURL,
		Status:        d.Status,
		TimedOut:      res.TimedOut,
		Transcript:    res.Transcript,
		StartedAt:     started,
		FinishedAt:    time.Now(),
	}
	if res.Err != nil {
		run.ErrorKind = string(adopt.KindOf(res.Err))
		run.Error = res.Err.Error()
	}

	if s.runs != nil {
		if err := s.runs.RecordAdoption(ctx, run); err != nil {
			s.log.Error().Err(err).Str("ip", req.Address).Msg("Failed to record adoption")
		}
	}
	if s.devices != nil {
		if err := s.devices.UpsertDevice(ctx, d); err != nil {
			s.log.Error().Err(err).Str("ip", req.Address).Msg("Failed to persist device")
		}
	}

	s.publish(Event{Type: EventAdoptionComplete, Payload: run})
	s.publish(Event{Type: EventDeviceUpdated, Payload: d})
}

// Wait blocks until every launched session has finished
func (s *AdoptionService) Wait() {
	s.wg.Wait()
}

// History returns finished adoption attempts, newest first
func (s *AdoptionService) History(ctx context.Context, address string, limit int) ([]domain.AdoptionRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListAdoptions(ctx, address, limit)
}

func (s *AdoptionService) publish(event Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(event)
	}
}
