package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"autoadopt/internal/domain"
	"autoadopt/internal/logger"
)

// ErrScanInProgress is returned when a discovery run is already active
var ErrScanInProgress = errors.New("scan already in progress")

// Discoverer probes an address range
type Discoverer interface {
	Discover(ctx context.Context, start, end string) ([]domain.Device, error)
}

// DiscoveryService runs discovery and owns the device inventory
type DiscoveryService struct {
	prober    Discoverer
	inventory *Inventory
	store     DeviceStore
	eventBus  *EventBus
	log       zerolog.Logger

	mu       sync.Mutex
	scanning bool
}

// NewDiscoveryService creates a discovery service. store may be nil.
func NewDiscoveryService(prober Discoverer, inventory *Inventory, store DeviceStore, eventBus *EventBus) *DiscoveryService {
	return &DiscoveryService{
		prober:    prober,
		inventory: inventory,
		store:     store,
		eventBus:  eventBus,
		log:       logger.WithComponent("discovery"),
	}
}

// Restore loads the devices persisted by the previous run
func (s *DiscoveryService) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return err
	}
	s.inventory.Restore(devices)
	s.log.Info().Int("devices", len(devices)).Msg("Restored device inventory")
	return nil
}

// Scan probes start..end and replaces the inventory with the live hosts,
// returned in address order
func (s *DiscoveryService) Scan(ctx context.Context, start, end string) ([]domain.Device, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, ErrScanInProgress
	}
	s.scanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
	}()

	devices, err := s.prober.Discover(ctx, start, end)
	if err != nil {
		return nil, err
	}
	domain.SortByAddress(devices)

	s.inventory.ReplaceAll(devices)
	current := s.inventory.List()

	if s.store != nil {
		if err := s.store.ReplaceDevices(ctx, current); err != nil {
			s.log.Error().Err(err).Msg("Failed to persist discovered devices")
		}
	}

	s.publish(Event{Type: EventDevicesReplaced, Payload: current})
	return current, nil
}

// Scanning reports whether a discovery run is active
func (s *DiscoveryService) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Devices returns the inventory in address order
func (s *DiscoveryService) Devices() []domain.Device {
	return s.inventory.List()
}

// Device returns a single record
func (s *DiscoveryService) Device(ip string) (domain.Device, error) {
	d, ok := s.inventory.Get(ip)
	if !ok {
		return domain.Device{}, ErrDeviceNotFound
	}
	return d, nil
}

// SetSelected marks a device for bulk adoption
func (s *DiscoveryService) SetSelected(ctx context.Context, ip string, selected bool) (domain.Device, error) {
	d, err := s.inventory.SetSelected(ip, selected)
	if err != nil {
		return domain.Device{}, err
	}
	s.persist(ctx, d)
	s.publish(Event{Type: EventDeviceUpdated, Payload: d})
	return d, nil
}

// SelectAll sets the selection flag on every device
func (s *DiscoveryService) SelectAll(ctx context.Context, selected bool) []domain.Device {
	s.inventory.SelectAll(selected)
	devices := s.inventory.List()
	if s.store != nil {
		if err := s.store.ReplaceDevices(ctx, devices); err != nil {
			s.log.Error().Err(err).Msg("Failed to persist selection")
		}
	}
	s.publish(Event{Type: EventDevicesReplaced, Payload: devices})
	return devices
}

func (s *DiscoveryService) persist(ctx context.Context, d domain.Device) {
	if s.store == nil {
		return
	}
	if err := s.store.UpsertDevice(ctx, d); err != nil {
		s.log.Error().Err(err).Str("ip", d.Address).Msg("Failed to persist device")
	}
}

func (s *DiscoveryService) publish(event Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(event)
	}
}
