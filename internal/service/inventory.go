package service

import (
	"errors"
	"sync"
	"time"

	"autoadopt/internal/domain"
)

var (
	// ErrDeviceNotFound is returned for addresses not in the inventory
	ErrDeviceNotFound = errors.New("device not found")
	// ErrAdoptionInProgress is returned when a device already has an adoption running
	ErrAdoptionInProgress = errors.New("adoption already in progress")
)

// Inventory holds the device records of the most recent discovery run
type Inventory struct {
	mu      sync.RWMutex
	devices map[string]*domain.Device
}

// NewInventory creates an empty inventory
func NewInventory() *Inventory {
	return &Inventory{devices: make(map[string]*domain.Device)}
}

// ReplaceAll swaps in a new discovery result. Records with an adoption in
// flight keep their status, selection and transcript, and survive even if
// the new result no longer contains them.
func (inv *Inventory) ReplaceAll(devices []domain.Device) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	next := make(map[string]*domain.Device, len(devices))
	for _, d := range devices {
		d := d
		next[d.Address] = &d
	}

	for addr, old := range inv.devices {
		if old.Status != domain.StatusInProgress {
			continue
		}
		if d, ok := next[addr]; ok {
			d.Status = old.Status
			d.Selected = old.Selected
			d.Transcript = old.Transcript
		} else {
			kept := *old
			next[addr] = &kept
		}
	}

	inv.devices = next
}

// List returns copies of all records in address order
func (inv *Inventory) List() []domain.Device {
	inv.mu.RLock()
	out := make([]domain.Device, 0, len(inv.devices))
	for _, d := range inv.devices {
		out = append(out, *d)
	}
	inv.mu.RUnlock()

	domain.SortByAddress(out)
	return out
}

// Get returns a copy of the record for ip
func (inv *Inventory) Get(ip string) (domain.Device, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	d, ok := inv.devices[ip]
	if !ok {
		return domain.Device{}, false
	}
	return *d, true
}

// Len returns the number of records
func (inv *Inventory) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.devices)
}

// SetSelected marks a record for bulk adoption
func (inv *Inventory) SetSelected(ip string, selected bool) (domain.Device, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	d, ok := inv.devices[ip]
	if !ok {
		return domain.Device{}, ErrDeviceNotFound
	}
	d.Selected = selected
	return *d, nil
}

// SelectAll sets the selection flag on every record
func (inv *Inventory) SelectAll(selected bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, d := range inv.devices {
		d.Selected = selected
	}
}

// Selected returns the addresses of selected records in address order
func (inv *Inventory) Selected() []string {
	var out []string
	for _, d := range inv.List() {
		if d.Selected {
			out = append(out, d.Address)
		}
	}
	return out
}

// AddManual adds a record for an address that was not discovered. An
// existing record is returned unchanged.
func (inv *Inventory) AddManual(ip string) domain.Device {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if d, ok := inv.devices[ip]; ok {
		return *d
	}
	d := domain.NewDevice(ip, domain.UnknownHardwareAddress, domain.UnknownHardwareAddress, true)
	inv.devices[ip] = &d
	return d
}

// BeginAdoption moves a record to in-progress and clears its transcript
func (inv *Inventory) BeginAdoption(ip string) (domain.Device, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	d, ok := inv.devices[ip]
	if !ok {
		return domain.Device{}, ErrDeviceNotFound
	}
	if d.Status == domain.StatusInProgress {
		return *d, ErrAdoptionInProgress
	}
	d.BeginAdoption()
	return *d, nil
}

// AppendTranscript adds session output to an in-progress record
func (inv *Inventory) AppendTranscript(ip, chunk string) (domain.Device, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	d, ok := inv.devices[ip]
	if !ok || d.Status != domain.StatusInProgress {
		return domain.Device{}, false
	}
	d.AppendTranscript(chunk)
	return *d, true
}

// FinishAdoption records the session outcome, replacing the streamed
// transcript with the final one
func (inv *Inventory) FinishAdoption(ip string, success bool, transcript string) (domain.Device, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	d, ok := inv.devices[ip]
	if !ok {
		return domain.Device{}, false
	}
	d.FinishAdoption(success, transcript)
	d.LastSeen = time.Now()
	return *d, true
}

// Restore loads persisted records. Adoptions that were in flight when the
// records were saved cannot still be running, so they are reset to pending.
func (inv *Inventory) Restore(devices []domain.Device) {
	for i := range devices {
		if devices[i].Status == domain.StatusInProgress {
			devices[i].Status = domain.StatusPending
		}
	}
	inv.ReplaceAll(devices)
}
