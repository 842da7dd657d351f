package domain

import (
	"net/netip"
	"sort"
	"time"
)

// UnknownHardwareAddress is recorded when the neighbor table has no entry
const UnknownHardwareAddress = "Unknown"

// Status represents where a device is in the adoption lifecycle
type Status string

const (
	StatusPending    Status = "pending"     // Discovered, not yet adopted
	StatusInProgress Status = "in_progress" // Adoption session running
	StatusSuccess    Status = "success"     // Adoption command delivered
	StatusError      Status = "error"       // Adoption session failed
)

// IsTerminal reports whether the status ends an adoption attempt
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusSuccess, StatusError:
		return true
	}
	return false
}

// Device is one host found by a discovery run
type Device struct {
	Address            string    `json:"address"`
	HardwareAddress    string    `json:"hardware_address"`
	Vendor             string    `json:"vendor"`
	ManagementPortOpen bool      `json:"management_port_open"`
	Selected           bool      `json:"selected"`
	Status             Status    `json:"status"`
	Transcript         string    `json:"transcript"`
	LastSeen           time.Time `json:"last_seen"`
}

// NewDevice creates a freshly discovered device record
func NewDevice(address, hardwareAddress, vendor string, portOpen bool) Device {
	return Device{
		Address:            address,
		HardwareAddress:    hardwareAddress,
		Vendor:             vendor,
		ManagementPortOpen: portOpen,
		Status:             StatusPending,
		LastSeen:           time.Now(),
	}
}

// BeginAdoption moves the device to in-progress and clears the previous transcript
func (d *Device) BeginAdoption() {
	d.Status = StatusInProgress
	d.Transcript = ""
}

// AppendTranscript adds streamed output to the transcript
func (d *Device) AppendTranscript(chunk string) {
	d.Transcript += chunk
}

// FinishAdoption records the outcome of an adoption session
func (d *Device) FinishAdoption(success bool, transcript string) {
	if success {
		d.Status = StatusSuccess
	} else {
		d.Status = StatusError
	}
	d.Transcript = transcript
}

// SortByAddress orders devices by numeric IPv4 address. Unparseable
// addresses sort after valid ones, lexically.
func SortByAddress(devices []Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		return AddressLess(devices[i].Address, devices[j].Address)
	})
}

// AddressLess compares two textual addresses numerically
func AddressLess(a, b string) bool {
	pa, errA := netip.ParseAddr(a)
	pb, errB := netip.ParseAddr(b)
	switch {
	case errA == nil && errB == nil:
		return pa.Less(pb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
