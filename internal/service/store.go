package service

import (
	"context"

	"autoadopt/internal/domain"
)

// DeviceStore persists the device inventory
type DeviceStore interface {
	ReplaceDevices(ctx context.Context, devices []domain.Device) error
	UpsertDevice(ctx context.Context, device domain.Device) error
	ListDevices(ctx context.Context) ([]domain.Device, error)
}

// AdoptionStore persists finished adoption attempts
type AdoptionStore interface {
	RecordAdoption(ctx context.Context, run domain.AdoptionRun) error
	ListAdoptions(ctx context.Context, address string, limit int) ([]domain.AdoptionRun, error)
}
