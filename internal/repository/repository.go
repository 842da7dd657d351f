package repository

import (
	"context"

	"autoadopt/internal/domain"
)

// Repository defines the interface for device and adoption data access
type Repository interface {
	// Device inventory
	ReplaceDevices(ctx context.Context, devices []domain.Device) error
	UpsertDevice(ctx context.Context, device domain.Device) error
	ListDevices(ctx context.Context) ([]domain.Device, error)

	// Adoption history
	RecordAdoption(ctx context.Context, run domain.AdoptionRun) error
	ListAdoptions(ctx context.Context, address string, limit int) ([]domain.AdoptionRun, error)

	// Close releases resources
	Close() error
}
