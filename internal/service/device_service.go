package service

import (
	"context"
	"errors"

	"playzone/internal/dto"
	"playzone/internal/infra"
	"playzone/internal/model"
	"playzone/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type DeviceService interface {
	Create(ctx context.Context, req dto.CreateDeviceRequest) (*dto.DeviceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.DeviceResponse, error)
	List(ctx context.Context, filter dto.DeviceFilter) ([]dto.DeviceResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateDeviceRequest) (*dto.DeviceResponse, error)
	// SetMaintenance toggles available ↔ maintenance. Occupied devices are
	// left to the session lifecycle.
	SetMaintenance(ctx context.Context, id uuid.UUID, on bool) (*dto.DeviceResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type deviceService struct {
	repo   repository.DeviceRepository
	locker Locker
	rates  *infra.RateCardCache
}

func NewDeviceService(repo repository.DeviceRepository, locker Locker, rates *infra.RateCardCache) DeviceService {
	return &deviceService{repo: repo, locker: locker, rates: rates}
}

func (s *deviceService) Create(ctx context.Context, req dto.CreateDeviceRequest) (*dto.DeviceResponse, error) {
	d := &model.Device{
		ID:                  uuid.New(),
		Name:                req.Name,
		Type:                req.Type,
		Status:              model.DeviceAvailable,
		HourlyRate:          req.HourlyRate,
		ExtraControllerRate: req.ExtraControllerRate,
		Location:            req.Location,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	log.Info().Str("device_id", d.ID.String()).Str("name", d.Name).Msg("device created")
	out := deviceResponse(d)
	return &out, nil
}

func (s *deviceService) Get(ctx context.Context, id uuid.UUID) (*dto.DeviceResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrDeviceNotFound)
	}
	out := deviceResponse(d)
	return &out, nil
}

func (s *deviceService) List(ctx context.Context, filter dto.DeviceFilter) ([]dto.DeviceResponse, error) {
	devices, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DeviceResponse, 0, len(devices))
	for i := range devices {
		out = append(out, deviceResponse(&devices[i]))
	}
	return out, nil
}

// Update changes the device setup. A rate change reprices running sessions
// from their start on the next tick.
func (s *deviceService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateDeviceRequest) (*dto.DeviceResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrDeviceNotFound)
	}
	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Type != nil {
		d.Type = *req.Type
	}
	if req.HourlyRate != nil {
		d.HourlyRate = *req.HourlyRate
	}
	if req.ExtraControllerRate != nil {
		d.ExtraControllerRate = *req.ExtraControllerRate
	}
	if req.Location != nil {
		d.Location = req.Location
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	s.rates.Invalidate(ctx, id)
	out := deviceResponse(d)
	return &out, nil
}

func (s *deviceService) SetMaintenance(ctx context.Context, id uuid.UUID, on bool) (*dto.DeviceResponse, error) {
	release, err := lockDevice(ctx, s.locker, deviceLockKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	from, to := model.DeviceAvailable, model.DeviceMaintenance
	if !on {
		from, to = to, from
	}
	var ok bool
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		ok, err = s.repo.SetStatusTx(tx, id, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrDeviceNotFound)
	}
	if !ok && d.Status != to {
		return nil, ErrDeviceNotAvailable
	}
	log.Info().Str("device_id", id.String()).Str("status", d.Status).Msg("device maintenance toggled")
	out := deviceResponse(d)
	return &out, nil
}

func (s *deviceService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.DeleteIfNotOccupied(ctx, id)
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrDeviceHasHistory
	}
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return notFound(err, ErrDeviceNotFound)
		}
		return ErrDeviceOccupied
	}
	s.rates.Invalidate(ctx, id)
	return nil
}

func deviceResponse(d *model.Device) dto.DeviceResponse {
	return dto.DeviceResponse{
		ID:                  d.ID.String(),
		Name:                d.Name,
		Type:                d.Type,
		Status:              d.Status,
		HourlyRate:          d.HourlyRate,
		ExtraControllerRate: d.ExtraControllerRate,
		Location:            d.Location,
		UpdatedAt:           d.UpdatedAt,
	}
}
