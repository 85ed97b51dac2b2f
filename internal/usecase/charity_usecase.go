package usecase

import (
	"context"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
)

const DefaultCharityRadiusKm = 25.0

type CharityUseCase struct {
	charityRepo repository.CharityRepository
	uploader    service.FileUploadService
}

func NewCharityUseCase(charityRepo repository.CharityRepository, uploader service.FileUploadService) *CharityUseCase {
	return &CharityUseCase{
		charityRepo: charityRepo,
		uploader:    uploader,
	}
}

type ListCharitiesInput struct {
	Latitude        *float64
	Longitude       *float64
	RadiusKm        float64
	City            string
	IncludeInactive bool
}

// List returns charities, nearest first when a location is given.
func (uc *CharityUseCase) List(ctx context.Context, input ListCharitiesInput) ([]*entity.Charity, error) {
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, errors.BadRequest("lat and lng must be given together", nil)
	}
	if input.Latitude != nil {
		if err := validateCoordinates(*input.Latitude, *input.Longitude); err != nil {
			return nil, err
		}
	}

	charities, err := uc.charityRepo.List(ctx, repository.CharityFilter{
		City:       strings.TrimSpace(input.City),
		ActiveOnly: !input.IncludeInactive,
	})
	if err != nil {
		return nil, err
	}
	if input.Latitude == nil {
		return charities, nil
	}

	radius := input.RadiusKm
	if radius <= 0 {
		radius = DefaultCharityRadiusKm
	}

	nearby := make([]*entity.Charity, 0, len(charities))
	for _, c := range charities {
		d := service.HaversineKm(*input.Latitude, *input.Longitude, c.Latitude, c.Longitude)
		if d > radius {
			continue
		}
		d = float64(int(d*100+0.5)) / 100
		c.DistanceKm = &d
		nearby = append(nearby, c)
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return *nearby[i].DistanceKm < *nearby[j].DistanceKm
	})
	return nearby, nil
}

func validateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return errors.BadRequest("Coordinates must be finite numbers", nil)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return errors.BadRequest("Coordinates are out of range", nil)
	}
	return nil
}

func (uc *CharityUseCase) Get(ctx context.Context, id string, includeInactive bool) (*entity.Charity, error) {
	c, err := uc.charityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsActive && !includeInactive {
		return nil, errors.NotFound("Charity", nil)
	}
	return c, nil
}

type CreateCharityInput struct {
	Name        string
	Description string
	Phone       string
	Address     string
	City        string
	Latitude    float64
	Longitude   float64
	IsActive    *bool
}

func (uc *CharityUseCase) Create(ctx context.Context, input CreateCharityInput) (*entity.Charity, error) {
	if err := validateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, err
	}
	c := &entity.Charity{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Phone:       input.Phone,
		Address:     input.Address,
		City:        strings.TrimSpace(input.City),
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		IsActive:    true,
	}
	if input.IsActive != nil {
		c.IsActive = *input.IsActive
	}
	if err := uc.charityRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

type UpdateCharityInput struct {
	Name        *string
	Description *string
	Phone       *string
	Address     *string
	City        *string
	Latitude    *float64
	Longitude   *float64
	IsActive    *bool
}

func (uc *CharityUseCase) Update(ctx context.Context, id string, input UpdateCharityInput) (*entity.Charity, error) {
	c, err := uc.charityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		c.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		c.Description = *input.Description
	}
	if input.Phone != nil {
		c.Phone = *input.Phone
	}
	if input.Address != nil {
		c.Address = *input.Address
	}
	if input.City != nil {
		c.City = strings.TrimSpace(*input.City)
	}
	if input.Latitude != nil {
		c.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		c.Longitude = *input.Longitude
	}
	if input.IsActive != nil {
		c.IsActive = *input.IsActive
	}
	if err := validateCoordinates(c.Latitude, c.Longitude); err != nil {
		return nil, err
	}

	if err := uc.charityRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *CharityUseCase) Delete(ctx context.Context, id string) error {
	c, err := uc.charityRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.charityRepo.Delete(ctx, id); err != nil {
		return err
	}
	if c.ImageURL != "" && uc.uploader != nil {
		if err := uc.uploader.DeleteFile(ctx, c.ImageURL); err != nil {
			logger.Warn("failed to delete image of charity %s: %v", id, err)
		}
	}
	return nil
}

func (uc *CharityUseCase) UploadImage(ctx context.Context, id string, file io.Reader, contentType string) (*entity.Charity, error) {
	if uc.uploader == nil {
		return nil, errors.Unavailable("Image storage is not configured")
	}
	c, err := uc.charityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := uc.uploader.UploadFile(ctx, file, contentType, "charities")
	if err != nil {
		return nil, errors.Internal("Failed to upload image", err)
	}

	previous := c.ImageURL
	c.ImageURL = url
	if err := uc.charityRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	if previous != "" {
		if err := uc.uploader.DeleteFile(ctx, previous); err != nil {
			logger.Warn("failed to delete previous image of charity %s: %v", id, err)
		}
	}
	return c, nil
}
