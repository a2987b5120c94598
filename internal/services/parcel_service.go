package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geofoncier/api/internal/geometry"
	"github.com/geofoncier/api/internal/logger"
	"github.com/geofoncier/api/internal/models"
	"github.com/geofoncier/api/internal/repository"
	"github.com/jackc/pgx/v5"
)

// Service-level errors for the parcel registry.
var (
	ErrParcelNotFound       = errors.New("parcel not found")
	ErrMatriculeRequired    = errors.New("a non-empty matricule is required")
	ErrOwnerRequired        = errors.New("an owner id is required")
	ErrNoActiveSubscription = errors.New("owner has no active subscription")
	ErrNoImages             = errors.New("at least one image url is required")
)

// CreateParcelInput is the registry intake form. Coordinates use the
// [lat, lng] convention of the map widget and are re-ordered by the
// geometry codec before storage.
type CreateParcelInput struct {
	Matricule           string      `json:"matricule"`
	OwnerID             string      `json:"ownerId"`
	Coordinates         [][]float64 `json:"coordinates"`
	Neighborhood        *string     `json:"neighborhood"`
	Activity            *string     `json:"activity"`
	ActivityDescription *string     `json:"activityDescription"`
	OwnerName           *string     `json:"ownerName"`
	OwnerPhone          *string     `json:"ownerPhone"`
	TitleIssuedAt       *time.Time  `json:"titleIssuedAt"`
	DevelopedAt         *time.Time  `json:"developedAt"`
	ImageURLs           []string    `json:"imageUrls"`
	PricePerM2          float64     `json:"pricePerM2"`
	IsTitled            bool        `json:"isTitled"`
}

// ParcelService owns the parcel lifecycle: intake, listing, partial
// update and soft deletion. Deleted parcels disappear from listings and
// search but remain addressable by id.
type ParcelService interface {
	Create(ctx context.Context, input CreateParcelInput) (*models.Parcel, error)
	List(ctx context.Context, filters models.ParcelFilters) ([]models.Parcel, error)
	GetByID(ctx context.Context, id int64) (*models.Parcel, error)
	SearchByMatricule(ctx context.Context, fragment string) ([]models.Parcel, error)
	Update(ctx context.Context, id int64, update models.ParcelUpdate) (*models.Parcel, error)
	SoftDelete(ctx context.Context, id int64) error
	AttachImages(ctx context.Context, parcelID int64, urls []string) ([]models.ParcelImage, error)
	CheckOverlaps(ctx context.Context, parcelID int64) ([]models.ParcelOverlap, error)
}

type parcelService struct {
	repo          repository.ParcelRepository
	spatial       repository.SpatialRepository
	subscriptions repository.SubscriptionRepository
	log           *logger.Logger
}

// NewParcelService creates a new instance of ParcelService.
func NewParcelService(repo repository.ParcelRepository, spatial repository.SpatialRepository, subscriptions repository.SubscriptionRepository, log *logger.Logger) ParcelService {
	return &parcelService{repo: repo, spatial: spatial, subscriptions: subscriptions, log: log}
}

func (s *parcelService) Create(ctx context.Context, input CreateParcelInput) (*models.Parcel, error) {
	if input.Matricule == "" {
		return nil, ErrMatriculeRequired
	}
	if input.OwnerID == "" {
		return nil, ErrOwnerRequired
	}

	// Listing is a paid feature for owners.
	active, err := s.subscriptions.HasActiveSubscription(ctx, input.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}
	if !active {
		return nil, fmt.Errorf("%w: owner %s", ErrNoActiveSubscription, input.OwnerID)
	}

	boundary, err := geometry.PolygonLiteral(input.Coordinates)
	if err != nil {
		return nil, err
	}

	parcel := &models.Parcel{
		Matricule:           input.Matricule,
		OwnerID:             input.OwnerID,
		Boundary:            boundary,
		Neighborhood:        input.Neighborhood,
		Activity:            input.Activity,
		ActivityDescription: input.ActivityDescription,
		OwnerName:           input.OwnerName,
		OwnerPhone:          input.OwnerPhone,
		TitleIssuedAt:       input.TitleIssuedAt,
		DevelopedAt:         input.DevelopedAt,
		PricePerM2:          input.PricePerM2,
		IsTitled:            input.IsTitled,
	}

	created, err := s.repo.Create(ctx, parcel)
	if err != nil {
		s.log.Error("Failed to create parcel", err, map[string]interface{}{"matricule": input.Matricule})
		return nil, fmt.Errorf("failed to create parcel: %w", err)
	}

	if len(input.ImageURLs) > 0 {
		images, err := s.repo.AttachImages(ctx, created.ID, input.ImageURLs)
		if err != nil {
			// The parcel exists; a failed image attach is reported but
			// does not roll the registration back.
			s.log.Error("Failed to attach images to new parcel", err, map[string]interface{}{"parcel_id": created.ID})
		} else {
			created.Images = images
		}
	}

	s.log.Info("Parcel created", map[string]interface{}{
		"parcel_id": created.ID,
		"matricule": created.Matricule,
		"owner_id":  created.OwnerID,
	})
	return created, nil
}

func (s *parcelService) List(ctx context.Context, filters models.ParcelFilters) ([]models.Parcel, error) {
	parcels, err := s.repo.List(ctx, filters)
	if err != nil {
		s.log.Error("Failed to list parcels", err, nil)
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	return parcels, nil
}

// GetByID resolves a parcel regardless of its soft-delete state, so an
// owner can still inspect a withdrawn listing.
func (s *parcelService) GetByID(ctx context.Context, id int64) (*models.Parcel, error) {
	parcel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get parcel", err, map[string]interface{}{"parcel_id": id})
		return nil, fmt.Errorf("failed to get parcel: %w", err)
	}
	if parcel == nil {
		return nil, ErrParcelNotFound
	}
	return parcel, nil
}

func (s *parcelService) SearchByMatricule(ctx context.Context, fragment string) ([]models.Parcel, error) {
	if fragment == "" {
		return nil, ErrMatriculeRequired
	}

	parcels, err := s.repo.SearchByMatricule(ctx, fragment)
	if err != nil {
		s.log.Error("Matricule search failed", err, map[string]interface{}{"fragment": fragment})
		return nil, fmt.Errorf("failed to search parcels: %w", err)
	}
	return parcels, nil
}

func (s *parcelService) Update(ctx context.Context, id int64, update models.ParcelUpdate) (*models.Parcel, error) {
	if update.Matricule != nil && *update.Matricule == "" {
		return nil, ErrMatriculeRequired
	}

	parcel, err := s.repo.Update(ctx, id, update)
	if err != nil {
		s.log.Error("Failed to update parcel", err, map[string]interface{}{"parcel_id": id})
		return nil, fmt.Errorf("failed to update parcel: %w", err)
	}
	if parcel == nil {
		return nil, ErrParcelNotFound
	}

	s.log.Info("Parcel updated", map[string]interface{}{"parcel_id": id})
	return parcel, nil
}

func (s *parcelService) SoftDelete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrParcelNotFound
		}
		s.log.Error("Failed to soft-delete parcel", err, map[string]interface{}{"parcel_id": id})
		return fmt.Errorf("failed to delete parcel: %w", err)
	}

	s.log.Info("Parcel soft-deleted", map[string]interface{}{"parcel_id": id})
	return nil
}

func (s *parcelService) AttachImages(ctx context.Context, parcelID int64, urls []string) ([]models.ParcelImage, error) {
	if len(urls) == 0 {
		return nil, ErrNoImages
	}

	parcel, err := s.repo.GetByID(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve parcel: %w", err)
	}
	if parcel == nil || !parcel.IsActive {
		return nil, ErrParcelNotFound
	}

	images, err := s.repo.AttachImages(ctx, parcelID, urls)
	if err != nil {
		s.log.Error("Failed to attach images", err, map[string]interface{}{"parcel_id": parcelID})
		return nil, fmt.Errorf("failed to attach images: %w", err)
	}

	s.log.Info("Images attached", map[string]interface{}{
		"parcel_id": parcelID,
		"count":     len(images),
	})
	return images, nil
}

// CheckOverlaps reports active parcels whose boundary intersects the
// given one. Overlaps are a registry conflict signal for a clerk to
// review; nothing is mutated.
func (s *parcelService) CheckOverlaps(ctx context.Context, parcelID int64) ([]models.ParcelOverlap, error) {
	parcel, err := s.repo.GetByID(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve parcel: %w", err)
	}
	if parcel == nil {
		return nil, ErrParcelNotFound
	}

	overlaps, err := s.spatial.DetectOverlaps(ctx, parcelID)
	if err != nil {
		s.log.Error("Overlap check failed", err, map[string]interface{}{"parcel_id": parcelID})
		return nil, fmt.Errorf("failed to check overlaps: %w", err)
	}
	return overlaps, nil
}
