package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/geofoncier/api/internal/logger"
	"github.com/geofoncier/api/internal/models"
	"github.com/geofoncier/api/internal/notify"
	"github.com/geofoncier/api/internal/repository"
)

// Service-level errors for the brokerage workflow.
var (
	ErrContactNotFound = errors.New("contact request not found")
	ErrAlreadyResolved = errors.New("contact request already resolved")
	ErrClientRequired  = errors.New("a client id is required")
)

// ContactDisclosure is what the client learns on approval: how to reach
// the owner, and the commission grid. Percentages are informational;
// no fee is computed or collected here.
type ContactDisclosure struct {
	OwnerName  *string            `json:"ownerName,omitempty"`
	OwnerPhone *string            `json:"ownerPhone,omitempty"`
	Matricule  string             `json:"matricule"`
	Fees       models.FeeSchedule `json:"fees"`
	ParcelID   int64              `json:"parcelId"`
}

// ContactService mediates introductions between clients and parcel
// owners. Identities stay hidden until an operator approves the request.
type ContactService interface {
	// Initiate opens a pending request against an active parcel. The
	// owner is captured from the parcel at this moment.
	Initiate(ctx context.Context, clientID string, parcelID int64) (*models.Contact, error)
	GetByID(ctx context.Context, id int64) (*models.Contact, error)
	// Approve resolves a pending request to accepted and returns the
	// owner disclosure. Resolving twice fails with ErrAlreadyResolved.
	Approve(ctx context.Context, id int64) (*models.Contact, *ContactDisclosure, error)
	// Reject resolves a pending request to rejected. Same monotonic
	// rule as Approve.
	Reject(ctx context.Context, id int64) (*models.Contact, error)
	HistoryByUser(ctx context.Context, userID string) ([]models.Contact, error)
}

type contactService struct {
	contacts repository.ContactRepository
	parcels  repository.ParcelRepository
	notifier notify.Notifier
	admin    string
	log      *logger.Logger
}

// NewContactService creates a new instance of ContactService. adminEmail
// receives the new-request notifications.
func NewContactService(contacts repository.ContactRepository, parcels repository.ParcelRepository, notifier notify.Notifier, adminEmail string, log *logger.Logger) ContactService {
	return &contactService{
		contacts: contacts,
		parcels:  parcels,
		notifier: notifier,
		admin:    adminEmail,
		log:      log,
	}
}

func (s *contactService) Initiate(ctx context.Context, clientID string, parcelID int64) (*models.Contact, error) {
	if clientID == "" {
		return nil, ErrClientRequired
	}

	parcel, err := s.parcels.GetByID(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve parcel: %w", err)
	}
	// Withdrawn listings cannot receive new requests.
	if parcel == nil || !parcel.IsActive {
		return nil, ErrParcelNotFound
	}

	contact, err := s.contacts.Create(ctx, clientID, parcel.OwnerID, parcelID)
	if err != nil {
		s.log.Error("Failed to create contact request", err, map[string]interface{}{
			"client_id": clientID,
			"parcel_id": parcelID,
		})
		return nil, fmt.Errorf("failed to create contact request: %w", err)
	}

	// Notification failures never fail the request itself.
	s.sendOrLog(ctx, notify.Message{
		To:      s.admin,
		Subject: "New contact request",
		Body: fmt.Sprintf("Contact request %d: client %s asked about parcel %s (id %d).",
			contact.ID, clientID, parcel.Matricule, parcelID),
	})

	s.log.Info("Contact request created", map[string]interface{}{
		"contact_id": contact.ID,
		"parcel_id":  parcelID,
	})
	return contact, nil
}

func (s *contactService) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact request: %w", err)
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}
	return contact, nil
}

func (s *contactService) Approve(ctx context.Context, id int64) (*models.Contact, *ContactDisclosure, error) {
	contact, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	resolved, err := s.contacts.Resolve(ctx, id, models.ContactAccepted)
	if err != nil {
		s.log.Error("Failed to approve contact request", err, map[string]interface{}{"contact_id": id})
		return nil, nil, fmt.Errorf("failed to approve contact request: %w", err)
	}
	if !resolved {
		return nil, nil, fmt.Errorf("%w: contact %d is %s", ErrAlreadyResolved, id, contact.Status)
	}
	contact.Status = models.ContactAccepted

	disclosure := &ContactDisclosure{
		ParcelID: contact.ParcelID,
		Fees:     models.DefaultFeeSchedule(),
	}
	parcel, err := s.parcels.GetByID(ctx, contact.ParcelID)
	if err == nil && parcel != nil {
		disclosure.OwnerName = parcel.OwnerName
		disclosure.OwnerPhone = parcel.OwnerPhone
		disclosure.Matricule = parcel.Matricule
	}

	// The relay resolves user ids to addresses; identity lives outside
	// this system.
	s.sendOrLog(ctx, notify.Message{
		To:      contact.ClientID,
		Subject: "Your contact request was approved",
		Body: fmt.Sprintf("Request %d approved for parcel %s. Commission: client %.0f%%, owner %.0f%%.",
			contact.ID, disclosure.Matricule, disclosure.Fees.ClientPercent, disclosure.Fees.OwnerPercent),
	})

	s.log.Info("Contact request approved", map[string]interface{}{"contact_id": id})
	return contact, disclosure, nil
}

func (s *contactService) Reject(ctx context.Context, id int64) (*models.Contact, error) {
	contact, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resolved, err := s.contacts.Resolve(ctx, id, models.ContactRejected)
	if err != nil {
		s.log.Error("Failed to reject contact request", err, map[string]interface{}{"contact_id": id})
		return nil, fmt.Errorf("failed to reject contact request: %w", err)
	}
	if !resolved {
		return nil, fmt.Errorf("%w: contact %d is %s", ErrAlreadyResolved, id, contact.Status)
	}
	contact.Status = models.ContactRejected

	s.sendOrLog(ctx, notify.Message{
		To:      contact.ClientID,
		Subject: "Your contact request was declined",
		Body:    fmt.Sprintf("Request %d for parcel %d was declined.", contact.ID, contact.ParcelID),
	})

	s.log.Info("Contact request rejected", map[string]interface{}{"contact_id": id})
	return contact, nil
}

func (s *contactService) HistoryByUser(ctx context.Context, userID string) ([]models.Contact, error) {
	if userID == "" {
		return nil, ErrClientRequired
	}

	history, err := s.contacts.HistoryByUser(ctx, userID)
	if err != nil {
		s.log.Error("Failed to load contact history", err, map[string]interface{}{"user_id": userID})
		return nil, fmt.Errorf("failed to load contact history: %w", err)
	}
	return history, nil
}

func (s *contactService) sendOrLog(ctx context.Context, msg notify.Message) {
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.log.Warn("Notification delivery failed", map[string]interface{}{
			"to":      msg.To,
			"subject": msg.Subject,
			"error":   err.Error(),
		})
	}
}
