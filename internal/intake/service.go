// Package intake creates maintenance requests, complaints and renewal
// requests on behalf of resolved tenants, and answers their read-only
// inquiries. Every created record returns the staff notification jobs it
// produces; delivering them is left to the caller's outbox.
package intake

import (
	"context"
	"errors"
	"time"

	"property_service_backend/internal/clients"
	"property_service_backend/internal/notification"
	"property_service_backend/platform/apperr"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/sanitize"
	"property_service_backend/platform/validator"

	"github.com/google/uuid"
)

// MaxDescriptionRunes caps stored descriptions.
const MaxDescriptionRunes = 1000

// Request status values. Only StatusOpen is written here; later statuses
// belong to back-office processes.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Request is a persisted maintenance request or complaint.
type Request struct {
	ID          uuid.UUID
	DisplayID   string
	Kind        Kind
	AccountID   uuid.UUID
	PropertyID  *uuid.UUID
	UnitID      *uuid.UUID
	Category    string
	Priority    string
	Description string
	Status      string
	CreatedAt   time.Time
}

// Renewal is a persisted contract renewal request.
type Renewal struct {
	ID         uuid.UUID
	DisplayID  string
	AccountID  uuid.UUID
	ContractID *uuid.UUID
	CreatedAt  time.Time
}

// Repository persists intake records.
type Repository interface {
	CreateRequest(ctx context.Context, req Request) error
	ListOpenRequests(ctx context.Context, accountID uuid.UUID, limit int) ([]Request, error)
	CreateRenewal(ctx context.Context, renewal Renewal) error
}

// DisplayIDGenerator hands out human-facing identifiers, unique per prefix.
type DisplayIDGenerator interface {
	NextDisplayID(ctx context.Context, prefix string) (string, error)
}

// Display ID prefixes.
const (
	PrefixMaintenance = "MR"
	PrefixComplaint   = "CP"
	PrefixRenewal     = "RN"
)

// CreateInput is the data collected by a request flow.
type CreateInput struct {
	Kind          Kind `validate:"required,oneof=maintenance complaint"`
	Sender        string
	Resolution    clients.Resolution
	CategoryToken string
	PriorityToken string
	Description   string
}

// Result is the outcome of a successful Create or RequestRenewal.
type Result struct {
	ID        uuid.UUID
	DisplayID string
	Category  string
	Priority  string
	Jobs      []notification.Job
}

type Service struct {
	repo      Repository
	ids       DisplayIDGenerator
	validator *validator.Validator
	log       *logger.Logger
	now       func() time.Time
}

func New(repo Repository, ids DisplayIDGenerator, v *validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, ids: ids, validator: v, log: log, now: time.Now}
}

// Create persists a new request. It refuses to create anything without a
// resolved account or without a category, and a persistence failure returns
// no jobs.
func (s *Service) Create(ctx context.Context, in CreateInput) (Result, error) {
	const op = "intake.Create"

	if err := s.validator.Struct(in); err != nil {
		return Result{}, apperr.Validation("unsupported request kind").WithOp(op)
	}
	if !in.Resolution.Found {
		return Result{}, apperr.Validation("no resolved account").WithOp(op)
	}
	if normalizeToken(in.CategoryToken) == "" {
		return Result{}, apperr.Validation("category is required").WithOp(op)
	}

	description := sanitize.Text(in.Description, MaxDescriptionRunes)
	if description == "" {
		return Result{}, apperr.Validation("description is required").WithOp(op)
	}

	log := s.log.WithContext(ctx)

	category, degraded := NormalizeCategory(in.Kind, in.CategoryToken)
	if degraded {
		log.Warn("unmapped category selection, using default", "kind", string(in.Kind), "token", in.CategoryToken, "category", category)
	}
	priority, degraded := NormalizePriority(in.PriorityToken)
	if degraded {
		log.Warn("unmapped priority selection, using default", "token", in.PriorityToken, "priority", priority)
	}

	prefix := PrefixMaintenance
	event := notification.EventMaintenanceCreated
	if in.Kind == KindComplaint {
		prefix = PrefixComplaint
		event = notification.EventComplaintCreated
	}

	displayID, err := s.ids.NextDisplayID(ctx, prefix)
	if err != nil {
		return Result{}, apperr.Unavailable("display id allocation failed", err).WithOp(op)
	}

	req := Request{
		ID:          uuid.New(),
		DisplayID:   displayID,
		Kind:        in.Kind,
		AccountID:   in.Resolution.Account.ID,
		Category:    category,
		Priority:    priority,
		Description: description,
		Status:      StatusOpen,
		CreatedAt:   s.now().UTC(),
	}
	if c := in.Resolution.Contract; c != nil {
		req.PropertyID = c.PropertyID
		req.UnitID = c.UnitID
	}

	if err := s.repo.CreateRequest(ctx, req); err != nil {
		log.Error("intake request not persisted", "kind", string(in.Kind), "error", err)
		return Result{}, apperr.Unavailable("request could not be saved", err).WithOp(op)
	}

	log.Info("intake request created", "kind", string(in.Kind), "displayId", displayID, "category", category, "priority", priority)

	payload := tenantPayload(in.Sender, in.Resolution, req.CreatedAt)
	payload.DisplayID = displayID
	payload.Category = category
	payload.Priority = priority
	payload.Description = description

	return Result{
		ID:        req.ID,
		DisplayID: displayID,
		Category:  category,
		Priority:  priority,
		Jobs:      []notification.Job{{Event: event, Payload: payload}},
	}, nil
}

// RequestRenewal records a renewal request for the tenant's contract.
func (s *Service) RequestRenewal(ctx context.Context, sender string, res clients.Resolution) (Result, error) {
	const op = "intake.RequestRenewal"

	if !res.Found {
		return Result{}, apperr.Validation("no resolved account").WithOp(op)
	}

	displayID, err := s.ids.NextDisplayID(ctx, PrefixRenewal)
	if err != nil {
		return Result{}, apperr.Unavailable("display id allocation failed", err).WithOp(op)
	}

	renewal := Renewal{
		ID:        uuid.New(),
		DisplayID: displayID,
		AccountID: res.Account.ID,
		CreatedAt: s.now().UTC(),
	}
	if res.Contract != nil {
		id := res.Contract.ID
		renewal.ContractID = &id
	}

	if err := s.repo.CreateRenewal(ctx, renewal); err != nil {
		s.log.WithContext(ctx).Error("renewal request not persisted", "error", err)
		return Result{}, apperr.Unavailable("renewal request could not be saved", err).WithOp(op)
	}

	payload := tenantPayload(sender, res, renewal.CreatedAt)
	payload.DisplayID = displayID

	return Result{
		ID:        renewal.ID,
		DisplayID: displayID,
		Jobs:      []notification.Job{{Event: notification.EventRenewalRequested, Payload: payload}},
	}, nil
}

// OpenRequests lists the account's requests that are not yet resolved, newest first.
func (s *Service) OpenRequests(ctx context.Context, res clients.Resolution, limit int) ([]Request, error) {
	if !res.Found {
		return nil, apperr.Validation("no resolved account").WithOp("intake.OpenRequests")
	}
	if limit < 1 {
		limit = 5
	}
	requests, err := s.repo.ListOpenRequests(ctx, res.Account.ID, limit)
	if err != nil {
		return nil, apperr.Unavailable("requests could not be loaded", err).WithOp("intake.OpenRequests")
	}
	return requests, nil
}

// ErrNoContract is returned by PaymentSummary when the tenant has no active contract.
var ErrNoContract = errors.New("no active contract")

// PaymentSummary describes the rent and term of the active contract.
type PaymentSummary struct {
	PropertyName  string
	UnitNumber    string
	RentCents     int64
	StartDate     time.Time
	EndDate       time.Time
	DaysRemaining int
}

// PaymentSummary summarizes the active contract of a resolved tenant.
func (s *Service) PaymentSummary(_ context.Context, res clients.Resolution) (PaymentSummary, error) {
	if !res.Found {
		return PaymentSummary{}, apperr.Validation("no resolved account").WithOp("intake.PaymentSummary")
	}
	c := res.Contract
	if c == nil {
		return PaymentSummary{}, apperr.Wrap(apperr.KindNotFound, "no active contract", ErrNoContract).WithOp("intake.PaymentSummary")
	}

	days := int(c.EndDate.Sub(s.now()).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return PaymentSummary{
		PropertyName:  c.PropertyName,
		UnitNumber:    c.UnitNumber,
		RentCents:     c.RentCents,
		StartDate:     c.StartDate,
		EndDate:       c.EndDate,
		DaysRemaining: days,
	}, nil
}

func tenantPayload(sender string, res clients.Resolution, createdAt time.Time) notification.Payload {
	p := notification.Payload{
		TenantName:  res.Account.FullName,
		TenantPhone: sender,
		CreatedAt:   createdAt,
	}
	if c := res.Contract; c != nil {
		p.PropertyName = c.PropertyName
		p.UnitNumber = c.UnitNumber
	}
	return p
}
