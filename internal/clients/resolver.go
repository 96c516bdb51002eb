// Package clients resolves an inbound sender's phone number to an account and
// its active contract.
package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"property_service_backend/platform/apperr"
	"property_service_backend/platform/config"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/phone"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

const (
	// SuffixDigits is the length of the trailing-digit fallback match.
	SuffixDigits = 8
	// maxCandidates bounds the exact-match lookup.
	maxCandidates = 8

	demoAccountName = "Demo Tenant"
)

type Account struct {
	ID                uuid.UUID
	FullName          string
	PreferredLanguage string
	CreatedAt         time.Time
}

// Contract is the active lease of an account, with its property and unit.
type Contract struct {
	ID           uuid.UUID
	PropertyID   *uuid.UUID
	PropertyName string
	UnitID       *uuid.UUID
	UnitNumber   string
	StartDate    time.Time
	EndDate      time.Time
	RentCents    int64
}

// Resolution is the outcome of resolving a phone number. Contract is nil when
// the account has no active contract.
type Resolution struct {
	Found    bool
	Account  Account
	Contract *Contract
}

// Repository is the account storage the resolver reads from.
type Repository interface {
	// FindAccountIDsByPhones returns the distinct accounts owning any of phones.
	FindAccountIDsByPhones(ctx context.Context, phones []string) ([]uuid.UUID, error)
	// FindAccountIDsByPhoneSuffix matches the trailing digits of stored phones.
	// Implementations may stop after two matches.
	FindAccountIDsByPhoneSuffix(ctx context.Context, suffix string) ([]uuid.UUID, error)
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	// ActiveContract returns ErrNotFound when the account has no active contract.
	ActiveContract(ctx context.Context, accountID uuid.UUID) (Contract, error)
	CreateAccount(ctx context.Context, name string, phones []string) (Account, error)
}

type Resolver struct {
	repo      Repository
	region    string
	demoPhone string
	log       *logger.Logger
}

func NewResolver(repo Repository, cfg config.PhoneConfig, log *logger.Logger) *Resolver {
	r := &Resolver{repo: repo, region: phone.DefaultRegion, log: log}
	if cfg != nil {
		if region := cfg.GetPhoneDefaultRegion(); region != "" {
			r.region = region
		}
		r.demoPhone = cfg.GetDemoPhone()
	}
	return r
}

// Resolve finds the account for rawPhone. An unknown or ambiguous number is
// not an error; it yields Found false.
func (r *Resolver) Resolve(ctx context.Context, rawPhone string) (Resolution, error) {
	candidates := Candidates(rawPhone, r.region)
	if len(candidates) == 0 {
		return Resolution{}, nil
	}

	accountID, ok, err := r.match(ctx, rawPhone, candidates)
	if err != nil {
		return Resolution{}, apperr.Unavailable("account lookup failed", err).WithOp("clients.Resolve")
	}

	if !ok {
		if !r.isDemoPhone(rawPhone) {
			r.log.WithContext(ctx).Debug("no account for sender", "candidates", len(candidates))
			return Resolution{}, nil
		}
		return r.createDemoAccount(ctx, rawPhone)
	}

	account, err := r.repo.GetAccount(ctx, accountID)
	if errors.Is(err, ErrNotFound) {
		return Resolution{}, nil
	}
	if err != nil {
		return Resolution{}, apperr.Unavailable("account lookup failed", err).WithOp("clients.Resolve")
	}

	res := Resolution{Found: true, Account: account}

	contract, err := r.repo.ActiveContract(ctx, account.ID)
	switch {
	case err == nil:
		res.Contract = &contract
	case errors.Is(err, ErrNotFound):
	default:
		// the contract only adds display context
		r.log.WithContext(ctx).Warn("active contract lookup failed", "accountId", account.ID, "error", err)
	}

	return res, nil
}

func (r *Resolver) match(ctx context.Context, rawPhone string, candidates []string) (uuid.UUID, bool, error) {
	ids, err := r.repo.FindAccountIDsByPhones(ctx, candidates)
	if err != nil {
		return uuid.Nil, false, err
	}
	if len(ids) == 1 {
		return ids[0], true, nil
	}
	if len(ids) > 1 {
		r.log.WithContext(ctx).Warn("phone matches several accounts", "matches", len(ids))
		return uuid.Nil, false, nil
	}

	digits := phone.Digits(rawPhone)
	if len(digits) < SuffixDigits {
		return uuid.Nil, false, nil
	}

	ids, err = r.repo.FindAccountIDsByPhoneSuffix(ctx, digits[len(digits)-SuffixDigits:])
	if err != nil {
		return uuid.Nil, false, err
	}
	if len(ids) != 1 {
		return uuid.Nil, false, nil
	}
	return ids[0], true, nil
}

func (r *Resolver) isDemoPhone(rawPhone string) bool {
	if r.demoPhone == "" {
		return false
	}
	demo := phone.NationalNumber(r.demoPhone, r.region)
	return demo != "" && demo == phone.NationalNumber(rawPhone, r.region)
}

func (r *Resolver) createDemoAccount(ctx context.Context, rawPhone string) (Resolution, error) {
	national := phone.NationalNumber(rawPhone, r.region)
	phones := []string{"0" + national}
	if e164 := phone.NormalizeE164(rawPhone, r.region); e164 != phones[0] {
		phones = append(phones, e164)
	}

	account, err := r.repo.CreateAccount(ctx, demoAccountName, phones)
	if err != nil {
		return Resolution{}, apperr.Unavailable("demo account creation failed", err).WithOp("clients.Resolve")
	}

	r.log.WithContext(ctx).Info("demo account created", "accountId", account.ID)
	return Resolution{Found: true, Account: account}, nil
}

// Candidates returns the phone representations tried for an exact match:
// the national significant number with each known prefix, the E.164 form,
// the digits of the input and the trimmed input itself. The set never
// exceeds eight entries; its prefixed forms are identical for every
// representation of the same number.
func Candidates(rawPhone, region string) []string {
	national := phone.NationalNumber(rawPhone, region)
	if national == "" {
		return nil
	}
	cc := phone.CallingCode(region)

	values := []string{
		"0" + national,
		national,
		"+" + cc + national,
		cc + national,
		"00" + cc + national,
		phone.NormalizeE164(rawPhone, region),
		phone.Digits(rawPhone),
		strings.TrimSpace(rawPhone),
	}

	seen := make(map[string]struct{}, maxCandidates)
	out := make([]string, 0, maxCandidates)
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}
