package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"property_service_backend/platform/apperr"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	phones    map[string]uuid.UUID
	accounts  map[uuid.UUID]Account
	contracts map[uuid.UUID]Contract
	findErr   error
	created   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		phones:    map[string]uuid.UUID{},
		accounts:  map[uuid.UUID]Account{},
		contracts: map[uuid.UUID]Contract{},
	}
}

func (f *fakeRepo) addAccount(name string, phones ...string) Account {
	a := Account{ID: uuid.New(), FullName: name, CreatedAt: time.Now()}
	f.accounts[a.ID] = a
	for _, p := range phones {
		f.phones[p] = a.ID
	}
	return a
}

func (f *fakeRepo) FindAccountIDsByPhones(_ context.Context, phones []string) ([]uuid.UUID, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, p := range phones {
		if id, ok := f.phones[p]; ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeRepo) FindAccountIDsByPhoneSuffix(_ context.Context, suffix string) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for p, id := range f.phones {
		d := phone.Digits(p)
		if len(d) >= len(suffix) && d[len(d)-len(suffix):] == suffix && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeRepo) GetAccount(_ context.Context, id uuid.UUID) (Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (f *fakeRepo) ActiveContract(_ context.Context, accountID uuid.UUID) (Contract, error) {
	c, ok := f.contracts[accountID]
	if !ok {
		return Contract{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) CreateAccount(_ context.Context, name string, phones []string) (Account, error) {
	f.created++
	return f.addAccount(name, phones...), nil
}

type phoneConfig struct {
	demo string
}

func (c phoneConfig) GetPhoneDefaultRegion() string { return "SA" }
func (c phoneConfig) GetDemoPhone() string          { return c.demo }

func TestCandidatesAreBoundedAndCanonical(t *testing.T) {
	variants := []string{"0501234567", "501234567", "966501234567", "+966501234567", "00966501234567", "+966 50 123 4567"}
	for _, v := range variants {
		got := Candidates(v, "SA")
		require.LessOrEqual(t, len(got), 8, v)
		require.Contains(t, got, "0501234567", v)
		require.Contains(t, got, "+966501234567", v)
		require.Contains(t, got, "00966501234567", v)
	}
	require.Empty(t, Candidates("  ", "SA"))
}

func TestResolveIsVariantInvariant(t *testing.T) {
	repo := newFakeRepo()
	want := repo.addAccount("Sara", "+966501234567")
	resolver := NewResolver(repo, phoneConfig{}, logger.Nop())

	for _, v := range Candidates("0501234567", "SA") {
		res, err := resolver.Resolve(context.Background(), v)
		require.NoError(t, err)
		require.True(t, res.Found, v)
		require.Equal(t, want.ID, res.Account.ID, v)
	}
}

func TestResolveFallsBackToUniqueSuffix(t *testing.T) {
	repo := newFakeRepo()
	want := repo.addAccount("Omar", "+44 (0) 7912 345678")
	resolver := NewResolver(repo, phoneConfig{}, logger.Nop())

	res, err := resolver.Resolve(context.Background(), "447912345678")
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, want.ID, res.Account.ID)
}

func TestResolveAmbiguousSuffixIsNotFound(t *testing.T) {
	repo := newFakeRepo()
	repo.addAccount("A", "x-11-12345678")
	repo.addAccount("B", "y-22-12345678")
	resolver := NewResolver(repo, phoneConfig{}, logger.Nop())

	res, err := resolver.Resolve(context.Background(), "9912345678")
	require.NoError(t, err)
	require.False(t, res.Found)
}

func TestResolveAttachesActiveContract(t *testing.T) {
	repo := newFakeRepo()
	a := repo.addAccount("Sara", "0501234567")
	repo.contracts[a.ID] = Contract{ID: uuid.New(), PropertyName: "Palm Towers", UnitNumber: "12B", RentCents: 450000}
	resolver := NewResolver(repo, phoneConfig{}, logger.Nop())

	res, err := resolver.Resolve(context.Background(), "+966501234567")
	require.NoError(t, err)
	require.NotNil(t, res.Contract)
	require.Equal(t, "12B", res.Contract.UnitNumber)
}

func TestResolveWithoutContractIsStillFound(t *testing.T) {
	repo := newFakeRepo()
	repo.addAccount("Sara", "0501234567")
	resolver := NewResolver(repo, phoneConfig{}, logger.Nop())

	res, err := resolver.Resolve(context.Background(), "0501234567")
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Nil(t, res.Contract)
}

func TestResolveUnknownNumber(t *testing.T) {
	resolver := NewResolver(newFakeRepo(), phoneConfig{}, logger.Nop())
	res, err := resolver.Resolve(context.Background(), "0555555555")
	require.NoError(t, err)
	require.False(t, res.Found)
}

func TestResolveCreatesDemoAccountOnce(t *testing.T) {
	repo := newFakeRepo()
	resolver := NewResolver(repo, phoneConfig{demo: "+966500000001"}, logger.Nop())

	first, err := resolver.Resolve(context.Background(), "0500000001")
	require.NoError(t, err)
	require.True(t, first.Found)

	second, err := resolver.Resolve(context.Background(), "966500000001")
	require.NoError(t, err)
	require.Equal(t, first.Account.ID, second.Account.ID)
	require.Equal(t, 1, repo.created)
}

func TestResolveRepositoryFailureIsUnavailable(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errors.New("connection refused")
	resolver := NewResolver(repo, phoneConfig{}, logger.Nop())

	_, err := resolver.Resolve(context.Background(), "0501234567")
	require.True(t, apperr.Is(err, apperr.KindUnavailable))
}
