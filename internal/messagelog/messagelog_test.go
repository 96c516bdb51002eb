package messagelog

import (
	"context"
	"errors"
	"testing"
	"time"

	"property_service_backend/internal/whatsapp"
	"property_service_backend/platform/logger"

	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	err error
	n   int
}

func (g *fakeGateway) SendText(_ context.Context, _ string, _ string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.n++
	return "wamid.text", nil
}

func (g *fakeGateway) SendInteractive(_ context.Context, _ string, _ whatsapp.Interactive) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.n++
	return "wamid.menu", nil
}

type fakeRecorder struct {
	entries []Entry
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, e Entry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func TestRecordingSenderLogsSuccessfulSends(t *testing.T) {
	rec := &fakeRecorder{}
	sender := NewRecordingSender(&fakeGateway{}, rec, logger.Nop())

	id, err := sender.SendText(context.Background(), "966501234567", "hello")
	require.NoError(t, err)
	require.Equal(t, "wamid.text", id)

	_, err = sender.SendInteractive(context.Background(), "966501234567", whatsapp.Interactive{Body: "menu"})
	require.NoError(t, err)

	require.Len(t, rec.entries, 2)
	require.Equal(t, KindText, rec.entries[0].Kind)
	require.Equal(t, StatusSent, rec.entries[0].Status)
	require.Equal(t, "wamid.menu", rec.entries[1].ProviderMessageID)
	require.Equal(t, KindInteractive, rec.entries[1].Kind)
}

func TestRecordingSenderSkipsFailedSends(t *testing.T) {
	rec := &fakeRecorder{}
	sender := NewRecordingSender(&fakeGateway{err: errors.New("boom")}, rec, logger.Nop())

	_, err := sender.SendText(context.Background(), "966501234567", "hello")
	require.Error(t, err)
	require.Empty(t, rec.entries)
}

func TestRecordingSenderIgnoresRecorderErrors(t *testing.T) {
	gw := &fakeGateway{}
	sender := NewRecordingSender(gw, &fakeRecorder{err: errors.New("db down")}, logger.Nop())

	id, err := sender.SendText(context.Background(), "966501234567", "hello")
	require.NoError(t, err)
	require.Equal(t, "wamid.text", id)
	require.Equal(t, 1, gw.n)
}

func TestNilRepositoryIsNotConfigured(t *testing.T) {
	var repo *Repository
	require.Error(t, repo.Record(context.Background(), Entry{ProviderMessageID: "x"}))
	ok, err := repo.UpdateStatus(context.Background(), "x", StatusDelivered, time.Time{})
	require.Error(t, err)
	require.False(t, ok)
}
