package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	err   error
	dates []time.Time
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) IngestDate(ctx context.Context, date time.Time) (*Result, error) {
	f.dates = append(f.dates, date)
	return &Result{Provider: f.name, Date: date.Format("2006-01-02")}, f.err
}

func TestPollDateContinuesPastFailure(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("quota exhausted")}
	healthy := &fakeProvider{name: "healthy"}
	poller := NewLinePoller(broken, healthy)

	date := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	results, err := poller.PollDate(context.Background(), date)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []time.Time{date}, broken.dates)
	assert.Equal(t, []time.Time{date}, healthy.dates)
}

func TestPollDateFailsWhenAllProvidersFail(t *testing.T) {
	a := &fakeProvider{name: "a", err: errors.New("down")}
	b := &fakeProvider{name: "b", err: errors.New("also down")}
	poller := NewLinePoller(a, b)

	_, err := poller.PollDate(context.Background(), time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every provider failed")
}

func TestPollOnceUsesCurrentDay(t *testing.T) {
	provider := &fakeProvider{name: "only"}
	poller := NewLinePoller(provider)

	_, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, provider.dates, 1)

	got := provider.dates[0]
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 0, got.Hour())
}
