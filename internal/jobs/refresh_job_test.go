package jobs_test

import (
	"sync/atomic"
	"testing"

	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRefresher struct {
	full    atomic.Int64
	voc     atomic.Int64
	recents atomic.Int64
}

func (f *fakeRefresher) RefreshOrders()     { f.full.Add(1) }
func (f *fakeRefresher) RefreshStatuses()   { f.voc.Add(1) }
func (f *fakeRefresher) PollRecentChanges() { f.recents.Add(1) }

func TestRegisterRefreshJobs_RegistersBoth(t *testing.T) {
	scheduler := jobs.NewScheduler(zap.NewNop())
	cfg := &config.RefreshConfig{FullInterval: 60, RecentInterval: 10}

	require.NoError(t, jobs.RegisterRefreshJobs(scheduler, &fakeRefresher{}, cfg, zap.NewNop()))

	names := scheduler.GetJobNames()
	assert.ElementsMatch(t, []string{jobs.FullRefreshJobName, jobs.RecentPollJobName}, names)
}

func TestRegisterRefreshJobs_SkipsDisabledRecentPoll(t *testing.T) {
	scheduler := jobs.NewScheduler(zap.NewNop())
	cfg := &config.RefreshConfig{FullInterval: 60, RecentInterval: 0}

	require.NoError(t, jobs.RegisterRefreshJobs(scheduler, &fakeRefresher{}, cfg, zap.NewNop()))

	names := scheduler.GetJobNames()
	assert.Equal(t, []string{jobs.FullRefreshJobName}, names)
}

func TestScheduler_RejectsDuplicateJobNames(t *testing.T) {
	scheduler := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, scheduler.AddJob("job", "@every 60s", func() {}))
	assert.Error(t, scheduler.AddJob("job", "@every 60s", func() {}))
}

func TestScheduler_RemoveJob(t *testing.T) {
	scheduler := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, scheduler.AddJob("job", "@every 60s", func() {}))
	require.NoError(t, scheduler.RemoveJob("job"))
	assert.Error(t, scheduler.RemoveJob("job"))
	assert.Empty(t, scheduler.GetJobNames())
}
