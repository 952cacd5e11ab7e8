package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
)

func newSubscriptionFixture() (*SubscriptionService, *fakeSubscriptionRepo) {
	subRepo := newFakeSubscriptionRepo()
	svc := &SubscriptionService{
		SubscriptionRepo: subRepo,
		ScheduleRepo: newFakeScheduleRepo(&model.Schedule{
			ScheduleId: "sched-1", Name: "Payments", IsActive: 1,
		}),
		ExternalBaseURL: "https://oncall.example.com",
	}
	return svc, subRepo
}

func TestCreateToken_AndValidate(t *testing.T) {
	svc, _ := newSubscriptionFixture()

	resp, err := svc.CreateToken("sched-1", "alice", &model.CreateSubscriptionReq{})
	require.NoError(t, err)
	assert.Contains(t, resp.FeedURL,
		"https://oncall.example.com/api/v1/public/calendar/sched-1/feed.ics?token=")

	binding, err := svc.ValidateToken("sched-1", feedToken(resp.FeedURL))
	require.NoError(t, err)
	assert.Equal(t, "sched-1", binding.ScheduleId)
	assert.Equal(t, "alice", binding.UserId)
	assert.Empty(t, binding.FilterUserId)
}

func TestValidateToken_WrongScheduleFailsUniformly(t *testing.T) {
	svc, _ := newSubscriptionFixture()

	resp, err := svc.CreateToken("sched-1", "alice", &model.CreateSubscriptionReq{})
	require.NoError(t, err)

	// a valid token presented against another schedule must look exactly
	// like an unknown token
	_, err = svc.ValidateToken("sched-other", feedToken(resp.FeedURL))
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = svc.ValidateToken("sched-1", "no-such-token")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestCreateToken_UnknownSchedule(t *testing.T) {
	svc, _ := newSubscriptionFixture()
	_, err := svc.CreateToken("nope", "alice", &model.CreateSubscriptionReq{})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestCreateToken_ReissueReplaces(t *testing.T) {
	svc, subRepo := newSubscriptionFixture()

	first, err := svc.CreateToken("sched-1", "alice", &model.CreateSubscriptionReq{})
	require.NoError(t, err)
	second, err := svc.CreateToken("sched-1", "alice", &model.CreateSubscriptionReq{})
	require.NoError(t, err)
	assert.NotEqual(t, first.FeedURL, second.FeedURL)

	// the replaced token stops validating, the key maps to one live token
	_, err = svc.ValidateToken("sched-1", feedToken(first.FeedURL))
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = svc.ValidateToken("sched-1", feedToken(second.FeedURL))
	assert.NoError(t, err)
	assert.Len(t, subRepo.subs, 1)
}

func TestCreateToken_FilterKeysAreIndependent(t *testing.T) {
	svc, subRepo := newSubscriptionFixture()

	full, err := svc.CreateToken("sched-1", "alice", &model.CreateSubscriptionReq{})
	require.NoError(t, err)
	filtered, err := svc.CreateToken("sched-1", "alice",
		&model.CreateSubscriptionReq{FilterUserId: "alice"})
	require.NoError(t, err)

	// a filtered subscription does not replace the full-feed one
	assert.Len(t, subRepo.subs, 2)

	binding, err := svc.ValidateToken("sched-1", feedToken(filtered.FeedURL))
	require.NoError(t, err)
	assert.Equal(t, "alice", binding.FilterUserId)

	binding, err = svc.ValidateToken("sched-1", feedToken(full.FeedURL))
	require.NoError(t, err)
	assert.Empty(t, binding.FilterUserId)
}

func TestRevoke_TokenStopsValidating(t *testing.T) {
	svc, _ := newSubscriptionFixture()

	resp, err := svc.CreateToken("sched-1", "alice", &model.CreateSubscriptionReq{})
	require.NoError(t, err)
	token := feedToken(resp.FeedURL)

	require.NoError(t, svc.Revoke("sched-1", "alice", ""))
	_, err = svc.ValidateToken("sched-1", token)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	// revoking again reports the missing subscription
	assert.ErrorIs(t, svc.Revoke("sched-1", "alice", ""), repo.ErrNotFound)
}

func TestValidateToken_TouchesLastAccessed(t *testing.T) {
	svc, subRepo := newSubscriptionFixture()

	resp, err := svc.CreateToken("sched-1", "alice", &model.CreateSubscriptionReq{})
	require.NoError(t, err)
	token := feedToken(resp.FeedURL)

	sub, err := subRepo.GetByToken(token)
	require.NoError(t, err)
	assert.Nil(t, sub.LastAccessedAt)

	_, err = svc.ValidateToken("sched-1", token)
	require.NoError(t, err)
	sub, err = subRepo.GetByToken(token)
	require.NoError(t, err)
	assert.NotNil(t, sub.LastAccessedAt)
}

func TestListMine(t *testing.T) {
	svc, _ := newSubscriptionFixture()

	_, err := svc.CreateToken("sched-1", "alice", &model.CreateSubscriptionReq{})
	require.NoError(t, err)
	_, err = svc.CreateToken("sched-1", "bob", &model.CreateSubscriptionReq{})
	require.NoError(t, err)

	mine, err := svc.ListMine("alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "sched-1", mine[0].ScheduleId)
}

// feedToken extracts the token from a generated feed url.
func feedToken(feedURL string) string {
	i := strings.Index(feedURL, "token=")
	return feedURL[i+len("token="):]
}
