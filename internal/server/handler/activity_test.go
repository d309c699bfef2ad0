package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arisanhub/arisand/internal/domain"
)

type fakeActivityService struct {
	events   []domain.EventRecord
	winners  []domain.WinnerRecord
	activity []domain.ActivityEntry
	stats    domain.AdminStats

	lastLimit int
}

func (f *fakeActivityService) GroupHistory(context.Context, string) []domain.EventRecord {
	return f.events
}

func (f *fakeActivityService) GroupWinners(context.Context, string) ([]domain.WinnerRecord, error) {
	return f.winners, nil
}

func (f *fakeActivityService) RecentActivity(_ context.Context, limit int) ([]domain.ActivityEntry, error) {
	f.lastLimit = limit
	return f.activity, nil
}

func (f *fakeActivityService) Stats(context.Context) (domain.AdminStats, error) {
	return f.stats, nil
}

func newActivityRouter(svc ActivityService) *http.ServeMux {
	h := NewActivityHandler(svc, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/groups/{address}/history", h.History)
	mux.HandleFunc("GET /api/groups/{address}/winners", h.Winners)
	mux.HandleFunc("GET /api/activity", h.Recent)
	mux.HandleFunc("GET /api/stats", h.Stats)
	return mux
}

func TestGroupHistory(t *testing.T) {
	svc := &fakeActivityService{events: []domain.EventRecord{
		{Type: domain.EventWinner, Participant: walletAddr, Amount: "15", BlockNumber: 20},
		{Type: domain.EventJoined, Participant: walletAddr, Amount: "5", BlockNumber: 10},
	}}

	rec, body := doRequest(t, newActivityRouter(svc),
		http.MethodGet, "/api/groups/"+groupAddr+"/history", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])
	events := body["events"].([]any)
	first := events[0].(map[string]any)
	assert.Equal(t, "WINNER", first["type"])
	assert.Equal(t, "15", first["amount"])
}

func TestGroupHistoryRejectsBadAddress(t *testing.T) {
	rec, _ := doRequest(t, newActivityRouter(&fakeActivityService{}),
		http.MethodGet, "/api/groups/nope/history", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGroupWinners(t *testing.T) {
	svc := &fakeActivityService{winners: []domain.WinnerRecord{
		{GroupAddress: groupAddr, WinnerAddress: walletAddr, CycleNumber: 1, PrizeAmount: "15", CreatedAt: time.Now()},
	}}

	rec, body := doRequest(t, newActivityRouter(svc),
		http.MethodGet, "/api/groups/"+groupAddr+"/winners", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	winners := body["winners"].([]any)
	first := winners[0].(map[string]any)
	assert.EqualValues(t, 1, first["cycle_number"])
}

func TestRecentActivityPassesLimit(t *testing.T) {
	svc := &fakeActivityService{activity: []domain.ActivityEntry{
		{GroupName: "Pool", Winner: "alice", PrizeAmount: "15"},
	}}

	rec, body := doRequest(t, newActivityRouter(svc),
		http.MethodGet, "/api/activity?limit=10", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, svc.lastLimit)
	assert.EqualValues(t, 1, body["count"])
}

func TestStats(t *testing.T) {
	svc := &fakeActivityService{stats: domain.AdminStats{TotalUsers: 7, TotalWinners: 3}}

	rec, body := doRequest(t, newActivityRouter(svc), http.MethodGet, "/api/stats", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, body["total_users"])
	assert.EqualValues(t, 3, body["total_winners"])
}
