package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arisanhub/arisand/internal/domain"
)

type fakeUserService struct {
	profiles map[string]domain.UserProfile
}

func (f *fakeUserService) Get(_ context.Context, wallet string) (domain.UserProfile, error) {
	p, ok := f.profiles[domain.NormalizeAddress(wallet)]
	if !ok {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeUserService) Upsert(_ context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	if f.profiles == nil {
		f.profiles = map[string]domain.UserProfile{}
	}
	key := domain.NormalizeAddress(profile.WalletAddress)
	f.profiles[key] = profile
	return profile, nil
}

func newUserRouter(svc UserService) *http.ServeMux {
	h := NewUserHandler(svc, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{wallet}", h.GetUser)
	mux.HandleFunc("POST /api/users", h.UpsertUser)
	return mux
}

func TestGetUser(t *testing.T) {
	svc := &fakeUserService{profiles: map[string]domain.UserProfile{
		domain.NormalizeAddress(walletAddr): {WalletAddress: walletAddr, Username: "alice", ReputationScore: 100},
	}}

	rec, body := doRequest(t, newUserRouter(svc), http.MethodGet, "/api/users/"+walletAddr, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", body["username"])
	assert.EqualValues(t, 100, body["reputation_score"])
}

func TestGetUserNotFound(t *testing.T) {
	rec, body := doRequest(t, newUserRouter(&fakeUserService{}),
		http.MethodGet, "/api/users/"+walletAddr, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", body["error"])
}

func TestUpsertUser(t *testing.T) {
	svc := &fakeUserService{}

	rec, body := doRequest(t, newUserRouter(svc), http.MethodPost, "/api/users",
		`{"wallet_address":"`+walletAddr+`","username":"bob"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", body["username"])
	assert.Len(t, svc.profiles, 1)
}

func TestUpsertUserRejectsBadWallet(t *testing.T) {
	rec, _ := doRequest(t, newUserRouter(&fakeUserService{}),
		http.MethodPost, "/api/users", `{"wallet_address":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
