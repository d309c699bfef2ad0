package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arisanhub/arisand/internal/chain"
	"github.com/arisanhub/arisand/internal/domain"
	"github.com/arisanhub/arisand/internal/service"
)

const (
	groupAddr  = "0x1111111111111111111111111111111111111111"
	walletAddr = "0x2222222222222222222222222222222222222222"
)

type fakeGroupService struct {
	groups    []domain.Group
	getErr    error
	createRes chain.CreateResult
	createErr error
	joinRes   chain.JoinResult
	joinErr   error
	drawRes   chain.WinnerResult
	drawErr   error
	claimErr  error
	prize     string
	balance   string
	memberOf  []string

	lastCreate service.CreateGroupParams
}

func (f *fakeGroupService) List(context.Context) []domain.Group { return f.groups }

func (f *fakeGroupService) Get(_ context.Context, address string) (domain.Group, error) {
	if f.getErr != nil {
		return domain.Group{}, f.getErr
	}
	for _, g := range f.groups {
		if domain.NormalizeAddress(g.Address) == domain.NormalizeAddress(address) {
			return g, nil
		}
	}
	return domain.Group{}, domain.ErrNotFound
}

func (f *fakeGroupService) Create(_ context.Context, p service.CreateGroupParams) (chain.CreateResult, error) {
	f.lastCreate = p
	return f.createRes, f.createErr
}

func (f *fakeGroupService) Join(context.Context, string) (chain.JoinResult, error) {
	return f.joinRes, f.joinErr
}

func (f *fakeGroupService) PickWinner(context.Context, string) (chain.WinnerResult, error) {
	return f.drawRes, f.drawErr
}

func (f *fakeGroupService) ClaimPrize(context.Context, string) (common.Hash, error) {
	return common.HexToHash("0xbeef"), f.claimErr
}

func (f *fakeGroupService) PendingPrize(context.Context, string) (string, error) {
	return f.prize, nil
}

func (f *fakeGroupService) Balance(context.Context, string) string { return f.balance }

func (f *fakeGroupService) WalletGroups(context.Context, string) ([]string, error) {
	return f.memberOf, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGroupRouter(svc GroupService) *http.ServeMux {
	h := NewGroupHandler(svc, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/groups", h.ListGroups)
	mux.HandleFunc("POST /api/groups", h.CreateGroup)
	mux.HandleFunc("GET /api/groups/{address}", h.GetGroup)
	mux.HandleFunc("POST /api/groups/{address}/join", h.JoinGroup)
	mux.HandleFunc("POST /api/groups/{address}/draw", h.DrawWinner)
	mux.HandleFunc("POST /api/groups/{address}/claim", h.ClaimPrize)
	mux.HandleFunc("GET /api/balance/{wallet}", h.Balance)
	mux.HandleFunc("GET /api/users/{wallet}/groups", h.WalletGroups)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestListGroups(t *testing.T) {
	svc := &fakeGroupService{groups: []domain.Group{
		{Address: groupAddr, Name: "Office Pool", EntryFee: 5, MaxParticipants: 10, Status: domain.GroupStatusOpen},
	}}

	rec, body := doRequest(t, newGroupRouter(svc), http.MethodGet, "/api/groups", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	groups := body["groups"].([]any)
	first := groups[0].(map[string]any)
	assert.Equal(t, "Office Pool", first["name"])
	assert.Equal(t, "OPEN", first["status"])
}

func TestGetGroupNotFound(t *testing.T) {
	rec, body := doRequest(t, newGroupRouter(&fakeGroupService{}),
		http.MethodGet, "/api/groups/"+groupAddr, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "group not found", body["error"])
}

func TestCreateGroup(t *testing.T) {
	svc := &fakeGroupService{createRes: chain.CreateResult{
		GroupAddress: common.HexToAddress(groupAddr),
		TxHash:       common.HexToHash("0xabc"),
	}}

	rec, body := doRequest(t, newGroupRouter(svc), http.MethodPost, "/api/groups",
		`{"name":"Office Pool","entry_fee":"5","max_participants":10,"duration":"Weekly"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, common.HexToAddress(groupAddr).Hex(), body["group_address"])
	assert.Equal(t, "Office Pool", svc.lastCreate.Name)
	assert.Equal(t, "5", svc.lastCreate.EntryFee)
}

func TestCreateGroupRejectsMissingName(t *testing.T) {
	rec, _ := doRequest(t, newGroupRouter(&fakeGroupService{}),
		http.MethodPost, "/api/groups", `{"entry_fee":"5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGroupWithoutSigner(t *testing.T) {
	svc := &fakeGroupService{createErr: domain.ErrNoSigner}
	rec, _ := doRequest(t, newGroupRouter(svc), http.MethodPost, "/api/groups",
		`{"name":"Pool","entry_fee":"5","max_participants":10}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestJoinGroupErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"full", domain.ErrGroupFull, http.StatusConflict},
		{"already joined", domain.ErrAlreadyJoined, http.StatusConflict},
		{"broke", domain.ErrInsufficientBalance, http.StatusConflict},
		{"reverted", domain.ErrTxReverted, http.StatusUnprocessableEntity},
		{"timeout", domain.ErrTimeout, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeGroupService{joinErr: tt.err}
			rec, _ := doRequest(t, newGroupRouter(svc),
				http.MethodPost, "/api/groups/"+groupAddr+"/join", "")
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestJoinGroupRejectsBadAddress(t *testing.T) {
	rec, _ := doRequest(t, newGroupRouter(&fakeGroupService{}),
		http.MethodPost, "/api/groups/not-an-address/join", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDrawWinner(t *testing.T) {
	svc := &fakeGroupService{drawRes: chain.WinnerResult{
		Winner:    common.HexToAddress(walletAddr),
		Amount:    big.NewInt(15_000_000),
		Timestamp: 1_700_000_000,
		TxHash:    common.HexToHash("0xabc"),
	}}

	rec, body := doRequest(t, newGroupRouter(svc),
		http.MethodPost, "/api/groups/"+groupAddr+"/draw", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.HexToAddress(walletAddr).Hex(), body["winner"])
	assert.Equal(t, "15000000", body["amount"])
}

func TestDrawWinnerDecodeFailureStillReportsTxHash(t *testing.T) {
	svc := &fakeGroupService{
		drawRes: chain.WinnerResult{TxHash: common.HexToHash("0xabc")},
		drawErr: domain.ErrDecode,
	}

	rec, body := doRequest(t, newGroupRouter(svc),
		http.MethodPost, "/api/groups/"+groupAddr+"/draw", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.HexToHash("0xabc").Hex(), body["tx_hash"])
	assert.NotContains(t, body, "winner")
}

func TestBalance(t *testing.T) {
	svc := &fakeGroupService{balance: "12.5"}
	rec, body := doRequest(t, newGroupRouter(svc),
		http.MethodGet, "/api/balance/"+walletAddr, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12.5", body["balance"])
}

func TestWalletGroups(t *testing.T) {
	svc := &fakeGroupService{memberOf: []string{groupAddr}}
	rec, body := doRequest(t, newGroupRouter(svc),
		http.MethodGet, "/api/users/"+walletAddr+"/groups", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, []any{groupAddr}, body["groups"])
}

func TestWalletGroupsEmptyIsNotAnError(t *testing.T) {
	rec, body := doRequest(t, newGroupRouter(&fakeGroupService{}),
		http.MethodGet, "/api/users/"+walletAddr+"/groups", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["count"])
}
