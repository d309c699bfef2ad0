package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABIs for the factory, the per-group contract, and the ERC-20
// settlement token. Only the functions and events this service touches are
// declared.

const factoryABIJSON = `[
	{"type":"function","name":"createArisan","stateMutability":"nonpayable","inputs":[
		{"name":"_name","type":"string"},
		{"name":"_description","type":"string"},
		{"name":"_entryFee","type":"uint256"},
		{"name":"_maxParticipants","type":"uint256"}
	],"outputs":[]},
	{"type":"function","name":"getDeployedArisans","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"address[]"}
	]},
	{"type":"event","name":"ArisanCreated","inputs":[
		{"name":"arisanAddress","type":"address","indexed":true},
		{"name":"creator","type":"address","indexed":true},
		{"name":"name","type":"string","indexed":false},
		{"name":"entryFee","type":"uint256","indexed":false}
	]}
]`

const arisanABIJSON = `[
	{"type":"function","name":"join","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"kocok","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"withdrawPrize","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"getParticipants","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"tuple[]","components":[
			{"name":"walletAddress","type":"address"},
			{"name":"hasPaid","type":"bool"},
			{"name":"hasWon","type":"bool"},
			{"name":"joinedAt","type":"uint256"}
		]}
	]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"description","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"entryFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"maxParticipants","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"pendingWithdrawals","stateMutability":"view","inputs":[
		{"name":"","type":"address"}
	],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"Joined","inputs":[
		{"name":"participant","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"WinnerPicked","inputs":[
		{"name":"winner","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"timestamp","type":"uint256","indexed":false}
	]}
]`

const erc20ABIJSON = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[
		{"name":"spender","type":"address"},
		{"name":"amount","type":"uint256"}
	],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[
		{"name":"owner","type":"address"},
		{"name":"spender","type":"address"}
	],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
		{"name":"account","type":"address"}
	],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"event","name":"Transfer","inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}
	]}
]`

var (
	factoryABI = mustParseABI(factoryABIJSON)
	arisanABI  = mustParseABI(arisanABIJSON)
	erc20ABI   = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
