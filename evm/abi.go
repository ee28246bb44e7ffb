package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// etherSwapABIJSON and erc20SwapABIJSON are the minimal ABI fragments of
// the EtherSwap / ERC20Swap contracts needed to pack lockup/claim/refund
// calldata and to parse their Lockup/Claim/Refund events. Mirrors the
// teacher's pattern of a package-level parsed ABI
// (protocol/txsender/external_sender.go's contracts.SwapCreatorParsedABI),
// adapted to the two boltz-style swap contracts instead of one.
const etherSwapABIJSON = `[
	{"type":"function","name":"lock","stateMutability":"payable","inputs":[
		{"name":"preimageHash","type":"bytes32"},
		{"name":"claimAddress","type":"address"},
		{"name":"timelock","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"lockPrepayMinerfee","stateMutability":"payable","inputs":[
		{"name":"preimageHash","type":"bytes32"},
		{"name":"claimAddress","type":"address"},
		{"name":"timelock","type":"uint256"},
		{"name":"prepayAmount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"claim","stateMutability":"nonpayable","inputs":[
		{"name":"preimage","type":"bytes32"},
		{"name":"amount","type":"uint256"},
		{"name":"refundAddress","type":"address"},
		{"name":"timelock","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"refund","stateMutability":"nonpayable","inputs":[
		{"name":"preimageHash","type":"bytes32"},
		{"name":"amount","type":"uint256"},
		{"name":"claimAddress","type":"address"},
		{"name":"timelock","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"swaps","stateMutability":"view","inputs":[
		{"name":"preimageHash","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"Lockup","anonymous":false,"inputs":[
		{"name":"preimageHash","type":"bytes32","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"claimAddress","type":"address","indexed":false},
		{"name":"refundAddress","type":"address","indexed":false},
		{"name":"timelock","type":"uint256","indexed":false}]},
	{"type":"event","name":"Claim","anonymous":false,"inputs":[
		{"name":"preimageHash","type":"bytes32","indexed":true},
		{"name":"preimage","type":"bytes32","indexed":false}]},
	{"type":"event","name":"Refund","anonymous":false,"inputs":[
		{"name":"preimageHash","type":"bytes32","indexed":true}]}
]`

const erc20SwapABIJSON = `[
	{"type":"function","name":"lock","stateMutability":"nonpayable","inputs":[
		{"name":"preimageHash","type":"bytes32"},
		{"name":"amount","type":"uint256"},
		{"name":"tokenAddress","type":"address"},
		{"name":"claimAddress","type":"address"},
		{"name":"timelock","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"lockPrepayMinerfee","stateMutability":"payable","inputs":[
		{"name":"preimageHash","type":"bytes32"},
		{"name":"amount","type":"uint256"},
		{"name":"tokenAddress","type":"address"},
		{"name":"claimAddress","type":"address"},
		{"name":"timelock","type":"uint256"},
		{"name":"prepayAmount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"claim","stateMutability":"nonpayable","inputs":[
		{"name":"preimage","type":"bytes32"},
		{"name":"amount","type":"uint256"},
		{"name":"tokenAddress","type":"address"},
		{"name":"refundAddress","type":"address"},
		{"name":"timelock","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"refund","stateMutability":"nonpayable","inputs":[
		{"name":"preimageHash","type":"bytes32"},
		{"name":"amount","type":"uint256"},
		{"name":"tokenAddress","type":"address"},
		{"name":"claimAddress","type":"address"},
		{"name":"timelock","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"Lockup","anonymous":false,"inputs":[
		{"name":"preimageHash","type":"bytes32","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"tokenAddress","type":"address","indexed":false},
		{"name":"claimAddress","type":"address","indexed":false},
		{"name":"refundAddress","type":"address","indexed":false},
		{"name":"timelock","type":"uint256","indexed":false}]},
	{"type":"event","name":"Claim","anonymous":false,"inputs":[
		{"name":"preimageHash","type":"bytes32","indexed":true},
		{"name":"preimage","type":"bytes32","indexed":false}]},
	{"type":"event","name":"Refund","anonymous":false,"inputs":[
		{"name":"preimageHash","type":"bytes32","indexed":true}]}
]`

// EtherSwapABI and ERC20SwapABI are parsed once at init, mirroring the
// teacher's package-level SwapCreatorParsedABI.
var (
	EtherSwapABI  abi.ABI
	ERC20SwapABI  abi.ABI
)

func init() {
	var err error
	EtherSwapABI, err = abi.JSON(strings.NewReader(etherSwapABIJSON))
	if err != nil {
		panic("evm: invalid EtherSwap ABI: " + err.Error())
	}
	ERC20SwapABI, err = abi.JSON(strings.NewReader(erc20SwapABIJSON))
	if err != nil {
		panic("evm: invalid ERC20Swap ABI: " + err.Error())
	}
}
