package types

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed + "--------------------")[:20]).String()
}

// TestMsgDepositValidateBasic tests deposit message validation
func TestMsgDepositValidateBasic(t *testing.T) {
	valid := MsgDeposit{
		Depositor: testAddr("depositor"),
		PoolID:    "vault-usdc",
		Assets:    "1000",
		Receiver:  testAddr("receiver"),
	}
	if err := valid.ValidateBasic(); err != nil {
		t.Errorf("valid msg rejected: %v", err)
	}

	bad := valid
	bad.Depositor = "not-bech32"
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for malformed depositor")
	}

	bad = valid
	bad.Receiver = ""
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for empty receiver")
	}

	bad = valid
	bad.PoolID = ""
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for empty pool ID")
	}
}

// TestMsgWithdrawValidateBasic tests the amount wire form in withdraw
func TestMsgWithdrawValidateBasic(t *testing.T) {
	valid := MsgWithdraw{
		Caller:   testAddr("caller"),
		PoolID:   "vault-usdc",
		Assets:   "500",
		Receiver: testAddr("receiver"),
		Owner:    testAddr("owner"),
	}
	if err := valid.ValidateBasic(); err != nil {
		t.Errorf("valid msg rejected: %v", err)
	}

	allOf := valid
	allOf.Assets = "all"
	if err := allOf.ValidateBasic(); err != nil {
		t.Errorf("all sentinel rejected: %v", err)
	}

	bad := valid
	bad.Assets = "half"
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for malformed amount")
	}
}

// TestMsgInitializePoolValidateBasic tests fee cap enforcement at the
// message boundary
func TestMsgInitializePoolValidateBasic(t *testing.T) {
	valid := MsgInitializePool{
		Creator:      testAddr("creator"),
		PoolID:       "vault-usdc",
		Asset:        "uusdc",
		Market:       "lend/uusdc",
		Name:         "USDC Vault",
		Symbol:       "vUSDC",
		StrategyID:   "lend",
		FeeCollector: testAddr("collector"),
		FeeRateBps:   2000,
	}
	if err := valid.ValidateBasic(); err != nil {
		t.Errorf("valid msg rejected: %v", err)
	}

	capped := valid
	capped.FeeRateBps = MaxPerformanceFeeBps
	if err := capped.ValidateBasic(); err != nil {
		t.Errorf("rate at cap rejected: %v", err)
	}

	over := valid
	over.FeeRateBps = MaxPerformanceFeeBps + 1
	if err := over.ValidateBasic(); err == nil {
		t.Error("expected error for rate above cap")
	}

	negative := valid
	negative.FeeRateBps = -1
	if err := negative.ValidateBasic(); err == nil {
		t.Error("expected error for negative rate")
	}
}

// TestMsgSigners tests that signers derive from the acting party
func TestMsgSigners(t *testing.T) {
	caller := testAddr("caller")
	msg := MsgRedeem{
		Caller:   caller,
		PoolID:   "vault-usdc",
		Shares:   "all",
		Receiver: testAddr("receiver"),
		Owner:    testAddr("owner"),
	}
	signers := msg.GetSigners()
	if len(signers) != 1 || signers[0].String() != caller {
		t.Errorf("expected caller as sole signer, got %v", signers)
	}
}

func TestMsgTransferAdminValidateBasic(t *testing.T) {
	admin := testAddr("admin")
	next := testAddr("next")

	ok := MsgTransferAdmin{Admin: admin, PoolID: "vault-usdc", NewAdmin: next}
	if err := ok.ValidateBasic(); err != nil {
		t.Errorf("valid msg rejected: %v", err)
	}
	bad := MsgTransferAdmin{Admin: admin, PoolID: "", NewAdmin: next}
	if err := bad.ValidateBasic(); err == nil {
		t.Error("empty pool id accepted")
	}
	bad = MsgTransferAdmin{Admin: admin, PoolID: "vault-usdc", NewAdmin: "not-bech32"}
	if err := bad.ValidateBasic(); err == nil {
		t.Error("malformed new admin accepted")
	}
}
