package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// GetTxCmd returns the transaction commands for the vault module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "vault",
		Short:                      "Vault module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdInitializePool(),
		CmdDeposit(),
		CmdMint(),
		CmdWithdraw(),
		CmdRedeem(),
		CmdTransferShares(),
		CmdApproveShares(),
		CmdSetStrategy(),
		CmdSetFeeRate(),
		CmdSetFeeCollector(),
		CmdTransferAdmin(),
		CmdPause(),
		CmdUnpause(),
		CmdEmergencyWithdraw(),
	)

	return cmd
}

// CmdInitializePool returns the command to create a pool
func CmdInitializePool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-pool [pool-id] [asset] [market] [name] [symbol] [strategy-id] [fee-collector] [fee-rate-bps]",
		Short: "Initialize a new yield pool",
		Long: `Initialize a new yield pool for a principal asset.

Examples:
  yieldvaultd tx vault init-pool vault-usdc uusdc lend/uusdc "USDC Vault" vUSDC lending cosmos1collector... 2000 --from admin`,
		Args: cobra.ExactArgs(8),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			feeRateBps, err := strconv.ParseInt(args[7], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid fee rate: %v", err)
			}

			msg := &types.MsgInitializePool{
				Creator:      clientCtx.GetFromAddress().String(),
				PoolID:       args[0],
				Asset:        args[1],
				Market:       args[2],
				Name:         args[3],
				Symbol:       args[4],
				StrategyID:   args[5],
				FeeCollector: args[6],
				FeeRateBps:   feeRateBps,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdDeposit returns the command to deposit principal
func CmdDeposit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [pool-id] [assets] [receiver]",
		Short: "Deposit principal into a pool for shares",
		Long: `Deposit an exact amount of principal and receive pool shares.

Examples:
  yieldvaultd tx vault deposit vault-usdc 1000000 cosmos1receiver... --from alice`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgDeposit{
				Depositor: clientCtx.GetFromAddress().String(),
				PoolID:    args[0],
				Assets:    args[1],
				Receiver:  args[2],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdMint returns the command to mint an exact amount of shares
func CmdMint() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint [pool-id] [shares] [receiver]",
		Short: "Deposit whatever principal is needed to mint exact shares",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgMint{
				Depositor: clientCtx.GetFromAddress().String(),
				PoolID:    args[0],
				Shares:    args[1],
				Receiver:  args[2],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdWithdraw returns the command to withdraw principal
func CmdWithdraw() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw [pool-id] [assets] [receiver] [owner]",
		Short: "Withdraw principal by burning shares",
		Long: `Withdraw an exact amount of principal, burning as many shares as
needed. Pass "all" to exit the owner's full position.

Examples:
  yieldvaultd tx vault withdraw vault-usdc 500000 cosmos1receiver... cosmos1owner... --from alice
  yieldvaultd tx vault withdraw vault-usdc all cosmos1receiver... cosmos1owner... --from alice`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgWithdraw{
				Caller:   clientCtx.GetFromAddress().String(),
				PoolID:   args[0],
				Assets:   args[1],
				Receiver: args[2],
				Owner:    args[3],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdRedeem returns the command to redeem shares
func CmdRedeem() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redeem [pool-id] [shares] [receiver] [owner]",
		Short: "Redeem an exact amount of shares for principal",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgRedeem{
				Caller:   clientCtx.GetFromAddress().String(),
				PoolID:   args[0],
				Shares:   args[1],
				Receiver: args[2],
				Owner:    args[3],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdTransferShares returns the command to transfer shares
func CmdTransferShares() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer [pool-id] [to] [shares]",
		Short: "Transfer pool shares to another account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgTransferShares{
				From:   clientCtx.GetFromAddress().String(),
				PoolID: args[0],
				To:     args[1],
				Shares: args[2],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdApproveShares returns the command to set a share allowance
func CmdApproveShares() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve [pool-id] [spender] [shares]",
		Short: "Approve a spender to redeem shares on your behalf",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgApproveShares{
				Owner:   clientCtx.GetFromAddress().String(),
				PoolID:  args[0],
				Spender: args[1],
				Shares:  args[2],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetStrategy returns the command to migrate a pool's strategy
func CmdSetStrategy() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-strategy [pool-id] [strategy-id]",
		Short: "Migrate a pool to a different strategy adapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgSetStrategy{
				Admin:      clientCtx.GetFromAddress().String(),
				PoolID:     args[0],
				StrategyID: args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetFeeRate returns the command to change the performance fee rate
func CmdSetFeeRate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-fee-rate [pool-id] [fee-rate-bps]",
		Short: "Change a pool's performance fee rate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			feeRateBps, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid fee rate: %v", err)
			}

			msg := &types.MsgSetPerformanceFeeRate{
				Admin:      clientCtx.GetFromAddress().String(),
				PoolID:     args[0],
				FeeRateBps: feeRateBps,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetFeeCollector returns the command to change the fee collector
func CmdSetFeeCollector() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-fee-collector [pool-id] [collector]",
		Short: "Change the account that receives crystallized fee shares",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgSetFeeCollector{
				Admin:        clientCtx.GetFromAddress().String(),
				PoolID:       args[0],
				FeeCollector: args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdTransferAdmin returns the command to hand off the admin role
func CmdTransferAdmin() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer-admin [pool-id] [new-admin]",
		Short: "Transfer the pool admin role to a new address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgTransferAdmin{
				Admin:    clientCtx.GetFromAddress().String(),
				PoolID:   args[0],
				NewAdmin: args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdPause returns the command to pause a pool
func CmdPause() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pause [pool-id]",
		Short: "Pause deposits and withdrawals for a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgPause{
				Admin:  clientCtx.GetFromAddress().String(),
				PoolID: args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdUnpause returns the command to unpause a pool
func CmdUnpause() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpause [pool-id]",
		Short: "Resume deposits and withdrawals for a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgUnpause{
				Admin:  clientCtx.GetFromAddress().String(),
				PoolID: args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdEmergencyWithdraw returns the command to pull invested funds back
func CmdEmergencyWithdraw() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emergency-withdraw [pool-id] [amount]",
		Short: "Divest strategy funds back to pool custody and pause the pool",
		Long: `Divest invested funds back to pool custody and pause the pool.
Pass "all" to recall the entire invested position.

Examples:
  yieldvaultd tx vault emergency-withdraw vault-usdc all --from admin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgEmergencyWithdraw{
				Admin:  clientCtx.GetFromAddress().String(),
				PoolID: args[0],
				Amount: args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
