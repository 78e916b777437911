package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/yieldvault/x/vault/types"
)

// FeePreview is a CLI-friendly crystallization preview
type FeePreview struct {
	RatioBefore string `json:"ratio_before"`
	RatioAfter  string `json:"ratio_after"`
	RatioDelta  string `json:"ratio_delta"`
	FeeShares   string `json:"fee_shares"`
	NewMark     string `json:"new_mark"`
	Charged     bool   `json:"charged"`
}

// GetQueryCmd returns the cli query commands for the vault module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "vault",
		Short:                      "Querying commands for the vault module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPool(),
		CmdQueryPools(),
		CmdQueryRatio(),
		CmdQueryShareBalance(),
		CmdPreviewFee(),
	)

	return cmd
}

// CmdQueryPool returns the command to query a pool
func CmdQueryPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool [pool-id]",
		Short: "Query pool state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Pool query requires running node connection")
			fmt.Printf("Use REST API: GET /vault/pools/%s\n", args[0])
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPools returns the command to query all pools
func CmdQueryPools() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Query all pools",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Pool listing requires running node connection")
			fmt.Println("Use REST API: GET /vault/pools")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryRatio returns the command to query the assets-per-share ratio
func CmdQueryRatio() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratio [pool-id]",
		Short: "Query a pool's assets-per-share ratio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Ratio query requires running node connection")
			fmt.Printf("Use REST API: GET /vault/pools/%s/ratio\n", args[0])
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryShareBalance returns the command to query a share balance
func CmdQueryShareBalance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [pool-id] [address]",
		Short: "Query an account's share balance in a pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Balance query requires running node connection")
			fmt.Printf("Use REST API: GET /vault/pools/%s/balances/%s\n", args[0], args[1])
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdPreviewFee returns the command to preview a fee crystallization
// from raw pool figures, without a node connection.
func CmdPreviewFee() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview-fee [total-shares] [total-assets] [high-water-mark] [fee-rate-bps]",
		Short: "Compute the fee shares a crystallization would mint",
		Long: `Compute the fee shares a crystallization would mint given the pool's
current supply, total assets, high-water mark and fee rate. Runs locally.

Examples:
  yieldvaultd query vault preview-fee 1000 1100 1000000000000000000 2000`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			supply, ok := math.NewIntFromString(args[0])
			if !ok {
				return fmt.Errorf("invalid total shares: %s", args[0])
			}
			assets, ok := math.NewIntFromString(args[1])
			if !ok {
				return fmt.Errorf("invalid total assets: %s", args[1])
			}
			mark, ok := math.NewIntFromString(args[2])
			if !ok {
				return fmt.Errorf("invalid high-water mark: %s", args[2])
			}
			feeBps, err := strconv.ParseInt(args[3], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid fee rate: %v", err)
			}

			c := types.CrystallizeFee(supply, assets, feeBps, mark)
			preview := FeePreview{
				RatioBefore: c.P0.String(),
				RatioAfter:  c.P1.String(),
				RatioDelta:  c.DeltaP.String(),
				FeeShares:   c.FeeShares.String(),
				NewMark:     c.NewMark.String(),
				Charged:     c.Charged(),
			}

			output, _ := json.MarshalIndent(preview, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
