package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulatePair   string
	simulateLatest float64
	simulateChange float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次汇率异动并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateLatest <= 0 {
			return errors.New("--latest 必须大于 0")
		}

		latest := decimal.NewFromFloat(simulateLatest)
		change := decimal.NewFromFloat(simulateChange)
		return getApp().SimulateAlert(cmd.Context(), simulatePair, latest, change)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePair, "pair", "EUR/USD", "货币对")
	simulateCmd.Flags().Float64Var(&simulateLatest, "latest", 0, "最新汇率")
	simulateCmd.Flags().Float64Var(&simulateChange, "change", 1.5, "日涨跌幅（%）")
}
