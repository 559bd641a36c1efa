package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fx-monitor/internal/alerting"
	"fx-monitor/internal/analytics"
)

// SimulateAlert 发送一条模拟的汇率异动告警，用于验证告警通道。
func (a *App) SimulateAlert(ctx context.Context, pairKey string, latest, changePct decimal.Decimal) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	pair, ok := a.Config.FindPair(pairKey)
	if !ok {
		return errors.New("未知货币对: " + pairKey)
	}

	return notifier.Notify(ctx, alerting.Notification{
		Pair:          pair.Pair,
		Date:          time.Now().UTC().Format(analytics.DateLayout),
		Kind:          alerting.KindMove,
		Latest:        latest,
		ChangePct:     changePct,
		ThresholdPct:  decimal.NewFromFloat(a.Config.Alerting.MoveThresholdPct),
		Regime:        string(analytics.RegimeNormal),
		Channels:      a.Config.Alerting.Channels,
		AdditionalMsg: "模拟告警",
	})
}
