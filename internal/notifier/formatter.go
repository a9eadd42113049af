package notifier

import (
	"fmt"
	"html"
	"strings"

	"FXSentinel/internal/model"
)

// HelpText lists the supported bot commands.
const HelpText = "<b>FXSentinel</b>\n\n/signal - run an analysis now and show the recommendation\n/help - show this message"

func signalIcon(s model.Signal) string {
	switch s {
	case model.SignalBuy:
		return "🟢"
	case model.SignalSell:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatRecommendation formats an analysis into a Telegram HTML message.
func FormatRecommendation(a *model.Analysis) string {
	rec := a.Recommendation
	var b strings.Builder

	fmt.Fprintf(&b, "%s <b>%s %s</b> | %s\n\n", signalIcon(rec.Signal), html.EscapeString(a.Symbol),
		rec.Signal, a.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))

	if rec.Signal != model.SignalNone {
		fmt.Fprintf(&b, "Confidence: %.0f%%\n", rec.Confidence*100)
		fmt.Fprintf(&b, "Hold: %s\n", rec.TimeInterval)
	}
	fmt.Fprintf(&b, "Price: %.5f (%+.3f%%)\n\n", rec.CurrentPrice, rec.PriceChange)

	b.WriteString("📈 <b>Indicators:</b>\n")
	fmt.Fprintf(&b, "  RSI: %.2f\n", rec.RSI)
	if m := a.Indicators.MACD; m != nil {
		fmt.Fprintf(&b, "  MACD: %.5f / signal %.5f / hist %+.5f\n", m.Line, m.Signal, m.Histogram)
	}
	if bb := a.Indicators.Bollinger; bb != nil {
		fmt.Fprintf(&b, "  Bollinger: %.5f / %.5f / %.5f\n", bb.Lower, bb.Middle, bb.Upper)
	}
	fmt.Fprintf(&b, "\n<i>%s, %d %s points</i>", html.EscapeString(a.Provider), a.Points, a.Interval)
	return b.String()
}
