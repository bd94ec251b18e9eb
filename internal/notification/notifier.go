// Package notification delivers generated signals and guardrail alerts to
// external channels (Telegram, webhooks) and to the process log.
package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"signal-enginev1/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel    `json:"level"`
	Title   string        `json:"title"`
	Message string        `json:"message"`
	Signal  *model.Signal `json:"signal,omitempty"` // set for signal alerts
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts to the standard logger (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Fanout sends every alert to all configured backends. Delivery failures are
// collected; one broken channel never blocks the others.
type Fanout struct {
	notifiers []Notifier
}

// NewFanout creates a fanout over the given backends.
func NewFanout(notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

func (f *Fanout) Send(ctx context.Context, alert Alert) error {
	var errs []string
	for _, n := range f.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SignalAlert formats a validated signal into an alert. Risk warnings on the
// signal raise the level to WARNING.
func SignalAlert(sig *model.Signal) Alert {
	level := AlertInfo
	if len(sig.Alerts) > 0 {
		level = AlertWarning
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s @ %.6g\n", strings.ToUpper(string(sig.Direction)), sig.Symbol, sig.Entry)
	fmt.Fprintf(&b, "SL %.6g | TP %.6g | RR %.2f\n", sig.StopLoss, sig.TakeProfit, sig.RiskReward)
	fmt.Fprintf(&b, "Size %.6g @ %gx | Confluence %.0f\n", sig.PositionSize, sig.Leverage, sig.ConfluenceScore)
	fmt.Fprintf(&b, "Valid until %s", sig.ValidUntil.UTC().Format("15:04:05 MST"))
	for _, w := range sig.Alerts {
		fmt.Fprintf(&b, "\n⚠ %s", w)
	}

	return Alert{
		Level:   level,
		Title:   fmt.Sprintf("Signal: %s %s (%s)", sig.Symbol, sig.Direction, sig.Timeframe),
		Message: b.String(),
		Signal:  sig,
	}
}

// GuardrailAlert formats a filtered outcome (loss streak, drawdown) as a
// critical alert.
func GuardrailAlert(out model.Outcome) Alert {
	return Alert{
		Level:   AlertCritical,
		Title:   fmt.Sprintf("Guardrail: %s", out.Symbol),
		Message: out.Reason,
	}
}
