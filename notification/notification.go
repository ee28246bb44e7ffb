// Package notification defines the operator-notification collaborator of
// spec.md §1/§7: where failed refunds, stuck payments, and other
// operator-actionable conditions are surfaced. The core only depends on
// the Notifier interface; delivery (email, webhook, Slack) is external.
package notification

import (
	logging "github.com/ipfs/go-log"

	"github.com/djkazic/boltz-backend/types"
)

var log = logging.Logger("notification")

// Severity classifies a notification for routing/filtering by the
// external delivery mechanism.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// Notifier receives operator-actionable events the nursery cannot resolve
// on its own (spec.md §4.1 "Failed refund. Logged and pushed to the
// notifier"; §7 "RefundFailure ... Log and notify").
type Notifier interface {
	Notify(severity Severity, swapID types.Hash, message string)
}

// LogNotifier is the default Notifier: it logs through the same
// structured logger every other component uses, with no external
// delivery. Production deployments wire a real Notifier (webhook, email)
// in front of or instead of this one.
type LogNotifier struct{}

var _ Notifier = LogNotifier{}

// Notify logs message at a level matching severity.
func (LogNotifier) Notify(severity Severity, swapID types.Hash, message string) {
	switch severity {
	case SeverityCritical:
		log.Errorf("swap %s: %s", swapID, message)
	case SeverityWarning:
		log.Warnf("swap %s: %s", swapID, message)
	default:
		log.Infof("swap %s: %s", swapID, message)
	}
}
