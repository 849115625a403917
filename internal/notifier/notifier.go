// Package notifier pushes repair and generation outcomes to an external
// notification service. The target is a single shoutrrr URL (Discord,
// Telegram, ntfy, generic webhook, ...) stored in settings; no URL means
// notifications are disabled.
package notifier

import (
	"fmt"

	"github.com/containrrr/shoutrrr"

	"github.com/maszaen/reelhouse/internal/domain"
	"github.com/maszaen/reelhouse/internal/eventbus"
	"github.com/maszaen/reelhouse/internal/logger"
)

// URLProvider supplies the current notification URL. Implemented by the
// settings service so URL changes take effect without a restart.
type URLProvider interface {
	Get(key string) (string, error)
}

// SettingNotifyURL mirrors the settings key holding the shoutrrr URL.
const SettingNotifyURL = "notify_url"

// NotifierService listens for noteworthy events and forwards them.
type NotifierService struct {
	eventBus eventbus.Publisher
	urls     URLProvider
}

// NewNotifierService creates a NotifierService.
func NewNotifierService(eb eventbus.Publisher, urls URLProvider) *NotifierService {
	return &NotifierService{eventBus: eb, urls: urls}
}

// Start subscribes to the events worth notifying about.
func (n *NotifierService) Start() {
	n.eventBus.Subscribe(domain.RepairCompleted, n.handleRepairCompleted)
	n.eventBus.Subscribe(domain.RepairFailed, n.handleRepairFailed)
	n.eventBus.Subscribe(domain.GenerationCompleted, n.handleGenerationCompleted)

	logger.Infof("Notifier service started")
}

func (n *NotifierService) handleRepairCompleted(event domain.Event) {
	n.send(fmt.Sprintf("Repair (%s) finished: %s",
		event.GetStringOr("mode", "?"),
		event.GetStringOr("final_path", event.GetStringOr("video_path", "?"))))
}

func (n *NotifierService) handleRepairFailed(event domain.Event) {
	n.send(fmt.Sprintf("Repair (%s) of %s FAILED during %s: %s",
		event.GetStringOr("mode", "?"),
		event.GetStringOr("video_path", "?"),
		event.GetStringOr("stage", "?"),
		event.GetStringOr("error", "unknown error")))
}

func (n *NotifierService) handleGenerationCompleted(event domain.Event) {
	total, _ := event.GetInt("total")
	if total == 0 {
		return // nothing was queued, not worth a push
	}
	failures, _ := event.GetInt("failures")
	msg := fmt.Sprintf("Asset generation finished: %d items", total)
	if failures > 0 {
		msg = fmt.Sprintf("%s, %d failed", msg, failures)
	}
	n.send(msg)
}

// send delivers the message and publishes the delivery outcome. A missing
// URL silently disables notifications.
func (n *NotifierService) send(message string) {
	url, err := n.urls.Get(SettingNotifyURL)
	if err != nil {
		logger.Errorf("Notifier: failed to read notification URL: %v", err)
		return
	}
	if url == "" {
		return
	}

	if err := shoutrrr.Send(url, message); err != nil {
		logger.Errorf("Notifier: delivery failed: %v", err)
		n.publishOutcome(domain.NotificationFailed, message, err.Error())
		return
	}

	logger.Debugf("Notifier: sent %q", message)
	n.publishOutcome(domain.NotificationSent, message, "")
}

func (n *NotifierService) publishOutcome(eventType domain.EventType, message, errMsg string) {
	data := map[string]interface{}{"message": message}
	if errMsg != "" {
		data["error"] = errMsg
	}
	err := n.eventBus.Publish(domain.Event{
		AggregateType: "notification",
		AggregateID:   "notifier",
		EventType:     eventType,
		EventData:     data,
	})
	if err != nil {
		logger.Errorf("Failed to publish notification outcome: %v", err)
	}
}
