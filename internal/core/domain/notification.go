package domain

import "github.com/google/uuid"

// NotificationType identifies which engagement milestone a notification
// reports. Each type fires at most once per (campaign, target) pair.
type NotificationType string

const (
	NotifyEmailOpened       NotificationType = "email_opened"
	NotifyLinkClicked       NotificationType = "link_clicked"
	NotifyDataSubmitted     NotificationType = "data_submitted"
	NotifyCampaignCompleted NotificationType = "campaign_completed"
)

// Notification is the event emitted to the external notification sink.
// Delivery is best-effort; failures never surface to the operation that
// triggered the notification.
type Notification struct {
	UserID         uuid.UUID         `json:"userId"`
	OrganizationID uuid.UUID         `json:"organizationId"`
	Type           NotificationType  `json:"type"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Priority       string            `json:"priority"`
	ActionURL      string            `json:"actionUrl,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}
