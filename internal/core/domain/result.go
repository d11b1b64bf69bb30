package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus is the derived engagement state of one (campaign, target)
// pair. Statuses form a strict total order and may only move forward:
//
//	pending < sent < opened < clicked < submitted
//
// submitted is terminal; no later event may change it.
type ResultStatus string

const (
	StatusPending   ResultStatus = "pending"
	StatusSent      ResultStatus = "sent"
	StatusOpened    ResultStatus = "opened"
	StatusClicked   ResultStatus = "clicked"
	StatusSubmitted ResultStatus = "submitted"
)

var statusRank = map[ResultStatus]int{
	StatusPending:   0,
	StatusSent:      1,
	StatusOpened:    2,
	StatusClicked:   3,
	StatusSubmitted: 4,
}

// Rank returns the position of the status in the engagement order. Unknown
// statuses rank below pending so they can never suppress a real transition.
func (s ResultStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Before reports whether s is strictly earlier than other in the
// engagement order.
func (s ResultStatus) Before(other ResultStatus) bool {
	return s.Rank() < other.Rank()
}

// CampaignResult is the per-(campaign, target) engagement record. Exactly
// one exists per pair; it is created on the first send attempt or on the
// first anonymous tracking hit, whichever arrives first. The four
// boolean/timestamp pairs are independent and, once set, never unset.
type CampaignResult struct {
	CampaignID     uuid.UUID
	TargetID       uuid.UUID
	OrganizationID uuid.UUID

	Sent        bool
	SentAt      *time.Time
	Opened      bool
	OpenedAt    *time.Time
	Clicked     bool
	ClickedAt   *time.Time
	Submitted   bool
	SubmittedAt *time.Time

	// SubmittedData is the captured form payload as JSON, already filtered
	// by the landing page's capture flags. Nil when nothing was captured.
	SubmittedData []byte

	Status    ResultStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
