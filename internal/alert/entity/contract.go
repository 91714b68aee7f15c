package entity

import "time"

type ContractAnnouncement struct {
	ID              int64
	Version         int32
	Title           string
	Agency          string
	Category        string
	Location        string
	ProcurementType string
	EstimatedValue  *int64
	Deadline        *time.Time
	PublishedAt     time.Time
}

type UserPreferenceProfile struct {
	UserID          int64
	Industries      []string
	Locations       []string
	ContractTypes   []string
	MinValue        *int64
	MaxValue        *int64
	Frequency       Frequency
	EmailAlerts     bool
	ChatAlerts      bool
	Email           string
	ChatDestination string
}

// HasChannel reports whether the profile opted in to the given channel.
func (p UserPreferenceProfile) HasChannel(c Channel) bool {
	switch c {
	case ChannelEmail:
		return p.EmailAlerts
	case ChannelChat:
		return p.ChatAlerts
	default:
		return false
	}
}

type TrackedDeadline struct {
	ID         int64
	UserID     int64
	ContractID int64
	Deadline   time.Time
	Active     bool
}

// OutboundMessage is the channel-agnostic rendered notification.
type OutboundMessage struct {
	Destination string
	Subject     string
	TextBody    string
	HTMLBody    string
}

// SendReceipt is returned by a channel sender on successful delivery.
type SendReceipt struct {
	MessageID string
	SentAt    time.Time
}
