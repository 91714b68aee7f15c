package entity

import (
	"fmt"
	"strings"
)

type Channel int16

const (
	ChannelUnknown Channel = 0
	ChannelEmail   Channel = 1
	ChannelChat    Channel = 2
)

func ChannelFromString(raw string) Channel {
	switch strings.TrimSpace(raw) {
	case "email":
		return ChannelEmail
	case "chat":
		return ChannelChat
	default:
		return ChannelUnknown
	}
}

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Frequency controls when contract match notifications become due: real-time
// profiles are notified as matches happen, daily-digest profiles collect
// their matches until the next digest send hour.
type Frequency string

const (
	FrequencyRealTime    Frequency = "real-time"
	FrequencyDailyDigest Frequency = "daily-digest"
)

// FrequencyFromString defaults unknown or blank values to real-time.
func FrequencyFromString(raw string) Frequency {
	if strings.TrimSpace(raw) == string(FrequencyDailyDigest) {
		return FrequencyDailyDigest
	}
	return FrequencyRealTime
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusSent       JobStatus = "sent"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status can no longer change on its own.
// Terminal jobs only move again through an explicit admin retry.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSent || s == JobStatusFailed || s == JobStatusCancelled
}

type JobType string

const (
	JobTypeContractMatch    JobType = "contract_match"
	JobTypeDeadlineReminder JobType = "deadline_reminder"
)

func (t JobType) String() string {
	return string(t)
}

// DeadlineReminderType returns the job type used for a reminder at the given
// day offset, e.g. "deadline_reminder_7". The offset is part of the dedup key
// so each offset fires at most once per tracked contract.
func DeadlineReminderType(daysLeft int) JobType {
	return JobType(fmt.Sprintf("%s_%d", JobTypeDeadlineReminder, daysLeft))
}
