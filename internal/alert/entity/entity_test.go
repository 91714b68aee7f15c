package entity

import (
	"errors"
	"fmt"
	"testing"
)

func TestPermanent(t *testing.T) {
	t.Run("marks_and_detects", func(t *testing.T) {
		// Arrange
		base := errors.New("invalid email address")

		// Act
		err := Permanent(base)

		// Assert
		if !IsPermanent(err) {
			t.Fatalf("expected wrapped error to be permanent")
		}
		if !errors.Is(err, base) {
			t.Fatalf("expected wrapping to preserve the original error")
		}
		if err.Error() != base.Error() {
			t.Fatalf("expected message passthrough, got %q", err.Error())
		}
	})

	t.Run("survives_further_wrapping", func(t *testing.T) {
		// Arrange
		err := fmt.Errorf("send: %w", Permanent(errors.New("bad destination")))

		// Assert
		if !IsPermanent(err) {
			t.Fatalf("expected permanence to survive wrapping")
		}
	})

	t.Run("plain_errors_are_transient", func(t *testing.T) {
		if IsPermanent(errors.New("timeout")) {
			t.Fatalf("expected plain error to be transient")
		}
	})

	t.Run("nil_stays_nil", func(t *testing.T) {
		if Permanent(nil) != nil {
			t.Fatalf("expected nil to stay nil")
		}
	})
}

func TestJobStatusIsTerminal(t *testing.T) {
	cases := []struct {
		status JobStatus
		want   bool
	}{
		{status: JobStatusPending, want: false},
		{status: JobStatusProcessing, want: false},
		{status: JobStatusSent, want: true},
		{status: JobStatusFailed, want: true},
		{status: JobStatusCancelled, want: true},
	}

	for _, tc := range cases {
		if got := tc.status.IsTerminal(); got != tc.want {
			t.Fatalf("%s: expected terminal=%v, got %v", tc.status, tc.want, got)
		}
	}
}

func TestDeadlineReminderType(t *testing.T) {
	// Act
	got := DeadlineReminderType(7)

	// Assert
	if got != JobType("deadline_reminder_7") {
		t.Fatalf("expected deadline_reminder_7, got %s", got)
	}
}

func TestChannel(t *testing.T) {
	t.Run("round_trips_strings", func(t *testing.T) {
		for _, name := range []string{"email", "chat"} {
			if got := ChannelFromString(name).String(); got != name {
				t.Fatalf("expected %q to round trip, got %q", name, got)
			}
		}
	})

	t.Run("unknown_input", func(t *testing.T) {
		if ChannelFromString("carrier-pigeon") != ChannelUnknown {
			t.Fatalf("expected unknown channel")
		}
	})
}

func TestHasChannel(t *testing.T) {
	// Arrange
	profile := UserPreferenceProfile{EmailAlerts: true}

	// Assert
	if !profile.HasChannel(ChannelEmail) {
		t.Fatalf("expected email channel enabled")
	}
	if profile.HasChannel(ChannelChat) {
		t.Fatalf("expected chat channel disabled")
	}
	if profile.HasChannel(ChannelUnknown) {
		t.Fatalf("expected unknown channel disabled")
	}
}
