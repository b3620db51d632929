package schedule

import (
	"context"
	"fmt"
	"time"
)

var reminderIntervals = []struct {
	Label string
	Mins  int
}{
	{"15 minutes", 15},
	{"1 hour", 60},
	{"5 hours", 300},
	{"1 day", 1440},
}

// SendReminders finds BOOKED slots roughly 15m, 1h, 5h and 1d ahead (a ±5
// minute window per interval) and sends each patient a reminder. Called
// periodically by the reminder worker; a slot can match the same window on
// consecutive runs, the message is cheap and harmless to repeat.
func (s *Service) SendReminders(ctx context.Context, now time.Time) (int, error) {
	sent := 0

	for _, interval := range reminderIntervals {
		from := now.Add(time.Duration(interval.Mins-5) * time.Minute)
		to := now.Add(time.Duration(interval.Mins+5) * time.Minute)

		details, err := s.repo.FindBookedSlotsBetween(ctx, from, to)
		if err != nil {
			return sent, fmt.Errorf("find slots %s ahead: %w", interval.Label, err)
		}

		for _, det := range details {
			if det.Patient == nil || det.Patient.Mobile == "" {
				continue
			}

			msg := fmt.Sprintf(
				"Reminder: You have an appointment with %s at %s in %s.",
				det.DoctorName,
				det.CenterName,
				interval.Label,
			)

			if err := s.notifier.SendSMS(ctx, det.Patient.Mobile, msg); err != nil {
				s.log.Error().Err(err).Str("mobile", det.Patient.Mobile).Msg("send reminder")
				continue
			}
			sent++
		}
	}

	return sent, nil
}
