package schedule

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("invalid time range for given duration")

// GeneratedSlot is one (slotNumber, timestamp) pair produced by GenerateSlots.
type GeneratedSlot struct {
	SlotNumber int
	Time       time.Time
}

// GenerateSlots turns a working block into discrete bookable slots. Slots are
// numbered from 1 in chronological order and spaced duration+buffer minutes
// apart starting at start. A trailing interval too short for a full
// duration+buffer unit is dropped (floor truncation).
func GenerateSlots(start, end time.Time, slotDurationMin, bufferMin int) ([]GeneratedSlot, error) {
	perSlot := time.Duration(slotDurationMin+bufferMin) * time.Minute
	if perSlot <= 0 {
		return nil, ErrInvalidRange
	}

	total := int(end.Sub(start) / perSlot)
	if total <= 0 {
		return nil, ErrInvalidRange
	}

	slots := make([]GeneratedSlot, total)
	for i := 0; i < total; i++ {
		slots[i] = GeneratedSlot{
			SlotNumber: i + 1,
			Time:       start.Add(time.Duration(i) * perSlot),
		}
	}

	return slots, nil
}
