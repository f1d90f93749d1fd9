package events

import "github.com/rs/zerolog"

// SubscribeLogger attaches a logging consumer for every scheduling event
// type. Freed waiting-list slots are the operator-facing signal (the
// front desk calls those customers), so they log at info; the rest trace
// at debug.
func SubscribeLogger(bus *EventBus, logger *zerolog.Logger) {
	handler := func(event Event) error {
		lvl := zerolog.DebugLevel
		if event.Type == WaitlistSlotFreed {
			lvl = zerolog.InfoLevel
		}
		logger.WithLevel(lvl).
			Str("event", event.Type).
			RawJSON("payload", event.Payload).
			Msg("scheduling event")
		return nil
	}

	for _, eventType := range []string{
		BookingSaved,
		BookingCancelled,
		BookingDeleted,
		BlockedPeriodCreated,
		WaitlistSlotFreed,
	} {
		bus.Subscribe(eventType, handler)
	}
}
