package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/travel-booking/internal/inventory"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// AvailabilityEntry is one requested override: the number of bookable
// rooms a room type should expose on a date.
type AvailabilityEntry struct {
	Date  time.Time `json:"date"`
	Value int       `json:"available_rooms"`
}

// AvailabilityResult reports one applied entry. When the cut forced
// cancellations, the stays sacrificed for it are listed.
type AvailabilityResult struct {
	Date          time.Time         `json:"date"`
	Value         int               `json:"available_rooms"`
	BookedCount   int               `json:"booked_count"`
	ForcedCancels []AffectedBooking `json:"forced_cancellations,omitempty"`
}

// SetAvailability applies availability overrides for a room type the
// caller owns, one date per transaction. An entry whose value leaves
// room for every active stay is applied directly. An entry below the
// booked count is a conflict: without force that date is skipped and
// the remaining entries are still processed, so one conflicting date
// never blocks the rest of the batch; the first conflict comes back
// as an AvailabilityConflictError alongside the results of every
// applied date. With force the conflicting date's bookings are
// cancelled, newest first, until the cut fits, and the override is
// then set to the exact requested value.
func (s *Service) SetAvailability(ctx context.Context, ownerID, roomTypeID uint64, entries []AvailabilityEntry, force bool) ([]AvailabilityResult, error) {
	if len(entries) == 0 {
		return nil, validationf("at least one availability entry is required")
	}
	actualOwner, err := s.roomTypes.OwnerOf(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	if actualOwner != ownerID {
		return nil, repository.ErrForbidden
	}

	results := make([]AvailabilityResult, 0, len(entries))
	var conflict *AvailabilityConflictError
	for _, e := range entries {
		if e.Value < 0 {
			return results, validationf("availability for %s cannot be negative", e.Date.Format("2006-01-02"))
		}
		res, err := s.applyAvailabilityEntry(ctx, roomTypeID, inventory.Day(e.Date), e.Value, force)
		if err != nil {
			var ce *AvailabilityConflictError
			if errors.As(err, &ce) {
				if conflict == nil {
					conflict = ce
				}
				continue
			}
			return results, err
		}
		results = append(results, *res)
	}
	if conflict != nil {
		return results, conflict
	}
	return results, nil
}

func (s *Service) applyAvailabilityEntry(ctx context.Context, roomTypeID uint64, date time.Time, value int, force bool) (*AvailabilityResult, error) {
	txh, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = txh.Rollback()
		}
	}()
	tx := txh.Raw()

	booked, err := s.ledger.BookedCount(ctx, tx, roomTypeID, date)
	if err != nil {
		return nil, err
	}

	var (
		cancelled []AffectedBooking
		events    []queue.BookingEvent
	)
	if booked > value {
		if !force {
			affected, err := s.conflictCandidates(ctx, tx, roomTypeID, date, booked-value)
			if err != nil {
				return nil, err
			}
			return nil, &AvailabilityConflictError{
				Date:             date,
				ExistingBookings: booked,
				Requested:        value,
				Deficit:          booked - value,
				Affected:         affected,
			}
		}
		cancelled, events, err = s.forceCancelTx(ctx, tx, roomTypeID, date, value)
		if err != nil {
			return nil, err
		}
		booked, err = s.ledger.BookedCount(ctx, tx, roomTypeID, date)
		if err != nil {
			return nil, err
		}
	}

	if err := s.ledger.ForceSet(ctx, tx, roomTypeID, date, value); err != nil {
		return nil, err
	}
	if err := txh.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if len(cancelled) > 0 {
		events = append(events, queue.BookingEvent{
			Type:    queue.EventAvailabilityReduced,
			Message: fmt.Sprintf("availability for room type %d on %s reduced to %d, %d booking(s) cancelled", roomTypeID, date.Format("2006-01-02"), value, len(cancelled)),
		})
	}
	s.flush(ctx, events)

	return &AvailabilityResult{
		Date:          date,
		Value:         value,
		BookedCount:   booked,
		ForcedCancels: cancelled,
	}, nil
}

// conflictCandidates previews which stays a forced cut would cancel.
func (s *Service) conflictCandidates(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time, deficit int) ([]AffectedBooking, error) {
	stays, err := s.bookings.ActiveStaysOnDateTx(ctx, tx, roomTypeID, date)
	if err != nil {
		return nil, err
	}
	return pickVictims(stays, deficit), nil
}

// pickVictims walks stays in cancellation priority order (the input
// comes newest booking first) and greedily selects until the selected
// rooms cover the deficit.
func pickVictims(stays []repository.StayWithBooking, deficit int) []AffectedBooking {
	affected := make([]AffectedBooking, 0)
	covered := 0
	for _, sb := range stays {
		if covered >= deficit {
			break
		}
		affected = append(affected, AffectedBooking{
			BookingID: sb.Stay.BookingID,
			StayID:    sb.Stay.ID,
			UserID:    sb.BookingUserID,
			NumRooms:  sb.Stay.NumRooms,
			CreatedAt: sb.BookingCreatedAt,
		})
		covered += sb.Stay.NumRooms
	}
	return affected
}

// forceCancelTx cancels whole bookings, newest first, until the date's
// booked count fits under the requested value. Cancelling a booking
// may free rooms on other dates too; that is accepted collateral of a
// forced cut.
func (s *Service) forceCancelTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time, value int) ([]AffectedBooking, []queue.BookingEvent, error) {
	var (
		cancelled []AffectedBooking
		events    []queue.BookingEvent
	)
	for {
		booked, err := s.ledger.BookedCount(ctx, tx, roomTypeID, date)
		if err != nil {
			return nil, nil, err
		}
		if booked <= value {
			return cancelled, events, nil
		}
		stays, err := s.bookings.ActiveStaysOnDateTx(ctx, tx, roomTypeID, date)
		if err != nil {
			return nil, nil, err
		}
		if len(stays) == 0 {
			// Booked count and active stays disagree; bail rather than
			// loop forever.
			return nil, nil, fmt.Errorf("no cancellable stays for room type %d on %s despite booked count %d", roomTypeID, date.Format("2006-01-02"), booked)
		}
		victim := stays[0]
		det, err := s.bookings.GetWithItemsTx(ctx, tx, victim.Stay.BookingID)
		if err != nil {
			return nil, nil, err
		}
		flightResults, evs, err := s.cancelBookingTx(ctx, tx, det, true)
		if err != nil {
			return nil, nil, err
		}
		for _, fr := range flightResults {
			if !fr.OK {
				log.Printf("availability: forced cancellation of booking %d left flight reference %s active: %s", det.Booking.ID, fr.BookingRef, fr.Error)
			}
		}
		events = append(events, evs...)
		cancelled = append(cancelled, AffectedBooking{
			BookingID: victim.Stay.BookingID,
			StayID:    victim.Stay.ID,
			UserID:    victim.BookingUserID,
			NumRooms:  victim.Stay.NumRooms,
			CreatedAt: victim.BookingCreatedAt,
		})
	}
}
