package booking

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/iliyamo/travel-booking/internal/inventory"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// FlightCancelResult records the outcome of one remote cancellation
// attempt. A failed attempt never aborts the local cancellation; the
// guest keeps the reference and can retry against the airline.
type FlightCancelResult struct {
	BookingRef string `json:"booking_reference"`
	OK         bool   `json:"cancelled"`
	Error      string `json:"error,omitempty"`
}

// CancelResult is a completed cancellation: the booking's final state
// plus the per-reference flight outcomes.
type CancelResult struct {
	Booking *repository.BookingDetail `json:"booking"`
	Flights []FlightCancelResult      `json:"flight_cancellations"`
}

// Cancel cancels a guest's own booking: releases the hotel inventory
// of every active stay, attempts to cancel each distinct flight
// reference, and moves the booking to cancelled. A booking belonging
// to another user reads as not found.
func (s *Service) Cancel(ctx context.Context, bookingID, userID uint64) (*CancelResult, error) {
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

	det, err := s.bookings.GetWithItemsTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if det.Booking.UserID != userID {
		return nil, repository.ErrBookingNotFound
	}
	flightResults, events, err := s.cancelBookingTx(ctx, tx, det, true)
	if err != nil {
		return nil, err
	}
	if err := txh.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.flush(ctx, events)
	return &CancelResult{Booking: det, Flights: flightResults}, nil
}

// cancelBookingTx performs the full cancellation of a locked booking
// inside the caller's transaction. The mutated detail reflects the
// final state; returned events are flushed by the caller after commit.
// Shared by guest cancellation, forced availability reduction and the
// owner-stay cascade; the cascade passes cancelRemote=false because a
// hotel-side stay cancellation must not touch the guest's flights.
func (s *Service) cancelBookingTx(ctx context.Context, tx *sql.Tx, det *repository.BookingDetail, cancelRemote bool) ([]FlightCancelResult, []queue.BookingEvent, error) {
	switch det.Booking.Status {
	case model.BookingStatusPending, model.BookingStatusConfirmed:
	default:
		return nil, nil, &InvalidStateTransitionError{BookingID: det.Booking.ID, Status: det.Booking.Status}
	}

	ownerIDs := make(map[uint64]struct{})
	for i := range det.Stays {
		st := &det.Stays[i]
		if st.Status != model.StayStatusConfirmed {
			continue
		}
		if err := s.releaseStayTx(ctx, tx, st); err != nil {
			return nil, nil, err
		}
		if err := s.bookings.UpdateStayStatusTx(ctx, tx, st.ID, model.StayStatusCancelled); err != nil {
			return nil, nil, err
		}
		st.Status = model.StayStatusCancelled
		hotel, err := s.hotels.GetByID(ctx, st.HotelID)
		if err != nil {
			return nil, nil, err
		}
		ownerIDs[hotel.OwnerID] = struct{}{}
	}

	var flightResults []FlightCancelResult
	if cancelRemote {
		flightResults = s.cancelFlights(ctx, det)
	}

	if err := s.bookings.UpdateStatusTx(ctx, tx, det.Booking.ID, model.BookingStatusCancelled); err != nil {
		return nil, nil, err
	}
	det.Booking.Status = model.BookingStatusCancelled

	if err := s.notifications.CreateTx(ctx, tx, &model.Notification{
		UserID:    det.Booking.UserID,
		Type:      model.NotificationBookingCancelled,
		Message:   fmt.Sprintf("Your booking #%d has been cancelled.", det.Booking.ID),
		BookingID: &det.Booking.ID,
	}); err != nil {
		return nil, nil, err
	}
	for ownerID := range ownerIDs {
		if err := s.notifications.CreateTx(ctx, tx, &model.Notification{
			UserID:    ownerID,
			Type:      model.NotificationBookingCancelled,
			Message:   fmt.Sprintf("Reservation cancelled: booking #%d.", det.Booking.ID),
			BookingID: &det.Booking.ID,
		}); err != nil {
			return nil, nil, err
		}
	}

	events := []queue.BookingEvent{{
		Type:            queue.EventBookingCancelled,
		BookingID:       det.Booking.ID,
		UserID:          det.Booking.UserID,
		Message:         "booking cancelled",
		TotalPriceCents: det.Booking.TotalPriceCents,
	}}
	return flightResults, events, nil
}

// cancelFlights attempts every distinct flight reference of a booking
// once. Remote failures are recorded in the result and logged, never
// propagated.
func (s *Service) cancelFlights(ctx context.Context, det *repository.BookingDetail) []FlightCancelResult {
	refs := repository.DistinctFlightRefs(det.Flights)
	if len(refs) == 0 {
		return nil
	}
	lastName := ""
	if guest, err := s.users.GetByID(ctx, det.Booking.UserID); err == nil {
		lastName = guest.LastName
	} else {
		log.Printf("cancel: loading guest %d for flight cancellation: %v", det.Booking.UserID, err)
	}
	out := make([]FlightCancelResult, 0, len(refs))
	for _, ref := range refs {
		res := FlightCancelResult{BookingRef: ref, OK: true}
		if err := s.gateway.Cancel(ctx, lastName, ref); err != nil {
			res.OK = false
			res.Error = err.Error()
			log.Printf("cancel: flight reference %s for booking %d not cancelled remotely: %v", ref, det.Booking.ID, err)
		}
		out = append(out, res)
	}
	return out
}

func (s *Service) releaseStayTx(ctx context.Context, tx *sql.Tx, st *model.HotelStay) error {
	rt, err := s.roomTypes.GetByIDTx(ctx, tx, st.RoomTypeID)
	if err != nil {
		return err
	}
	r, err := inventory.NewDateRange(st.CheckIn, st.CheckOut)
	if err != nil {
		return err
	}
	return s.ledger.Release(ctx, tx, rt, r, st.NumRooms)
}

// CancelStay lets a hotel owner cancel a single stay at their own
// hotel. The stay's inventory is released and the guest notified; when
// it was the booking's last active stay the parent booking cascades to
// cancelled. The cascade never reaches out to the flight gateway: the
// guest keeps any flight reservations and cancels them on their own
// terms.
func (s *Service) CancelStay(ctx context.Context, stayID, ownerID uint64) (*CancelResult, error) {
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

	st, err := s.bookings.GetStayTx(ctx, tx, stayID)
	if err != nil {
		return nil, err
	}
	hotel, err := s.hotels.GetByID(ctx, st.HotelID)
	if err != nil {
		return nil, err
	}
	if hotel.OwnerID != ownerID {
		return nil, repository.ErrForbidden
	}
	det, err := s.bookings.GetWithItemsTx(ctx, tx, st.BookingID)
	if err != nil {
		return nil, err
	}
	if st.Status != model.StayStatusConfirmed {
		return nil, &InvalidStateTransitionError{BookingID: st.BookingID, Status: st.Status}
	}

	if err := s.releaseStayTx(ctx, tx, st); err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateStayStatusTx(ctx, tx, st.ID, model.StayStatusCancelled); err != nil {
		return nil, err
	}
	for i := range det.Stays {
		if det.Stays[i].ID == st.ID {
			det.Stays[i].Status = model.StayStatusCancelled
		}
	}

	if err := s.notifications.CreateTx(ctx, tx, &model.Notification{
		UserID:    det.Booking.UserID,
		Type:      model.NotificationBookingCancelled,
		Message:   fmt.Sprintf("Your stay at %s (booking #%d) was cancelled by the hotel.", hotel.Name, det.Booking.ID),
		BookingID: &det.Booking.ID,
	}); err != nil {
		return nil, err
	}

	var (
		flightResults []FlightCancelResult
		events        []queue.BookingEvent
	)
	remaining, err := s.bookings.ActiveStayCountTx(ctx, tx, det.Booking.ID)
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		// Last stay gone: the rest of the booking has nothing to stand
		// on, so the parent cancels too.
		flightResults, events, err = s.cancelBookingTx(ctx, tx, det, false)
		if err != nil {
			return nil, err
		}
	} else {
		events = []queue.BookingEvent{{
			Type:      queue.EventStayCancelled,
			BookingID: det.Booking.ID,
			UserID:    det.Booking.UserID,
			Message:   fmt.Sprintf("stay %d cancelled by hotel owner", st.ID),
		}}
	}

	if err := txh.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.flush(ctx, events)
	return &CancelResult{Booking: det, Flights: flightResults}, nil
}
