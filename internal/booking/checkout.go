package booking

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/iliyamo/travel-booking/internal/flightgw"
	"github.com/iliyamo/travel-booking/internal/inventory"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// StayRequest is one hotel stay in a checkout cart.
type StayRequest struct {
	HotelID    uint64    `json:"hotel_id"`
	RoomTypeID uint64    `json:"room_type_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	NumRooms   int       `json:"num_rooms"`
}

// FlightRequest is one requested itinerary. Its ids may be composite
// legacy identifiers; they are flattened at the gateway boundary.
type FlightRequest struct {
	FlightIDs []string `json:"flight_ids"`
}

// PaymentInfo is the card descriptor presented at checkout. Only the
// detected brand and last four digits survive validation.
type PaymentInfo struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
}

// CheckoutInput is everything a checkout needs.
type CheckoutInput struct {
	UserID     uint64
	Payment    PaymentInfo
	Stays      []StayRequest
	Flights    []FlightRequest
	Passengers int // travellers per flight item, defaults to 1
}

// Checkout reserves hotel inventory, books flights and persists the
// booking aggregate, all-or-nothing. Hotel reservations and local
// writes share one transaction; a flight-gateway failure after
// inventory was reserved rolls the whole transaction back, which is
// the compensating release. The rollback is logged but never masks
// the gateway error returned to the caller.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (*repository.BookingDetail, error) {
	if len(in.Stays) == 0 && len(in.Flights) == 0 {
		return nil, validationf("booking must contain at least one hotel stay or flight")
	}
	brand, last4, err := s.cards.Detect(in.Payment.CardNumber)
	if err != nil {
		return nil, err
	}
	if in.Passengers < 1 {
		in.Passengers = 1
	}

	// Validate stay shapes before touching any state.
	ranges := make([]inventory.DateRange, len(in.Stays))
	for i, req := range in.Stays {
		if req.NumRooms < 1 {
			return nil, validationf("stay %d: number of rooms must be at least 1", i)
		}
		r, err := inventory.NewDateRange(req.CheckIn, req.CheckOut)
		if err != nil {
			return nil, validationf("stay %d: %v", i, err)
		}
		ranges[i] = r
	}

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

	var (
		stays      []model.HotelStay
		total      uint64
		ownerIDs   = make(map[uint64]struct{})
		reservedAt []string // "roomType@range" labels for compensation logging
	)
	for i, req := range in.Stays {
		rt, err := s.roomTypes.GetByIDTx(ctx, tx, req.RoomTypeID)
		if err != nil {
			return nil, err
		}
		if rt.HotelID != req.HotelID {
			return nil, repository.ErrRoomTypeNotFound
		}
		hotel, err := s.hotels.GetByID(ctx, req.HotelID)
		if err != nil {
			return nil, err
		}
		ownerIDs[hotel.OwnerID] = struct{}{}
		if err := s.ledger.Reserve(ctx, tx, rt, ranges[i], req.NumRooms); err != nil {
			return nil, err
		}
		reservedAt = append(reservedAt, fmt.Sprintf("room_type=%d %s..%s x%d",
			rt.ID, ranges[i].CheckIn.Format("2006-01-02"), ranges[i].CheckOut.Format("2006-01-02"), req.NumRooms))
		price := uint64(rt.PricePerNightCents) * uint64(ranges[i].Nights()) * uint64(req.NumRooms)
		total += price
		stays = append(stays, model.HotelStay{
			HotelID:    req.HotelID,
			RoomTypeID: req.RoomTypeID,
			CheckIn:    ranges[i].CheckIn,
			CheckOut:   ranges[i].CheckOut,
			NumRooms:   req.NumRooms,
			PriceCents: price,
			Status:     model.StayStatusConfirmed,
		})
	}

	var flights []model.FlightItem
	if len(in.Flights) > 0 {
		user, err := s.users.GetByID(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		var rawIDs []string
		for _, f := range in.Flights {
			rawIDs = append(rawIDs, f.FlightIDs...)
		}
		flightIDs := flightgw.FlattenIDs(rawIDs)
		if len(flightIDs) == 0 {
			return nil, validationf("flight request contains no usable flight ids")
		}
		// Logged before the remote call: if the process dies between
		// remote success and local commit, this line is what lets an
		// operator reconcile the orphaned remote reservation.
		log.Printf("checkout: booking %d flight segment(s) for user %d: %v", len(flightIDs), in.UserID, flightIDs)
		res, err := s.gateway.Book(ctx, flightgw.Traveler{
			Email:      user.Email,
			FirstName:  user.FirstName,
			LastName:   user.LastName,
			PassportNo: user.PassportNo,
		}, flightIDs)
		if err != nil {
			if len(reservedAt) > 0 {
				log.Printf("checkout: flight gateway failed, releasing hotel reservations: %v", reservedAt)
			}
			return nil, err
		}
		for _, seg := range res.Segments {
			cents := uint64(math.Round(seg.Price*100)) * uint64(in.Passengers)
			total += cents
			flights = append(flights, model.FlightItem{
				SegmentIDs:    seg.ID,
				BookingRef:    res.BookingRef,
				TicketNumber:  res.TicketNumber,
				DepartAirport: seg.OriginCode,
				ArriveAirport: seg.DestCode,
				DepartAt:      seg.DepartureTime,
				ArriveAt:      seg.ArrivalTime,
				Passengers:    in.Passengers,
				PriceCents:    cents,
			})
		}
	}

	b := &model.Booking{
		UserID:          in.UserID,
		Status:          model.BookingStatusConfirmed,
		TotalPriceCents: total,
		CardBrand:       brand,
		CardLast4:       last4,
		CardExpiry:      in.Payment.Expiry,
	}
	if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}
	for i := range stays {
		stays[i].BookingID = b.ID
	}
	for i := range flights {
		flights[i].BookingID = b.ID
	}
	if err := s.bookings.CreateStaysBulkTx(ctx, tx, stays); err != nil {
		return nil, err
	}
	if err := s.bookings.CreateFlightItemsBulkTx(ctx, tx, flights); err != nil {
		return nil, err
	}

	if err := s.notifications.CreateTx(ctx, tx, &model.Notification{
		UserID:    in.UserID,
		Type:      model.NotificationBookingConfirmed,
		Message:   fmt.Sprintf("Your booking #%d is confirmed.", b.ID),
		BookingID: &b.ID,
	}); err != nil {
		return nil, err
	}
	for ownerID := range ownerIDs {
		if err := s.notifications.CreateTx(ctx, tx, &model.Notification{
			UserID:    ownerID,
			Type:      model.NotificationNewReservation,
			Message:   fmt.Sprintf("New reservation: booking #%d.", b.ID),
			BookingID: &b.ID,
		}); err != nil {
			return nil, err
		}
	}

	if err := txh.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s.flush(ctx, []queue.BookingEvent{{
		Type:            queue.EventBookingConfirmed,
		BookingID:       b.ID,
		UserID:          in.UserID,
		Message:         "booking confirmed",
		TotalPriceCents: total,
	}})

	detail := &repository.BookingDetail{Booking: *b, Stays: stays, Flights: flights}
	ref, err := s.invoices.Generate(ctx, detail)
	if err != nil {
		// The booking stands; the invoice can be re-derived later.
		log.Printf("checkout: invoice generation for booking %d failed: %v", b.ID, err)
		return detail, nil
	}
	if err := s.bookings.SetInvoiceRef(ctx, b.ID, ref); err != nil {
		log.Printf("checkout: storing invoice ref for booking %d failed: %v", b.ID, err)
		return detail, nil
	}
	detail.Booking.InvoiceRef = &ref
	return detail, nil
}
