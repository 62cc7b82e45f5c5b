package booking

import (
	"context"
	"log"

	"github.com/iliyamo/travel-booking/internal/flightgw"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// VerifyResult is the airline's current view of a flight reference.
// Verification is advisory: when the gateway cannot answer, the
// result is marked unavailable instead of failing the request.
type VerifyResult struct {
	Snapshot    *flightgw.Snapshot
	Unavailable bool
	Reason      string
}

// VerifyFlight fetches the remote state of a flight reference on one
// of the caller's own bookings. A reference that does not appear on
// any of the user's bookings reads as not found, so references cannot
// be looked up across accounts.
func (s *Service) VerifyFlight(ctx context.Context, userID uint64, bookingRef string) (*VerifyResult, error) {
	if bookingRef == "" {
		return nil, validationf("booking reference is required")
	}
	owned, err := s.userHoldsRef(ctx, userID, bookingRef)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, repository.ErrBookingNotFound
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap, err := s.gateway.Verify(ctx, bookingRef, user.LastName)
	if err != nil {
		log.Printf("verify: reference %s unavailable: %v", bookingRef, err)
		return &VerifyResult{Unavailable: true, Reason: err.Error()}, nil
	}
	return &VerifyResult{Snapshot: snap}, nil
}

func (s *Service) userHoldsRef(ctx context.Context, userID uint64, ref string) (bool, error) {
	details, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, det := range details {
		for _, f := range det.Flights {
			if f.BookingRef == ref {
				return true, nil
			}
		}
	}
	return false, nil
}
