// Package qrcode builds and checks the scan tokens printed on lesson passes.
//
// Token format: MOVEUP:BOOKING:<bookingId>:TRAINER:<instructorId>
package qrcode

import (
	"fmt"
	"strings"

	"moveup-booking/internal/data/entity"
)

const (
	prefix     = "MOVEUP"
	bookingTag = "BOOKING"
	trainerTag = "TRAINER"
	separator  = ":"
	fieldCount = 5
)

// Encode builds the scan token for a booking.
func Encode(b *entity.Booking) string {
	return strings.Join([]string{
		prefix,
		bookingTag,
		b.ID.String(),
		trainerTag,
		b.InstructorID.String(),
	}, separator)
}

// Decode splits a token into booking id and instructor id.
func Decode(token string) (bookingID, instructorID string, err error) {
	parts := strings.Split(token, separator)
	if len(parts) != fieldCount {
		return "", "", fmt.Errorf("expected %d fields, got %d: %w", fieldCount, len(parts), entity.ErrMalformedToken)
	}
	if parts[0] != prefix || parts[1] != bookingTag || parts[3] != trainerTag {
		return "", "", fmt.Errorf("unexpected token tags: %w", entity.ErrMalformedToken)
	}
	if parts[2] == "" || parts[4] == "" {
		return "", "", fmt.Errorf("empty id in token: %w", entity.ErrMalformedToken)
	}

	return parts[2], parts[4], nil
}

// Validate checks a scanned token against the booking it should unlock.
// It has no side effects; the caller stamps the validation and advances
// the booking.
func Validate(b *entity.Booking, token string) error {
	bookingID, instructorID, err := Decode(token)
	if err != nil {
		return err
	}

	if bookingID != b.ID.String() {
		return fmt.Errorf("token is for booking %s: %w", bookingID, entity.ErrBookingMismatch)
	}
	if instructorID != b.InstructorID.String() {
		return fmt.Errorf("token is for instructor %s: %w", instructorID, entity.ErrBookingMismatch)
	}
	if b.IsValidated() {
		return entity.ErrAlreadyValidated
	}
	if b.Status != entity.BookingStatusConfirmed || b.PaymentStatus != entity.PaymentStatusAuthorized {
		return fmt.Errorf("booking is %s/%s: %w", b.Status, b.PaymentStatus, entity.ErrNotEligible)
	}

	return nil
}
