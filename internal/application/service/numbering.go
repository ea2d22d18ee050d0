package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
)

// voucherNumberWidth is the zero-padded width of voucher numbers
const voucherNumberWidth = 6

// NumberAllocator derives the next sequential voucher number. It does not
// persist anything: the caller must create the voucher under the returned
// number, and the voucher_number unique constraint arbitrates concurrent
// allocations.
type NumberAllocator struct {
	voucherRepo port.VoucherRepository
	seed        string
}

// NewNumberAllocator creates an allocator with the configured seed number,
// returned verbatim when no vouchers exist yet.
func NewNumberAllocator(voucherRepo port.VoucherRepository, seed string) *NumberAllocator {
	return &NumberAllocator{voucherRepo: voucherRepo, seed: seed}
}

// Next returns the highest existing voucher number incremented by one,
// zero-padded to six digits, or the seed when the voucher set is empty.
func (a *NumberAllocator) Next(ctx context.Context) (string, error) {
	last, err := a.voucherRepo.LastVoucherNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("last voucher number: %w", err)
	}
	if last == "" {
		return a.seed, nil
	}
	return increment(last)
}

// increment parses a strictly numeric voucher number and returns it +1.
// Non-numeric numbers are a data error, not something to tolerate.
func increment(number string) (string, error) {
	n, err := strconv.Atoi(number)
	if err != nil {
		return "", fmt.Errorf("malformed voucher number %q: %w", number, err)
	}
	return fmt.Sprintf("%0*d", voucherNumberWidth, n+1), nil
}
