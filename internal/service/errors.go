package service

import "errors"

var (
	// ErrNoCouponAvailable is returned when no coupon satisfies the
	// eligibility predicate for a claimant. This is an expected terminal
	// outcome, not a fault.
	ErrNoCouponAvailable = errors.New("no coupon available")

	// ErrDuplicateCode is returned when a create or update would violate
	// coupon code uniqueness.
	ErrDuplicateCode = errors.New("coupon code already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found by id.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrForbidden is returned when an admin operates on a coupon owned by
	// a different admin.
	ErrForbidden = errors.New("coupon owned by another admin")

	// ErrAdminExists is returned when registering with an email that is
	// already taken.
	ErrAdminExists = errors.New("admin already exists")

	// ErrInvalidCredentials is returned on login with an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrClaimConflict is returned when a concurrent-write race is detected
	// during claim allocation. The allocator retries bounded times before
	// surfacing it.
	ErrClaimConflict = errors.New("claim conflict, retry")

	// ErrInvalidRequest is returned when request data is invalid or incomplete.
	ErrInvalidRequest = errors.New("invalid request")
)
