package service

import "errors"

var (
	// ErrNotFound means the request id does not resolve to a live request.
	ErrNotFound = errors.New("request not found")
	// ErrProductNotFound means the product id (or a request's parent product)
	// does not resolve.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidTransition means the target status is not a member of the
	// axis's enum. Membership is the only restriction — any valid status may
	// follow any other.
	ErrInvalidTransition = errors.New("status is not valid for axis")
	// ErrUnknownNotificationKind means no route maps the notification kind to
	// a lifecycle status.
	ErrUnknownNotificationKind = errors.New("unknown notification kind")
	// ErrUnsafeDeletion means the deletion-safety rules forbid removing the
	// request in its current state.
	ErrUnsafeDeletion = errors.New("request cannot be deleted safely")
	// ErrProductNotDeletable means requests still hold unresolved obligations
	// against the product.
	ErrProductNotDeletable = errors.New("product still has active requests")
	// ErrProductInactive means a new request targets a deactivated product.
	ErrProductInactive = errors.New("product is not available for new requests")
)
