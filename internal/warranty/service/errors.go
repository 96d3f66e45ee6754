package service

import (
	"errors"

	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/sentinel"
)

// translateSerialErr maps store sentinels onto the domain taxonomy.
// Domain errors pass through unchanged.
func translateSerialErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "serial number not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeDuplicateSerial, "serial number already exists").WithField("serial_number")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidTransition, "serial is not in an expected status")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, op)
	}
}

func translateClaimErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "claim not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, op)
}
