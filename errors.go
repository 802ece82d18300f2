// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates a non-suspending operation cannot proceed.
//
// For TrySend: the channel is full (or, for a rendezvous channel, no
// receiver is waiting).
// For TryReceive: the channel is empty.
//
// ErrWouldBlock is a control flow signal, not a failure. This is an alias
// for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrClosed is matched by every error reporting a closed channel.
var ErrClosed = errors.New("lfchan: channel closed")

// ErrCancelled is matched by every error reporting a cancelled channel.
var ErrCancelled = errors.New("lfchan: channel cancelled")

// ClosedError reports that a channel was closed. Cause is the value passed
// to Close, possibly nil.
//
//	err := ch.Send(ctx, v)
//	if errors.Is(err, lfchan.ErrClosed) {
//	    log.Println("closed:", lfchan.CauseOf(err))
//	}
type ClosedError struct {
	Cause error
}

func (e *ClosedError) Error() string {
	if e.Cause == nil {
		return ErrClosed.Error()
	}
	return ErrClosed.Error() + ": " + e.Cause.Error()
}

// Unwrap exposes both ErrClosed and the cause to errors.Is and errors.As.
func (e *ClosedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrClosed}
	}
	return []error{ErrClosed, e.Cause}
}

// CancelledError reports that a channel was cancelled. Buffered elements
// were discarded.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	if e.Cause == nil {
		return ErrCancelled.Error()
	}
	return ErrCancelled.Error() + ": " + e.Cause.Error()
}

// Unwrap exposes both ErrCancelled and the cause to errors.Is and errors.As.
func (e *CancelledError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrCancelled}
	}
	return []error{ErrCancelled, e.Cause}
}

// CauseOf returns the cause carried by a ClosedError or CancelledError,
// or nil.
func CauseOf(err error) error {
	var closed *ClosedError
	if errors.As(err, &closed) {
		return closed.Cause
	}
	var cancelled *CancelledError
	if errors.As(err, &cancelled) {
		return cancelled.Cause
	}
	return nil
}

// IsClosed reports whether err reports a closed channel.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsCancelled reports whether err reports a cancelled channel.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
