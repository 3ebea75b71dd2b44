// Package cos provides common low-level types and utilities for all aistore projects
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"errors"
	"fmt"
	"sync"
	ratomic "sync/atomic"

	"github.com/hoolamike-go/hoolamike/cmn/debug"
)

// Error kinds. Every failure surfaced out of the Core or the Asset
// Installer is one of these, or wraps one of these — classifying an
// error for the final install report means errors.As-ing for the kind
// below, never string-matching Error().
type (
	// ErrNotFound reports a lookup miss (a cache entry, an archive
	// member, a source-index hash) that is never fatal for the process
	// on its own.
	ErrNotFound struct {
		what string
	}

	// ErrFormatUnsupported reports an archive container whose signature
	// or extension is recognized but whose contents this program
	// cannot parse (a BSA/BA2/MPQ opaque container, say). Fatal for
	// the one asset that needed it; the asset dispatcher records it
	// and moves on to the next asset.
	ErrFormatUnsupported struct {
		Format string
	}

	// ErrConfiguration reports a problem with the install's inputs
	// themselves — a missing host-config entry, a malformed manifest,
	// an undefined or cyclic variable reference. Fatal at startup:
	// nothing downstream can recover from bad configuration.
	ErrConfiguration struct {
		Reason string
	}

	// ErrResourceExhausted reports that a permit pool can never
	// satisfy a request no matter how long a caller waits (the
	// request's weight exceeds the pool's total capacity). Fatal for
	// the process — distinct from a plain context cancellation, which
	// is ErrCancelled.
	ErrResourceExhausted struct {
		Resource string
	}

	// ErrCancelled wraps a context cancellation observed while
	// acquiring a permit or waiting on a future. Propagated as-is: a
	// worker shutting down is not a failure to report, just a reason
	// to stop.
	ErrCancelled struct {
		Err error
	}

	// DecodeRetryable marks a decode-loop or Stream Bridge read error
	// as transient: the caller retries the same Read in place, bounded
	// to a small fixed number of attempts.
	DecodeRetryable struct {
		Err error
	}

	// DecodeFatal marks a decoder error that leaves the decoder's
	// internal state unrecoverable (a failed seek, a corrupt header) —
	// retrying in place cannot help. Fatal for the one asset being
	// decoded.
	DecodeFatal struct {
		Err error
	}

	Errs struct {
		errs []error
		cnt  int64
		mu   sync.Mutex
	}
)

// ErrNotFound

func NewErrNotFound(format string, a ...any) *ErrNotFound {
	return &ErrNotFound{fmt.Sprintf(format, a...)}
}

func (e *ErrNotFound) Error() string { return e.what + " does not exist" }

func IsErrNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

// ErrFormatUnsupported

func NewErrFormatUnsupported(format string) *ErrFormatUnsupported {
	return &ErrFormatUnsupported{Format: format}
}

func (e *ErrFormatUnsupported) Error() string {
	return fmt.Sprintf("unsupported archive format %q", e.Format)
}

// ErrConfiguration

func NewErrConfiguration(format string, a ...any) *ErrConfiguration {
	return &ErrConfiguration{Reason: fmt.Sprintf(format, a...)}
}

func (e *ErrConfiguration) Error() string { return e.Reason }

// ErrResourceExhausted

func NewErrResourceExhausted(resource string) *ErrResourceExhausted {
	return &ErrResourceExhausted{Resource: resource}
}

func (e *ErrResourceExhausted) Error() string {
	return fmt.Sprintf("resource exhausted: %s pool can never satisfy this request", e.Resource)
}

// ErrCancelled

func NewErrCancelled(err error) *ErrCancelled { return &ErrCancelled{Err: err} }
func (e *ErrCancelled) Error() string         { return fmt.Sprintf("cancelled: %v", e.Err) }
func (e *ErrCancelled) Unwrap() error         { return e.Err }

// DecodeRetryable / DecodeFatal

func NewDecodeRetryable(err error) *DecodeRetryable { return &DecodeRetryable{Err: err} }
func (e *DecodeRetryable) Error() string            { return fmt.Sprintf("retryable decode error: %v", e.Err) }
func (e *DecodeRetryable) Unwrap() error            { return e.Err }

func NewDecodeFatal(err error) *DecodeFatal { return &DecodeFatal{Err: err} }
func (e *DecodeFatal) Error() string        { return fmt.Sprintf("fatal decode error: %v", e.Err) }
func (e *DecodeFatal) Unwrap() error        { return e.Err }

// Errs
// add Unwrap() if need be

const maxErrs = 4

func (e *Errs) Add(err error) {
	debug.Assert(err != nil)
	e.mu.Lock()
	// first, check for duplication
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			e.mu.Unlock()
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
		ratomic.StoreInt64(&e.cnt, int64(len(e.errs)))
	}
	e.mu.Unlock()
}

func (e *Errs) Cnt() int { return int(ratomic.LoadInt64(&e.cnt)) }

func (e *Errs) JoinErr() (cnt int, err error) {
	if cnt = e.Cnt(); cnt > 0 {
		e.mu.Lock()
		err = errors.Join(e.errs...) // up to maxErrs
		e.mu.Unlock()
	}
	return
}

// Errs is an error
func (e *Errs) Error() (s string) {
	var (
		err error
		cnt = e.Cnt()
	)
	if cnt == 0 {
		return
	}
	e.mu.Lock()
	if cnt = len(e.errs); cnt > 0 {
		err = e.errs[0]
	}
	e.mu.Unlock()
	if err == nil {
		return // unlikely
	}
	if cnt > 1 {
		err = fmt.Errorf("%v (and %d more error%s)", err, cnt-1, Plural(cnt-1))
	}
	s = err.Error()
	return
}
