// errors.go: structured error kinds for cachebox operations
//
// This file provides the error kinds cachebox names (KeyNotFound,
// Overflow, InvalidArgument, ConcurrentModification, SerializationError,
// UserException) using the go-errors library, so callers get an error
// code, structured context, and retryability rather than a bare string.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for cachebox operations.
const (
	// ErrCodeKeyNotFound: index/delete/popitem observed no entry.
	ErrCodeKeyNotFound errors.ErrorCode = "CACHEBOX_KEY_NOT_FOUND"
	// ErrCodeOverflow: insert into a non-evicting cache at capacity.
	ErrCodeOverflow errors.ErrorCode = "CACHEBOX_OVERFLOW"
	// ErrCodeInvalidArgument: ttl <= 0 where required, a missing required
	// option, ... A negative MaxSize is not reported: Config.Validate
	// clamps it to 0.
	ErrCodeInvalidArgument errors.ErrorCode = "CACHEBOX_INVALID_ARGUMENT"
	// ErrCodeConcurrentModification: iterator advanced after a mutation.
	ErrCodeConcurrentModification errors.ErrorCode = "CACHEBOX_CONCURRENT_MODIFICATION"
	// ErrCodeSerialization: load of an incompatible or corrupt format.
	ErrCodeSerialization errors.ErrorCode = "CACHEBOX_SERIALIZATION"
	// ErrCodeUserException: a caller-supplied hash/eq/callable panicked.
	ErrCodeUserException errors.ErrorCode = "CACHEBOX_USER_EXCEPTION"
)

const (
	msgKeyNotFound             = "key not found in cache"
	msgOverflow                = "cache is full and the policy does not evict"
	msgInvalidArgument         = "invalid argument"
	msgConcurrentModification = "cache changed during iteration"
	msgSerialization           = "incompatible or corrupted serialized cache"
	msgUserException           = "user-supplied hash, equality, or callable panicked"
)

// NewErrKeyNotFound builds KeyNotFound for the given key.
func NewErrKeyNotFound(key interface{}) error {
	return errors.NewWithField(ErrCodeKeyNotFound, msgKeyNotFound, "key", fmt.Sprintf("%v", key))
}

// NewErrOverflow builds Overflow for a non-evicting cache at
// capacity. Marked retryable: it can succeed later once entries are freed.
func NewErrOverflow(policy Policy, capacity, size int) error {
	return errors.NewWithContext(ErrCodeOverflow, msgOverflow, map[string]interface{}{
		"policy":   policy.String(),
		"capacity": capacity,
		"size":     size,
	}).AsRetryable()
}

// NewErrInvalidArgument builds InvalidArgument.
func NewErrInvalidArgument(reason string, kv ...interface{}) error {
	ctx := map[string]interface{}{"reason": reason}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			ctx[k] = kv[i+1]
		}
	}
	return errors.NewWithContext(ErrCodeInvalidArgument, msgInvalidArgument, ctx)
}

// NewErrConcurrentModification builds ConcurrentModification,
// raised by an Iterator whose recorded generation no longer matches the
// cache's current generation.
func NewErrConcurrentModification(recorded, current uint64) error {
	return errors.NewWithContext(ErrCodeConcurrentModification, msgConcurrentModification, map[string]interface{}{
		"recorded_generation": recorded,
		"current_generation":  current,
	})
}

// NewErrSerialization builds SerializationError.
func NewErrSerialization(reason string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeSerialization, msgSerialization).WithContext("reason", reason)
	}
	return errors.NewWithField(ErrCodeSerialization, msgSerialization, "reason", reason)
}

// NewErrUserException wraps a panic raised by a caller-supplied hash,
// equality, or memoized callable so it propagates as an error rather than
// crashing the process, while preserving the original panic value.
func NewErrUserException(operation string, panicValue interface{}) error {
	if err, ok := panicValue.(error); ok {
		return errors.Wrap(err, ErrCodeUserException, msgUserException).WithContext("operation", operation)
	}
	return errors.NewWithContext(ErrCodeUserException, msgUserException, map[string]interface{}{
		"operation": operation,
		"panic":     fmt.Sprintf("%v", panicValue),
	})
}

// IsKeyNotFound reports whether err is KeyNotFound.
func IsKeyNotFound(err error) bool { return errors.HasCode(err, ErrCodeKeyNotFound) }

// IsOverflow reports whether err is Overflow.
func IsOverflow(err error) bool { return errors.HasCode(err, ErrCodeOverflow) }

// IsInvalidArgument reports whether err is InvalidArgument.
func IsInvalidArgument(err error) bool { return errors.HasCode(err, ErrCodeInvalidArgument) }

// IsConcurrentModification reports whether err is 's
// ConcurrentModification.
func IsConcurrentModification(err error) bool {
	return errors.HasCode(err, ErrCodeConcurrentModification)
}

// IsSerializationError reports whether err is SerializationError.
func IsSerializationError(err error) bool { return errors.HasCode(err, ErrCodeSerialization) }

// IsUserException reports whether err wraps a caller-supplied panic.
func IsUserException(err error) bool { return errors.HasCode(err, ErrCodeUserException) }

// IsRetryable reports whether err can plausibly succeed if retried later.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the structured error code from err, if any.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the structured context attached to err, if any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var cbErr *errors.Error
	if goerrors.As(err, &cbErr) {
		return cbErr.Context
	}
	return nil
}

// recoverUserPanic turns a recovered panic from caller-supplied code
// (hash, equality, memoized callable) into a cachebox error without
// swallowing it, per propagation rule for UserException.
func recoverUserPanic(operation string, r interface{}) error {
	return NewErrUserException(operation, r)
}
