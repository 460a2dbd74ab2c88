package storage

import (
	"errors"
	"regexp"
)

// Structured provider codes that mean the bucket name is taken.
var conflictCodes = map[string]struct{}{
	"BucketAlreadyExists":     {},
	"BucketAlreadyOwnedByYou": {},
}

// Text fallback for providers that only report a message.
// TODO: confirm the word list against Supabase Storage's create-bucket
// responses; only the S3 and MinIO codes above are verified.
var conflictPattern = regexp.MustCompile(`(?i)already exists|duplicate|conflict`)

// CodedError is implemented by provider errors that carry a machine-readable
// code, e.g. awserr.Error and minio.ErrorResponse adapters.
type CodedError interface {
	error
	Code() string
	Message() string
}

// IsConflict reports whether a create-bucket failure means the bucket already
// exists. A structured code wins over the message text.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var coded CodedError
	if errors.As(err, &coded) {
		if _, ok := conflictCodes[coded.Code()]; ok {
			return true
		}
		if conflictPattern.MatchString(coded.Message()) {
			return true
		}
	}

	return IsConflictMessage(err.Error())
}

// IsConflictMessage applies the text fallback alone.
func IsConflictMessage(msg string) bool {
	return conflictPattern.MatchString(msg)
}

// Message returns the provider's human readable message for err, without
// the code prefix some SDKs add.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var coded CodedError
	if errors.As(err, &coded) && coded.Message() != "" {
		return coded.Message()
	}

	return err.Error()
}
