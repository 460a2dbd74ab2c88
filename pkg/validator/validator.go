package validator

import (
	"fmt"
	"strings"
	"unicode"

	apperrors "gallery-service/pkg/errors"
)

const (
	minBucketNameLen = 3
	maxBucketNameLen = 63

	byteOrderMark   = '\uFEFF'
	nextLine        = '\u0085'
	surrogateCutoff = 0x10000

	errBucketNameNotStringFmt = "Bucket name must be a string"
	errBucketNameRequiredFmt  = "Bucket name is required"
	errBucketNameLengthFmt    = "Bucket name must be %d-%d characters"
	errBucketNameCharsetFmt   = "Use lowercase letters, numbers, dashes, underscores, or dots only"
	errBucketNameBoundaryFmt  = "Bucket name must start and end with a letter or number"
)

// Rule sentinels. Each one also matches apperrors.ErrValidation.
var (
	ErrBucketNameNotString = fmt.Errorf("%w: bucket name not a string", apperrors.ErrValidation)
	ErrBucketNameRequired  = fmt.Errorf("%w: bucket name required", apperrors.ErrValidation)
	ErrBucketNameLength    = fmt.Errorf("%w: bucket name length", apperrors.ErrValidation)
	ErrBucketNameCharset   = fmt.Errorf("%w: bucket name charset", apperrors.ErrValidation)
	ErrBucketNameBoundary  = fmt.Errorf("%w: bucket name boundary", apperrors.ErrValidation)
)

// BucketName checks a bucket name against the naming rules, first failing
// rule wins. v is usually a string; anything else fails the first rule. The
// name is trimmed with TrimBucketName and its length counted in UTF-16 code
// units, so the limits match what browser clients enforce.
func BucketName(v any) error {
	name, ok := v.(string)
	if !ok {
		return apperrors.Validation(errBucketNameNotStringFmt, ErrBucketNameNotString)
	}

	trimmed := TrimBucketName(name)

	if trimmed == "" {
		return apperrors.Validation(errBucketNameRequiredFmt, ErrBucketNameRequired)
	}

	if n := utf16Len(trimmed); n < minBucketNameLen || n > maxBucketNameLen {
		return apperrors.Validation(fmt.Sprintf(errBucketNameLengthFmt, minBucketNameLen, maxBucketNameLen), ErrBucketNameLength)
	}

	for i := 0; i < len(trimmed); i++ {
		if !isBucketNameChar(trimmed[i]) {
			return apperrors.Validation(errBucketNameCharsetFmt, ErrBucketNameCharset)
		}
	}

	if !isLowerAlnum(trimmed[0]) || !isLowerAlnum(trimmed[len(trimmed)-1]) {
		return apperrors.Validation(errBucketNameBoundaryFmt, ErrBucketNameBoundary)
	}

	return nil
}

// TrimBucketName strips leading and trailing white space the way
// ECMAScript's String.prototype.trim does: Unicode spaces and line
// terminators plus the byte order mark, but not U+0085.
func TrimBucketName(name string) string {
	return strings.TrimFunc(name, isTrimmable)
}

func isTrimmable(r rune) bool {
	if r == byteOrderMark {
		return true
	}
	return r != nextLine && unicode.IsSpace(r)
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= surrogateCutoff {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func isLowerAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isBucketNameChar(c byte) bool {
	return isLowerAlnum(c) || c == '.' || c == '_' || c == '-'
}
