package application

import (
	"strings"
	"unicode/utf8"
)

const (
	// MinOverrideReasonLength is the minimum justification length, counted
	// in characters after trimming surrounding whitespace.
	MinOverrideReasonLength = 10
	// DefaultOverrideAuthor is recorded when the operator does not identify
	// themselves.
	DefaultOverrideAuthor = "Admin"
)

// ValidateOverride checks a presented credential against the configured
// secret hash. Rules run in a fixed order and the first failure wins:
// token present, token matches, reason long enough. Validation is
// stateless; a prior success never authorizes a later request.
func ValidateOverride(cred OverrideCredential, secretHash string) (GrantedOverride, *OverrideError) {
	if cred.Token == "" {
		return GrantedOverride{}, &OverrideError{Kind: OverrideMissingToken}
	}

	if err := VerifySecret(secretHash, cred.Token); err != nil {
		return GrantedOverride{}, &OverrideError{Kind: OverrideTokenMismatch}
	}

	reason := strings.TrimSpace(cred.Reason)
	if utf8.RuneCountInString(reason) < MinOverrideReasonLength {
		return GrantedOverride{}, &OverrideError{Kind: OverrideReasonTooShort}
	}

	author := strings.TrimSpace(cred.Author)
	if author == "" {
		author = DefaultOverrideAuthor
	}

	return GrantedOverride{Reason: reason, Author: author}, nil
}
