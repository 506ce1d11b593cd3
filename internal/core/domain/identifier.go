package domain

import (
	"regexp"
	"strings"
)

// IdentifierKind classifies a login identifier.
type IdentifierKind string

const (
	KindEmail IdentifierKind = "EMAIL"
	KindPhone IdentifierKind = "PHONE"
)

// IdentifierHint is an optional channel hint supplied by the caller
// (e.g. the client knows the input came from a phone field).
type IdentifierHint int

const (
	HintNone IdentifierHint = iota
	HintEmail
	HintPhone
)

// Identifier is the result of resolving a raw login identifier: its kind
// and the canonical string used as the account lookup key.
type Identifier struct {
	Kind      IdentifierKind
	Canonical string
}

// DialingPlan holds the national dialing parameters used for phone
// normalization. The platform operates on the Togolese plan by default.
type DialingPlan struct {
	CountryCode string // without the leading "+"
	LocalDigits int    // length of a bare national number
}

// DefaultDialingPlan returns the Togo dialing plan (+228, 8-digit locals).
func DefaultDialingPlan() DialingPlan {
	return DialingPlan{CountryCode: "228", LocalDigits: 8}
}

// phonePattern matches strings that look like phone numbers: 8-15
// characters drawn from digits, "+", "-", spaces and parentheses.
var phonePattern = regexp.MustCompile(`^[0-9+\-() ]{8,15}$`)

// nonPhoneChars strips everything except digits and "+".
var nonPhoneChars = regexp.MustCompile(`[^0-9+]`)

// ResolveIdentifier classifies a raw identifier as email or phone and
// returns its canonical form. The function is total: every input yields a
// result and phone canonicalization never fails, it degrades to a
// best-effort stripped string when no normalization rule applies.
func (p DialingPlan) ResolveIdentifier(raw string, hint IdentifierHint) Identifier {
	trimmed := strings.TrimSpace(raw)

	switch hint {
	case HintPhone:
		return Identifier{Kind: KindPhone, Canonical: p.NormalizePhone(trimmed)}
	case HintEmail:
		return Identifier{Kind: KindEmail, Canonical: strings.ToLower(trimmed)}
	}

	if phonePattern.MatchString(trimmed) && !strings.Contains(trimmed, "@") {
		return Identifier{Kind: KindPhone, Canonical: p.NormalizePhone(trimmed)}
	}
	return Identifier{Kind: KindEmail, Canonical: strings.ToLower(trimmed)}
}

// NormalizePhone rewrites a phone number into the canonical
// "+<country><local>" form. Rules are applied top to bottom and the first
// match wins:
//
//  1. everything except digits and "+" is stripped
//  2. a leading international escape "00" becomes "+"
//  3. a number already carrying the "+<country>" prefix is returned as-is
//  4. a number starting with the bare country code gets "+" prepended
//  5. a bare local number of the expected length gets the full prefix
//  6. anything else is returned stripped but otherwise unchanged
//
// The fallback in rule 6 may produce a number that is not dialable; the
// caller treats the downstream credential lookup failure as the error
// signal, so this function never reports one.
func (p DialingPlan) NormalizePhone(raw string) string {
	s := nonPhoneChars.ReplaceAllString(raw, "")

	switch {
	case strings.HasPrefix(s, "00"):
		return "+" + s[2:]
	case strings.HasPrefix(s, "+"+p.CountryCode):
		return s
	case strings.HasPrefix(s, p.CountryCode):
		return "+" + s
	case len(s) == p.LocalDigits:
		return "+" + p.CountryCode + s
	default:
		return s
	}
}
