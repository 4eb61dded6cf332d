package core

// error_messages.go maps technical errors to user-facing messages.
//
// Each message carries a code that can be quoted in a bug report:
//
//	CSV001  - Catalog file is malformed or empty
//	CSV002  - Catalog file has no Name column
//	CSV003  - Catalog file is too large
//	CAT001  - Catalog could not be fetched (network or file error)
//	CAT002  - Catalog server answered with a non-2xx status
//	CAT003  - Catalog has not been loaded yet
//	SEL001  - Selection is full
//	SEL002  - CPU is not in the catalog
//	SORT001 - Column cannot be sorted
//	RATE001 - Too many requests
//	ERR000  - Anything else; check the server log
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCatalogNotLoaded is returned by operations that need a catalog before
// one has been loaded successfully.
var ErrCatalogNotLoaded = errors.New("catalog not loaded")

// ErrUnknownCPU is returned when a name is not in the catalog.
var ErrUnknownCPU = errors.New("cpu not in catalog")

// ErrSelectionFull is returned by API callers that treat a capacity
// rejection as a failed request.
var ErrSelectionFull = errors.New("selection is full")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "The catalog has no Name column",
			Action:  "Add a Name header to the CSV file",
			Code:    "CSV002",
		},
	},
	{
		pattern: "malformed csv",
		msg: UserMessage{
			Message: "The catalog file is empty or malformed",
			Action:  "Check that the first line of the CSV file is a header row",
			Code:    "CSV001",
		},
	},
	{
		pattern: "catalog file too large",
		msg: UserMessage{
			Message: "The catalog file is too large",
			Action:  "Split the catalog or raise CATALOG_MAX_SIZE",
			Code:    "CSV003",
		},
	},
	{
		pattern: "unexpected status",
		msg: UserMessage{
			Message: "The catalog server refused the request",
			Action:  "Check that the catalog file is published next to the application",
			Code:    "CAT002",
		},
	},
	{
		pattern: "fetch catalog",
		msg: UserMessage{
			Message: "The catalog could not be loaded",
			Action:  "Check that the catalog file exists and the site is served over HTTP",
			Code:    "CAT001",
		},
	},
	{
		pattern: "catalog not loaded",
		msg: UserMessage{
			Message: "The catalog is not loaded yet",
			Action:  "Reload the catalog and try again",
			Code:    "CAT003",
		},
	},
	{
		pattern: "selection is full",
		msg: UserMessage{
			Message: "Too many processors selected",
			Action:  "Remove a processor before adding another",
			Code:    "SEL001",
		},
	},
	{
		pattern: "cpu not in catalog",
		msg: UserMessage{
			Message: "That processor is not in the catalog",
			Action:  "Pick a processor from the search results",
			Code:    "SEL002",
		},
	},
	{
		pattern: "column not sortable",
		msg: UserMessage{
			Message: "This column cannot be sorted",
			Action:  "Sort by a numeric column instead",
			Code:    "SORT001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the server log",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// AddResultError converts a rejected AddResult into an error for callers
// that report rejections as failed requests. It returns nil when r.OK().
func AddResultError(r AddResult) error {
	switch r.Status {
	case CapacityReached:
		return fmt.Errorf("%w: limit %d", ErrSelectionFull, r.Limit)
	case UnknownCPU:
		return fmt.Errorf("%w: %q", ErrUnknownCPU, r.Name)
	default:
		return nil
	}
}
