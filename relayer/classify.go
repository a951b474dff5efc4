// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package relayer

import (
	"fmt"
	"regexp"
	"strings"
)

type ErrorKind uint8

const (
	ErrorKindOther ErrorKind = iota
	ErrorKindAlreadyRelayed
	ErrorKindTransientExecution
	ErrorKindTransientNonce
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindAlreadyRelayed:
		return "already-relayed"
	case ErrorKindTransientExecution:
		return "transient-execution"
	case ErrorKindTransientNonce:
		return "transient-nonce"
	default:
		return "other"
	}
}

func (k ErrorKind) Transient() bool {
	return k == ErrorKindTransientExecution || k == ErrorKindTransientNonce
}

const (
	alreadyReceivedReason = "already received"
	executionFailedReason = "execution failed due to an exception"
	nonceTooLowReason     = "nonce too low"
)

// ErrorClassifier maps the free-form error text of L1 nodes and the messenger contract to an
// ErrorKind. Matching is case-insensitive.
type ErrorClassifier struct {
	extraTransient *regexp.Regexp
}

// NewErrorClassifier accepts an optional regular expression of further error messages to
// treat as transient execution failures.
func NewErrorClassifier(extraTransient string) (*ErrorClassifier, error) {
	c := &ErrorClassifier{}
	if extraTransient != "" {
		re, err := regexp.Compile("(?i)" + extraTransient)
		if err != nil {
			return nil, fmt.Errorf("invalid transient error pattern %q: %w", extraTransient, err)
		}
		c.extraTransient = re
	}
	return c, nil
}

func (c *ErrorClassifier) Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindOther
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, alreadyReceivedReason):
		return ErrorKindAlreadyRelayed
	case strings.Contains(msg, executionFailedReason):
		return ErrorKindTransientExecution
	case strings.Contains(msg, nonceTooLowReason):
		return ErrorKindTransientNonce
	case c.extraTransient != nil && c.extraTransient.MatchString(msg):
		return ErrorKindTransientExecution
	}
	return ErrorKindOther
}
