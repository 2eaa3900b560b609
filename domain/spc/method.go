package spc

import (
	"fmt"
	"strings"

	"gprspc/domain/core"
)

// Method names a control-limit calculator.
type Method string

const (
	MethodShewhart Method = "shewhart"
	MethodWSD      Method = "wsd"
	MethodSWV      Method = "swv"
	MethodSC       Method = "sc"
)

// Methods lists every supported method in display order.
var Methods = []Method{MethodShewhart, MethodWSD, MethodSC, MethodSWV}

// ParseMethod accepts a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q", core.ErrUnknownMethod, s)
}

// DisplayName returns the label used in reports ("Shewhart", "WSD", ...).
func (m Method) DisplayName() string {
	if m == MethodShewhart {
		return "Shewhart"
	}
	return strings.ToUpper(string(m))
}

func (m Method) String() string {
	return string(m)
}
