package controlchart

import (
	"fmt"
	"strconv"
	"strings"

	"gprspc/domain/core"
	"gprspc/domain/spc"
)

// ZInfo pairs a significance level with its two-sided z-score.
type ZInfo struct {
	Alpha float64
	Z     float64
}

var zTable = map[spc.ConfidenceLevel]ZInfo{
	spc.Confidence90:   {Alpha: 0.10, Z: 1.645},
	spc.Confidence95:   {Alpha: 0.05, Z: 1.960},
	spc.Confidence9545: {Alpha: 0.0455, Z: 2.000},
	spc.Confidence99:   {Alpha: 0.01, Z: 2.576},
	spc.Confidence9973: {Alpha: 0.0027, Z: 3.000},
}

// SupportedConfidenceLevels lists the labels accepted by Lookup.
var SupportedConfidenceLevels = []spc.ConfidenceLevel{
	spc.Confidence90, spc.Confidence95, spc.Confidence9545, spc.Confidence99, spc.Confidence9973,
}

// Lookup returns alpha and z for a canonical confidence label.
func Lookup(level spc.ConfidenceLevel) (ZInfo, error) {
	info, ok := zTable[level]
	if !ok {
		return ZInfo{}, fmt.Errorf("%w %q (try one of %v)", core.ErrUnsupportedConfidenceLevel, level, SupportedConfidenceLevels)
	}
	return info, nil
}

// LookupFraction formats a probability such as 0.9973 as a label and looks it up.
func LookupFraction(p float64) (spc.ConfidenceLevel, ZInfo, error) {
	level := FormatFraction(p)
	info, err := Lookup(level)
	return level, info, err
}

// FormatFraction renders a probability as a percentage label with at most
// two decimals and no trailing zeros: 0.95 -> "95%", 0.9973 -> "99.73%".
func FormatFraction(p float64) spc.ConfidenceLevel {
	pct := RoundHalfUp(p*100, 2)
	return spc.ConfidenceLevel(strconv.FormatFloat(pct, 'f', -1, 64) + "%")
}

// ParseConfidenceLevel accepts "99.73%", "99.73" or "0.9973".
func ParseConfidenceLevel(s string) (spc.ConfidenceLevel, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		level := spc.ConfidenceLevel(s)
		if _, err := Lookup(level); err != nil {
			return "", err
		}
		return level, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("%w %q", core.ErrUnsupportedConfidenceLevel, s)
	}
	if v <= 1 {
		level, _, err := LookupFraction(v)
		return level, err
	}
	level := spc.ConfidenceLevel(strconv.FormatFloat(v, 'f', -1, 64) + "%")
	if _, err := Lookup(level); err != nil {
		return "", err
	}
	return level, nil
}
