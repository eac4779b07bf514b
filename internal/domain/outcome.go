package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnavailableReason classifies why a tier produced no value
type UnavailableReason string

const (
	ReasonBadStatus   UnavailableReason = "bad_status"
	ReasonMalformed   UnavailableReason = "malformed_payload"
	ReasonMissing     UnavailableReason = "value_missing"
	ReasonNonPositive UnavailableReason = "non_positive_value"
	ReasonTransport   UnavailableReason = "transport_error"
)

// FetchOutcome is the result of asking one tier for one symbol: either a
// positive value or an unavailable reason. Tier failures travel as values,
// never as errors.
type FetchOutcome struct {
	value  float64
	reason UnavailableReason
	detail string
}

// Available returns an outcome carrying v. Values that are not finite and
// strictly positive are turned into an unavailable outcome.
func Available(v float64) FetchOutcome {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return Unavailable(ReasonNonPositive, fmt.Sprintf("value %v", v))
	}
	return FetchOutcome{value: v}
}

// ParseOutcome turns a decoded JSON value into an outcome. Upstreams report
// ratios as numbers or as display strings ("1,024.50"); null, "" and "-"
// mean the value is absent.
func ParseOutcome(v any) FetchOutcome {
	switch x := v.(type) {
	case nil:
		return Unavailable(ReasonMissing, "null")
	case float64:
		return Available(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Unavailable(ReasonMalformed, err.Error())
		}
		return Available(f)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" || s == "-" {
			return Unavailable(ReasonMissing, fmt.Sprintf("%q", x))
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Unavailable(ReasonMalformed, fmt.Sprintf("not a number: %q", x))
		}
		return Available(f)
	default:
		return Unavailable(ReasonMalformed, fmt.Sprintf("unexpected type %T", v))
	}
}

// Unavailable returns an outcome without a value.
func Unavailable(reason UnavailableReason, detail string) FetchOutcome {
	return FetchOutcome{reason: reason, detail: detail}
}

// OK reports whether the outcome carries a value.
func (o FetchOutcome) OK() bool {
	return o.reason == ""
}

// Value returns the acquired value, zero when unavailable.
func (o FetchOutcome) Value() float64 {
	return o.value
}

// Reason returns the unavailable reason, empty when OK.
func (o FetchOutcome) Reason() UnavailableReason {
	return o.reason
}

// Detail returns free-form context for logging.
func (o FetchOutcome) Detail() string {
	return o.detail
}

func (o FetchOutcome) String() string {
	if o.OK() {
		return fmt.Sprintf("value(%g)", o.value)
	}
	if o.detail == "" {
		return fmt.Sprintf("unavailable(%s)", o.reason)
	}
	return fmt.Sprintf("unavailable(%s: %s)", o.reason, o.detail)
}
