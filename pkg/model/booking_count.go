package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// BookingCount decodes whatever a car document stores under bookingCount and
// exposes its healed value. It always encodes as a BSON int64.
type BookingCount struct {
	Value int64

	raw        bson.RawValue
	present    bool
	normalized bool
}

func NewBookingCount(value int64) BookingCount {
	if value < 0 {
		value = 0
	}
	return BookingCount{Value: value, present: true, normalized: true}
}

// Normalized reports whether the stored value was already a non-negative BSON integer.
func (c BookingCount) Normalized() bool {
	return c.normalized
}

// Raw returns the value as it was stored. present is false when the field was absent.
func (c BookingCount) Raw() (raw bson.RawValue, present bool) {
	return c.raw, c.present
}

func (c *BookingCount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)
	rv := bson.RawValue{Type: t, Value: stored}

	c.raw = rv
	c.present = true
	c.normalized = false

	switch t {
	case bsontype.Int32:
		c.Value = int64(rv.Int32())
		c.normalized = c.Value >= 0
	case bsontype.Int64:
		c.Value = rv.Int64()
		c.normalized = c.Value >= 0
	case bsontype.Double:
		c.Value = healFloat(rv.Double())
	case bsontype.String:
		c.Value = HealBookingCountString(rv.StringValue())
	case bsontype.Decimal128:
		c.Value = HealBookingCountString(rv.Decimal128().String())
	default:
		c.Value = 0
	}

	if c.Value < 0 {
		c.Value = 0
	}
	return nil
}

func (c BookingCount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Int64, bsoncore.AppendInt64(nil, c.Value), nil
}

func (c BookingCount) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, c.Value, 10), nil
}

func (c *BookingCount) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "null" {
		*c = BookingCount{}
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid bookingCount %q: %w", text, err)
	}
	*c = NewBookingCount(healFloat(f))
	return nil
}

func (c BookingCount) String() string {
	return strconv.FormatInt(c.Value, 10)
}

// HealBookingCount converts any stored bookingCount value to a non-negative
// integer. Integers are kept, doubles truncate, strings take their leading
// base-10 integer, and everything else becomes 0.
func HealBookingCount(value any) int64 {
	var healed int64
	switch v := value.(type) {
	case int:
		healed = int64(v)
	case int32:
		healed = int64(v)
	case int64:
		healed = v
	case float64:
		healed = healFloat(v)
	case float32:
		healed = healFloat(float64(v))
	case string:
		healed = HealBookingCountString(v)
	case primitive.Decimal128:
		healed = HealBookingCountString(v.String())
	}
	if healed < 0 {
		return 0
	}
	return healed
}

// HealBookingCountString parses the leading integer of s the way a lenient
// form parser would: leading whitespace and an optional sign are accepted,
// parsing stops at the first non-digit, and no digits at all yields 0.
func HealBookingCountString(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func healFloat(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return 0
	}
	return int64(math.Trunc(f))
}
