package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Document number prefixes.
const (
	PrefixSale     = "VENTA"
	PrefixPurchase = "COMPRA"
	PrefixReturn   = "DEV"
)

const sequenceDayLayout = "20060102"

// SequenceAllocator hands out strictly increasing numbers per prefix and
// UTC day. Numbers are never reused, even when the mutation that took one
// fails afterwards.
type SequenceAllocator interface {
	Next(ctx context.Context, prefix string, day time.Time) (int64, error)
}

// SequenceDay formats the UTC day part of a document number.
func SequenceDay(t time.Time) string {
	return t.UTC().Format(sequenceDayLayout)
}

// FormatSequence renders PREFIX-YYYYMMDD-NNNN. Numbers above 9999 keep all
// their digits.
func FormatSequence(prefix string, day time.Time, n int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, SequenceDay(day), n)
}

// NextNumber allocates and formats the next document number for prefix.
func NextNumber(ctx context.Context, seq SequenceAllocator, prefix string, now time.Time) (string, error) {
	n, err := seq.Next(ctx, prefix, now)
	if err != nil {
		return "", err
	}
	return FormatSequence(prefix, now, n), nil
}

// ParseSequence splits a document number into its prefix, day and counter.
// ok is false for anything FormatSequence could not have produced.
func ParseSequence(number string) (prefix, day string, n int64, ok bool) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] == "" || len(parts[2]) < 4 {
		return "", "", 0, false
	}
	if _, err := time.Parse(sequenceDayLayout, parts[1]); err != nil {
		return "", "", 0, false
	}
	n, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || n <= 0 {
		return "", "", 0, false
	}
	return parts[0], parts[1], n, true
}
