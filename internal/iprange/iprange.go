// Package iprange converts dotted-quad IPv4 bounds into numeric ranges and
// enumerates the addresses between them.
package iprange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRange is matched by every parse failure in this package
	ErrInvalidRange = errors.New("invalid address range")

	// ErrInvalidFormat means the text is not four dot-separated decimal groups
	ErrInvalidFormat = fmt.Errorf("%w: invalid format", ErrInvalidRange)
	// ErrOutOfRange means a group is larger than 255
	ErrOutOfRange = fmt.Errorf("%w: octet out of range", ErrInvalidRange)
	// ErrReversedRange means the start address is above the end address
	ErrReversedRange = fmt.Errorf("%w: start is after end", ErrInvalidRange)
)

// Range is an inclusive span of IPv4 addresses. Start <= End always holds
// for ranges built by ParseRange.
type Range struct {
	Start uint32
	End   uint32
}

// Parse converts a dotted-quad address into its 32-bit value
func Parse(text string) (uint32, error) {
	parts := strings.Split(text, ".")
	if len(parts) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
	}

	var ip uint32
	for i, part := range parts {
		if part == "" || !isDigits(part) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
		}
		octet, err := strconv.ParseUint(part, 10, 32)
		if err != nil || octet > 255 {
			return 0, fmt.Errorf("%w: %s in %q", ErrOutOfRange, part, text)
		}
		ip |= uint32(octet) << (24 - uint(i)*8)
	}

	return ip, nil
}

// Render formats a 32-bit address as a dotted quad
func Render(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", (ip>>24)&0xFF, (ip>>16)&0xFF, (ip>>8)&0xFF, ip&0xFF)
}

// Enumerate returns every address from start to end inclusive, ascending.
// It returns nil when start > end.
func Enumerate(start, end uint32) []string {
	if start > end {
		return nil
	}

	ips := make([]string, 0, uint64(end-start)+1)
	for ip := start; ; ip++ {
		ips = append(ips, Render(ip))
		// ip == end must break before the increment, end may be 255.255.255.255
		if ip == end {
			break
		}
	}
	return ips
}

// ParseRange parses both bounds of a range
func ParseRange(start, end string) (Range, error) {
	s, err := Parse(strings.TrimSpace(start))
	if err != nil {
		return Range{}, fmt.Errorf("start address: %w", err)
	}
	e, err := Parse(strings.TrimSpace(end))
	if err != nil {
		return Range{}, fmt.Errorf("end address: %w", err)
	}
	if s > e {
		return Range{}, fmt.Errorf("%w: %s > %s", ErrReversedRange, start, end)
	}
	return Range{Start: s, End: e}, nil
}

// Len returns the number of addresses in the range
func (r Range) Len() uint64 {
	if r.Start > r.End {
		return 0
	}
	return uint64(r.End-r.Start) + 1
}

// Addresses enumerates the range
func (r Range) Addresses() []string {
	return Enumerate(r.Start, r.End)
}

// Contains reports whether the dotted-quad address lies inside the range
func (r Range) Contains(ip string) bool {
	v, err := Parse(ip)
	if err != nil {
		return false
	}
	return v >= r.Start && v <= r.End
}

// String renders the range as "start-end"
func (r Range) String() string {
	return Render(r.Start) + "-" + Render(r.End)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
