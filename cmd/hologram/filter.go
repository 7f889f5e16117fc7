package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hologram/internal/library"
)

// stringFlags is satisfied by *cli.Context.
type stringFlags interface {
	String(name string) string
}

func filterFromFlags(c stringFlags) (library.PhotoFilter, error) {
	var f library.PhotoFilter

	if v := c.String("camera-make"); v != "" {
		f.CameraMake = library.Ptr(v)
	}
	if v := c.String("camera-model"); v != "" {
		f.CameraModel = library.Ptr(v)
	}
	if v := c.String("lens"); v != "" {
		f.LensModel = library.Ptr(v)
	}
	if v := c.String("type"); v != "" {
		t := strings.ToUpper(v)
		if t != string(library.FileTypeRaw) && t != string(library.FileTypeJPEG) {
			return f, fmt.Errorf("--type must be RAW or JPEG, got %q", v)
		}
		f.FileType = library.Ptr(t)
	}

	if v := c.String("iso"); v != "" {
		r, err := parseRange(v, func(s string) (uint32, error) {
			n, err := strconv.ParseUint(s, 10, 32)
			return uint32(n), err
		})
		if err != nil {
			return f, fmt.Errorf("--iso: %w", err)
		}
		f.ISORange = &r
	}
	if v := c.String("focal"); v != "" {
		r, err := parseRange(v, parseFloat)
		if err != nil {
			return f, fmt.Errorf("--focal: %w", err)
		}
		f.FocalLengthRange = &r
	}
	if v := c.String("aperture"); v != "" {
		r, err := parseRange(v, parseFloat)
		if err != nil {
			return f, fmt.Errorf("--aperture: %w", err)
		}
		f.ApertureRange = &r
	}
	if v := c.String("date"); v != "" {
		r, err := parseDateRange(v)
		if err != nil {
			return f, fmt.Errorf("--date: %w", err)
		}
		f.DateRange = &r
	}

	return f, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimPrefix(strings.ToLower(s), "f/"), 64)
}

// parseRange parses "MIN:MAX". A single value is an exact match.
func parseRange[T library.Bound](s string, parse func(string) (T, error)) (library.Range[T], error) {
	lo, hi, found := strings.Cut(s, ":")
	if !found {
		hi = lo
	}
	lower, err := parse(strings.TrimSpace(lo))
	if err != nil {
		return library.Range[T]{}, fmt.Errorf("invalid minimum %q", lo)
	}
	upper, err := parse(strings.TrimSpace(hi))
	if err != nil {
		return library.Range[T]{}, fmt.Errorf("invalid maximum %q", hi)
	}
	return library.Range[T]{Min: lower, Max: upper}, nil
}

// parseDateRange accepts dates or RFC 3339 timestamps. A plain end date
// covers that whole day. RFC 3339 values contain colons, so the range
// separator is the first colon that follows a complete date.
func parseDateRange(s string) (library.Range[time.Time], error) {
	lo, hi := splitDateRange(s)

	lower, err := parseDate(lo, false)
	if err != nil {
		return library.Range[time.Time]{}, err
	}
	upper, err := parseDate(hi, true)
	if err != nil {
		return library.Range[time.Time]{}, err
	}
	return library.Range[time.Time]{Min: lower, Max: upper}, nil
}

func splitDateRange(s string) (string, string) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		v := t.Format(time.RFC3339)
		return v, v
	}
	for i := 0; i < len(s); i++ {
		if s[i] != ':' {
			continue
		}
		if _, err := parseDate(s[:i], false); err == nil {
			return s[:i], s[i+1:]
		}
	}
	return s, s
}

func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
