package datetoken

import (
	"strconv"
	"strings"
	"time"
)

// Format renders t with a letter-run pattern:
//
//	y+  year, last n digits (year mod 10^n), zero padded to n
//	M+  month
//	d+  day of month
//	h+  hour (24h)
//	m+  minute
//	s+  second
//	q+  quarter
//	S+  millisecond
//
// A single letter prints the value unpadded; longer runs pad to two digits
// (three for milliseconds). Any other character is copied as is.
//
// Years are truncated, not widened: Format(year 12023, "yyyy") is "2023".
func Format(t time.Time, pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))

	for i := 0; i < len(pattern); {
		c := pattern[i]
		j := i + 1
		for j < len(pattern) && pattern[j] == c {
			j++
		}
		n := j - i

		switch c {
		case 'y':
			b.WriteString(formatYear(t.Year(), n))
		case 'M':
			b.WriteString(pad(int(t.Month()), n, 2))
		case 'd':
			b.WriteString(pad(t.Day(), n, 2))
		case 'h':
			b.WriteString(pad(t.Hour(), n, 2))
		case 'm':
			b.WriteString(pad(t.Minute(), n, 2))
		case 's':
			b.WriteString(pad(t.Second(), n, 2))
		case 'q':
			b.WriteString(pad((int(t.Month())+2)/3, n, 2))
		case 'S':
			b.WriteString(pad(t.Nanosecond()/int(time.Millisecond), n, 3))
		default:
			b.WriteString(pattern[i:j])
		}
		i = j
	}
	return b.String()
}

func formatYear(year, digits int) string {
	mod := 1
	for k := 0; k < digits && mod < 1_000_000_000; k++ {
		mod *= 10
	}
	year %= mod
	if year < 0 {
		year += mod
	}
	return zeroPad(year, digits)
}

// pad prints v unpadded for a one-letter run and zero padded to width
// otherwise.
func pad(v, run, width int) string {
	if run == 1 {
		return strconv.Itoa(v)
	}
	return zeroPad(v, width)
}

func zeroPad(v, width int) string {
	s := strconv.Itoa(v)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
