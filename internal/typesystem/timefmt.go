// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package typesystem

import (
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
)

const (
	// DateFormat is the default input format of Date values.
	DateFormat = "%Y-%m-%d"
	// DateTimeFormat is the default input format of DateTime values.
	DateTimeFormat = "%Y-%m-%dT%H:%M:%S.%f"

	// dateTimeWithoutFraction is the length of "YYYY-MM-DDTHH:MM:SS".
	dateTimeWithoutFraction = 19
)

// parseTime reads value with a strftime format. Numeric fields take one or
// more digits, so "2020-1-5" matches %Y-%m-%d. A format without any '%' is
// taken to be a Go layout. Times without a zone are UTC.
func parseTime(value, format string) (time.Time, error) {
	if !strings.Contains(format, "%") {
		return time.Parse(format, value)
	}
	return timefmt.Parse(value, format)
}

// formatDate and formatDateTime render the canonical forms. %Y always
// produces four digits, so year 1 is "0001".
func formatDate(t time.Time) string {
	return timefmt.Format(t, DateFormat)
}

func formatDateTime(t time.Time) string {
	return timefmt.Format(t, DateTimeFormat)
}
