// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package logging

import "strings"

// RedactCredential masks a bearer token or shared secret for logging. At most
// the first four characters survive.
func RedactCredential(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "****"
}

// SanitizeValue strips control characters so user-supplied values cannot forge log lines,
// and truncates them to maxLen runes.
func SanitizeValue(value string, maxLen int) string {
	var b strings.Builder
	n := 0
	for _, r := range value {
		if n >= maxLen {
			b.WriteString("...")
			break
		}
		if r < 0x20 || r == 0x7f {
			r = '_'
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
