// Package whatsapp builds wa.me deep links that open a chat with a
// pre-filled message.
package whatsapp

import (
	"net/url"
	"strings"
)

// Link returns a https://wa.me/<phone>?text=<message> deep link. The phone
// number is normalized to digits only (wa.me rejects "+", spaces and dashes).
func Link(phone, message string) string {
	return "https://wa.me/" + NormalizePhone(phone) + "?text=" + url.QueryEscape(message)
}

// NormalizePhone strips every non-digit character from a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
