package utils

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// FormatInt renders n with comma thousands separators ("29099" → "29,099")
// for operator logs and reports.
func FormatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatEUR renders a euro amount rounded to whole euros, e.g. "€85,635".
func FormatEUR(amount float64) string {
	return "€" + FormatInt(int(math.Round(amount)))
}

// TitleFromSlug turns a dealer slug into a display name:
// "wow-auto-rulate" → "Wow Auto Rulate".
func TitleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
