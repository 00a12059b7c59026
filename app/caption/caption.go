// Package caption renders the HTML caption sent with a post's cover image.
package caption

import (
	"html"
	"strings"
	"unicode"

	"mangapost/app/models"
)

// Hashtags turns tags into "#tag" tokens, removing any whitespace inside a tag.
func Hashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		compact := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, tag)
		if compact == "" {
			continue
		}
		out = append(out, "#"+compact)
	}
	return out
}

// Format builds the caption using Telegram's HTML parse mode.
func Format(title, description string, tags []string, isAdult bool) string {
	var b strings.Builder

	b.WriteString("<b>🔥 NEW UPLOAD: ")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</b>\n\n")

	b.WriteString("📝 <b>Summary:</b>\n<i>")
	b.WriteString(html.EscapeString(description))
	b.WriteString("</i>\n\n")

	if hashtags := Hashtags(tags); len(hashtags) > 0 {
		b.WriteString("🏷 <b>Tags:</b>\n")
		b.WriteString(html.EscapeString(strings.Join(hashtags, " ")))
		b.WriteString("\n\n")
	}

	if isAdult {
		b.WriteString("🔒 <b>18+ ONLY</b>\n\n")
	}

	b.WriteString("🚀 <i>Click below to read the full manga!</i>")
	return b.String()
}

// ForPost formats the caption of a stored post.
func ForPost(p *models.Post) string {
	return Format(p.Title, p.Description, p.Tags, p.IsAdult)
}
