package domain

// ReplyMaxRunes bounds every reply sent back to the messaging platform.
const ReplyMaxRunes = 2000

const replyOverflowHint = "...\n\n💡 Ask a follow-up for more detail!"

// BoundReply enforces the reply-length bound. Oversized text is cut at a rune
// boundary and the overflow hint appended; the result never exceeds
// ReplyMaxRunes runes.
func BoundReply(text string) string {
	runes := []rune(text)
	if len(runes) <= ReplyMaxRunes {
		return text
	}
	hint := []rune(replyOverflowHint)
	return string(runes[:ReplyMaxRunes-len(hint)]) + replyOverflowHint
}
