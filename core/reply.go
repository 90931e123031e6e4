package core

// quickReplies are the static follow-up suggestions returned with every
// generated reply. They are independent of the model output.
var quickReplies = []string{
	"Tell me more about that. 💙",
	"How has your day been? 😊",
	"Would you like some relaxation techniques? 🌿",
	"I'm here to listen. What's on your mind? 🤗",
}

// QuickReplies returns the fixed quick-reply suggestion set.
func QuickReplies() []string {
	out := make([]string, len(quickReplies))
	copy(out, quickReplies)
	return out
}

// Reply is the result of generating a response to a user message.
type Reply struct {
	// Text is either the model's generated reply or one of two fixed
	// fallback strings. It is never empty.
	Text string

	// QuickReplies is the fixed suggestion set.
	QuickReplies []string

	// Persisted reports whether both sides of the exchange were durably
	// recorded. Storage failures never block reply delivery, so a reply
	// with Persisted=false is still a valid reply.
	Persisted bool
}

// ResetResult reports the outcome of clearing a user's conversation history.
type ResetResult struct {
	// Cleared is true when at least one record was removed.
	Cleared bool

	// Count is the number of records removed. A second reset in a row
	// reports zero rather than erroring.
	Count int
}
