package engine

// DefaultSystemPrompt is the persona instruction sent with every
// completion request. Serene is a peer companion, not a clinical
// assistant.
const DefaultSystemPrompt = `You are Serene, a virtual friend who chats dynamically with users. ` +
	`You behave like a real human buddy, not a machine. ` +
	`Be friendly but avoid being overly dramatic or romantic. ` +
	`Your main goal is to be a supportive companion, especially in mental wellness discussions. ` +
	`You should keep your response to the point and be precise. Keep the user engaged like a real friend.`

// Fixed user-facing fallback strings. The user always sees either a real
// reply or one of these; raw errors are only logged.
const (
	// ReplyParseFailure is returned when the completion service answered
	// but the response body was unusable. Not retried.
	ReplyParseFailure = "Error processing response."

	// ReplyUnavailable is returned after the retry budget is exhausted or
	// the service rejected the request outright.
	ReplyUnavailable = "I'm sorry, I couldn't process that request right now. Please try again later."
)
