package engine

import (
	"fmt"
	"strings"

	"github.com/serenechat/serene-go/core"
)

// BuildContext assembles the prompt context: one "{sender}: {text}" line
// per retrieved message, in the order retrieval returned them, followed by
// the new input as a final "User:" line.
//
// No truncation or token budgeting happens here beyond the retrieval
// top-K; overflow is the completion service's concern.
func BuildContext(history []*core.Message, userInput string) string {
	var b strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Sender, msg.Text)
	}
	b.WriteString("User: ")
	b.WriteString(userInput)
	return b.String()
}
