package widget

// Routes are the pages the assistant may send the visitor to.
var Routes = []string{"/", "/services", "/about", "/contact", "/blog", "/privacy", "/terms"}

// QuickAction is a canned prompt offered before the conversation starts.
type QuickAction struct {
	Label  string
	Prompt string
}

// QuickActions are offered while the transcript is short.
var QuickActions = []QuickAction{
	{Label: "Our Services", Prompt: "What services does Zyora offer?"},
	{Label: "Book a Call", Prompt: "I'd like to schedule a consultation"},
	{Label: "About Zyora", Prompt: "Tell me about Zyora AI Agency"},
}

func knownRoute(routes []string, path string) bool {
	for _, r := range routes {
		if r == path {
			return true
		}
	}
	return false
}
