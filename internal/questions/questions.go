// Package questions holds the fixed interview script. Both the lifecycle
// engine's index bounds and the voice engine's cursor read this one list, so
// a deployment cannot end up with divergent copies.
package questions

// List is the interview question script, asked in order.
var List = []string{
	"Tell me about yourself and your background.",
	"Why are you interested in this role?",
	"Describe a challenging project you worked on and how you handled it.",
	"What do you consider your greatest professional strength?",
	"Tell me about a time you disagreed with a teammate. How did you resolve it?",
	"How do you keep your skills up to date?",
	"Where do you see yourself in the next few years?",
	"Do you have any questions for us, or anything else you'd like to add?",
}

// Count returns the number of questions in the script.
func Count() int { return len(List) }

// At returns the question at index i, or "" if i is out of range.
func At(i int) string {
	if i < 0 || i >= len(List) {
		return ""
	}
	return List[i]
}
