package models

// Kind classifies what a memory fact represents.
type Kind string

const (
	KindNote         Kind = "NOTE"
	KindDecision     Kind = "DECISION"
	KindSnippet      Kind = "SNIPPET"
	KindConversation Kind = "CONVERSATION"
)

var ValidKinds = map[Kind]bool{
	KindNote:         true,
	KindDecision:     true,
	KindSnippet:      true,
	KindConversation: true,
}

func (k Kind) IsValid() bool {
	return ValidKinds[k]
}
