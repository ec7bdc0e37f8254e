package model

import (
	"strings"
)

// Turn is a single utterance in a dialogue.
type Turn struct {
	Speaker string `json:"speaker" firestore:"speaker"`
	Content string `json:"content" firestore:"content"`
}

// Dialogue is an ordered, append-only sequence of turns. Add never touches the
// receiver's visible turns, so a Dialogue value handed to an agent is a
// read-only view of the conversation so far.
type Dialogue struct {
	turns []Turn
}

// NewDialogue creates a dialogue holding a copy of the given turns.
func NewDialogue(turns ...Turn) Dialogue {
	return Dialogue{turns: append([]Turn(nil), turns...)}
}

// Add returns a new dialogue with one more turn at the end.
func (d Dialogue) Add(speaker, content string) Dialogue {
	turns := make([]Turn, len(d.turns), len(d.turns)+1)
	copy(turns, d.turns)
	return Dialogue{turns: append(turns, Turn{Speaker: speaker, Content: content})}
}

// Len returns the number of turns.
func (d Dialogue) Len() int { return len(d.turns) }

// At returns the i-th turn. Negative indices count from the end, so At(-1) is
// the latest turn. It panics when i is out of range, like slice indexing.
func (d Dialogue) At(i int) Turn {
	if i < 0 {
		i += len(d.turns)
	}
	return d.turns[i]
}

// Turns returns a copy of all turns.
func (d Dialogue) Turns() []Turn {
	return append([]Turn(nil), d.turns...)
}

// Speakers returns distinct speaker names in order of first appearance.
func (d Dialogue) Speakers() []string {
	seen := make(map[string]bool)
	var speakers []string
	for _, t := range d.turns {
		if !seen[t.Speaker] {
			seen[t.Speaker] = true
			speakers = append(speakers, t.Speaker)
		}
	}
	return speakers
}

// String renders the dialogue as "(Speaker) content" paragraphs.
func (d Dialogue) String() string {
	var b strings.Builder
	for i, t := range d.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("(")
		b.WriteString(t.Speaker)
		b.WriteString(") ")
		b.WriteString(t.Content)
	}
	return b.String()
}
