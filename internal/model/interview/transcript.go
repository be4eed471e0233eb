package interview

import "strings"

const (
	userPrefix      = "User: "
	assistantPrefix = "Assistant: "
)

// Entry is one candidate utterance and the interviewer reply that followed it.
type Entry struct {
	User     string `json:"user"`
	Response string `json:"response"`
}

// Transcript is the append-only text form of a conversation:
// "User: <utterance>\nAssistant: <reply>\n" per entry.
type Transcript struct {
	text string
}

// Append records an entry. Embedded line breaks are folded into spaces so
// every entry stays exactly two lines long.
func (t *Transcript) Append(utterance, reply string) {
	var b strings.Builder
	b.Grow(len(t.text) + len(utterance) + len(reply) + len(userPrefix) + len(assistantPrefix) + 2)
	b.WriteString(t.text)
	b.WriteString(userPrefix)
	b.WriteString(singleLine(utterance))
	b.WriteByte('\n')
	b.WriteString(assistantPrefix)
	b.WriteString(singleLine(reply))
	b.WriteByte('\n')
	t.text = b.String()
}

// Text returns the stored text form.
func (t Transcript) Text() string {
	return t.text
}

// Words counts whitespace-separated words in the text form.
func (t Transcript) Words() int {
	return len(strings.Fields(t.text))
}

// Entries rebuilds the ordered entries from the text form.
func (t Transcript) Entries() []Entry {
	return ParseTranscript(t.text)
}

// ParseTranscript pairs "User: " lines with the "Assistant: " line that
// follows them. Lines that do not form such a pair are skipped.
func ParseTranscript(text string) []Entry {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	entries := make([]Entry, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); {
		user, okUser := strings.CutPrefix(strings.TrimRight(lines[i], "\r"), userPrefix)
		reply, okReply := strings.CutPrefix(strings.TrimRight(lines[i+1], "\r"), assistantPrefix)
		if !okUser || !okReply {
			i++
			continue
		}
		entries = append(entries, Entry{User: strings.TrimSpace(user), Response: strings.TrimSpace(reply)})
		i += 2
	}
	return entries
}

func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(strings.TrimSpace(s))
}
