package interview

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/interview-sim/backend/internal/model/persona"
)

// Variant selects which prompt drives a turn.
type Variant int

const (
	VariantInProgress Variant = iota
	VariantClosing
)

func (v Variant) String() string {
	if v == VariantClosing {
		return "closing"
	}
	return "in_progress"
}

// Template variable names shared by both variants.
const (
	varSystem  = "system"
	varResume  = "resume"
	varHistory = "history"
	varStage   = "stage"
	varQuery   = "query"
)

const inProgressUserPrompt = `Reference resume details when relevant:
{resume}

Current interview stage: {stage}% complete
Prior conversation: {history}

Candidate's latest response: {query}

Your next question or brief response (max 20 words):
see history and try to cover entire resume.`

const closingSystemPrompt = `You are a professional interviewer concluding an interview. End the conversation in no more than 20 words, stating that we will contact you for the next round and thanking you.`

const closingUserPrompt = `Resume Content:
{resume}

Conversation History:
{history}

Candidate's Latest Response:
{query}

Interviewer (you):`

// interviewRules apply to every in-progress turn regardless of persona.
var interviewRules = []string{
	"Ask only ONE question per response",
	"Use natural, conversational language",
	"Vary between technical and behavioral questions",
	"Respond to candidate's answers naturally",
	"Show authentic interview behavior (brief pauses, clarification requests)",
	"Don't label question types or explain your approach",
}

// Composer renders turn inputs. It holds no per-session state, so identical
// arguments always produce identical template variables.
type Composer struct {
	maxTurns int
}

// NewComposer creates a composer that switches to the closing prompt on turn maxTurns.
func NewComposer(maxTurns int) *Composer {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &Composer{maxTurns: maxTurns}
}

// Select returns the variant for the 1-based ordinal of the exchange being processed.
func (c *Composer) Select(turn int) Variant {
	if turn >= c.maxTurns {
		return VariantClosing
	}
	return VariantInProgress
}

// Compose builds the template variables for one exchange.
func (c *Composer) Compose(p persona.Persona, documentText, transcript, utterance string, turn int) (Variant, map[string]any) {
	variant := c.Select(turn)
	vars := map[string]any{
		varResume:  documentText,
		varHistory: transcript,
		varQuery:   utterance,
	}
	if variant == VariantInProgress {
		vars[varSystem] = BuildSystemPrompt(p)
		vars[varStage] = Stage(transcript)
	}
	return variant, vars
}

// Stage is the rough interview progress reported to the model: one percent per
// hundred words of transcript.
func Stage(transcript string) int {
	return len(strings.Fields(transcript)) / 100
}

// BuildSystemPrompt creates the interviewer instructions for a persona.
func BuildSystemPrompt(p persona.Persona) string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "Alex"
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "a technical interviewer"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s. Keep responses under 30 words.\n\nInstructions:\n", name, title)
	for _, rule := range interviewRules {
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteByte('\n')
	}
	if hint := strings.TrimSpace(p.PromptHint); hint != "" {
		b.WriteString("- ")
		b.WriteString(hint)
		b.WriteByte('\n')
	}
	if tone := strings.TrimSpace(p.Tone); tone != "" {
		fmt.Fprintf(&b, "- Keep your tone %s\n", tone)
	}
	if len(p.Focus) > 0 {
		fmt.Fprintf(&b, "- Pay particular attention to: %s\n", strings.Join(p.Focus, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// InProgressTemplate is the chat template for regular turns. The system
// message is passed in as a variable because it depends on the persona.
func InProgressTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{"+varSystem+"}"),
		schema.UserMessage(inProgressUserPrompt),
	)
}

// ClosingTemplate is the chat template for the final turn.
func ClosingTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(closingSystemPrompt),
		schema.UserMessage(closingUserPrompt),
	)
}
