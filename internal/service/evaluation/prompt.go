package evaluation

import (
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/interview-sim/backend/internal/model/interview"
)

const systemPrompt = `You are an expert evaluator for technical interviews. Evaluate the following conversation based on these criteria:

{{range .criteria}}- {{.Parameter}} (Max Score: {{.TopScore}}, {{.MarkingType}}): {{.Detail}}
{{end}}
Your response MUST be a valid JSON object with no additional text.
Follow exactly this JSON format:
{
  "evaluations": [
    {
      "parameter": "<Parameter Name>",
      "result": "<'Pass'/'Fail' or numeric score>",
      "score": "<Score>/<Max Score>",
      "evidence": ["<evidence text>"]
    }
  ],
  "Overall_score": "<Total Score>/{{.total}}",
  "Overall_grammar": "<Assessment of grammar quality>",
  "Overall_accent": "<Assessment of tone and communication>",
  "Overall_analysis": "<Overall interview analysis summary>"
}`

const userPrompt = `Evaluate the following interview conversation based on the criteria above. Provide more elaborate analysis for Technical Knowledge and Problem Solving, while keeping Communication and Interpersonal Skills evaluation concise.

Scoring guide:
{{range .criteria}}- {{.Parameter}}: {{.ScoringGuide}}
{{end}}
**Conversation Transcript:**
{{.transcript}}`

func chatTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	)
}

// conversationText renders entries the way the scorer expects to read them.
func conversationText(entries []interview.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, "User: "+e.User+"\nAssistant: "+e.Response)
	}
	return strings.Join(lines, "\n")
}
