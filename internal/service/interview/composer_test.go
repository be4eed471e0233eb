package interview

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/interview-sim/backend/internal/model/persona"
)

func alex(t *testing.T) persona.Persona {
	t.Helper()
	p, ok := persona.NewMemoryStore(persona.Seed()).FindByID(persona.DefaultID)
	require.True(t, ok)
	return p
}

func TestComposerSelect(t *testing.T) {
	c := NewComposer(10)
	assert.Equal(t, VariantInProgress, c.Select(1))
	assert.Equal(t, VariantInProgress, c.Select(9))
	assert.Equal(t, VariantClosing, c.Select(10))
	assert.Equal(t, VariantClosing, c.Select(11))
}

func TestComposeInProgressRendersPersonaAndStage(t *testing.T) {
	ctx := context.Background()
	c := NewComposer(10)
	history := strings.Repeat("word ", 250)

	variant, vars := c.Compose(alex(t), "Go, Kafka, {braces}", history, "I led a migration.", 3)
	require.Equal(t, VariantInProgress, variant)

	msgs, err := InProgressTemplate().Format(ctx, vars)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.True(t, strings.HasPrefix(msgs[0].Content, "You are Alex, a technical interviewer with 15+ years of experience. Keep responses under 30 words."))
	assert.Contains(t, msgs[0].Content, "- Ask only ONE question per response")
	assert.Contains(t, msgs[1].Content, "Current interview stage: 2% complete")
	assert.Contains(t, msgs[1].Content, "Go, Kafka, {braces}")
	assert.Contains(t, msgs[1].Content, "Candidate's latest response: I led a migration.")
	assert.Contains(t, msgs[1].Content, "try to cover entire resume")
}

func TestComposeClosing(t *testing.T) {
	ctx := context.Background()
	c := NewComposer(10)

	variant, vars := c.Compose(alex(t), "resume", "User: a\nAssistant: b\n", "Thanks!", 10)
	require.Equal(t, VariantClosing, variant)

	msgs, err := ClosingTemplate().Format(ctx, vars)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "no more than 20 words")
	assert.Contains(t, msgs[0].Content, "next round")
	assert.Contains(t, msgs[1].Content, "Candidate's Latest Response:\nThanks!")
}

func TestComposeIsDeterministic(t *testing.T) {
	ctx := context.Background()
	c := NewComposer(10)

	_, a := c.Compose(alex(t), "doc", "hist", "q", 2)
	_, b := c.Compose(alex(t), "doc", "hist", "q", 2)
	assert.Equal(t, a, b)

	ma, err := InProgressTemplate().Format(ctx, a)
	require.NoError(t, err)
	mb, err := InProgressTemplate().Format(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, ma, mb)
}

func TestStage(t *testing.T) {
	assert.Equal(t, 0, Stage(""))
	assert.Equal(t, 0, Stage(strings.Repeat("w ", 99)))
	assert.Equal(t, 1, Stage(strings.Repeat("w ", 100)))
}
