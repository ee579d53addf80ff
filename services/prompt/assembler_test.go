package prompt

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easymo/generation-control-plane/models"
)

func fullGuide() *models.BrandGuide {
	return &models.BrandGuide{
		ID:               uuid.New(),
		VoiceTone:        "Playful but respectful",
		BrandPillars:     []string{"authentic", "joyful"},
		SafetyGuidelines: "No depictions of risky behavior",
		LegalDisclaimer:  "Content is fictional",
		ForbiddenTerms:   []string{"guaranteed results"},
	}
}

func fullFigure() *models.Figure {
	return &models.Figure{
		ID:          uuid.New(),
		Name:        "Ambassador",
		PolicyNotes: "Always smiling, never holding products",
		LegalNotes:  "Likeness licensed through 2026",
	}
}

func baseRequest() *models.GenerationRequest {
	return &models.GenerationRequest{
		Prompt:  "  Rooftop sunset scene  ",
		Locale:  "de-DE",
		Country: " DE ",
		Region:  "Berlin",
	}
}

func TestAssemble(t *testing.T) {
	a := NewAssembler()

	t.Run("all sections in fixed order", func(t *testing.T) {
		out := a.Assemble(fullGuide(), fullFigure(), baseRequest())

		sections := strings.Split(out.FinalPrompt, "\n\n")
		require.Len(t, sections, 5)

		guardrails := sections[0]
		assert.True(t, strings.HasPrefix(guardrails, "Follow these guardrails before generating visuals:"))
		assert.Contains(t, guardrails, "- Voice & tone: Playful but respectful")
		assert.Contains(t, guardrails, "- Brand pillars: authentic, joyful")
		assert.Contains(t, guardrails, "- Safety guidance: No depictions of risky behavior")
		assert.Contains(t, guardrails, "- Legal disclaimer: Content is fictional")
		assert.Contains(t, guardrails, "- Figure-specific direction: Always smiling, never holding products")
		assert.Contains(t, guardrails, "- Figure legal notes: Likeness licensed through 2026")
		assert.Contains(t, guardrails, "- Never include the following terms or claims: guaranteed results")

		assert.Equal(t, "Creative brief:\nRooftop sunset scene", sections[1])
		assert.Equal(t, "Locale: de-DE", sections[2])
		assert.Equal(t, "Target country: de", sections[3])
		assert.Equal(t, "Target region: berlin", sections[4])
	})

	t.Run("no guide and no figure yields brief only", func(t *testing.T) {
		req := &models.GenerationRequest{Prompt: "A quiet street"}
		out := a.Assemble(nil, nil, req)
		assert.Equal(t, "Creative brief:\nA quiet street", out.FinalPrompt)
	})

	t.Run("empty guide fields are omitted", func(t *testing.T) {
		guide := &models.BrandGuide{ID: uuid.New(), VoiceTone: "Calm"}
		req := &models.GenerationRequest{Prompt: "A quiet street"}
		out := a.Assemble(guide, nil, req)

		assert.Contains(t, out.FinalPrompt, "- Voice & tone: Calm")
		assert.NotContains(t, out.FinalPrompt, "Brand pillars")
		assert.NotContains(t, out.FinalPrompt, "Safety guidance")
		assert.NotContains(t, out.FinalPrompt, "Never include")
	})

	t.Run("metadata serialized with sorted keys", func(t *testing.T) {
		req := &models.GenerationRequest{
			Prompt:   "scene",
			Metadata: map[string]string{"zeta": "1", "alpha": "2"},
		}
		out := a.Assemble(nil, nil, req)
		assert.Contains(t, out.FinalPrompt, `Metadata: {"alpha":"2","zeta":"1"}`)
	})

	t.Run("hash is deterministic", func(t *testing.T) {
		guide, figure := fullGuide(), fullFigure()
		req := baseRequest()
		req.Metadata = map[string]string{"b": "2", "a": "1", "c": "3"}

		first := a.Assemble(guide, figure, req)
		for i := 0; i < 20; i++ {
			again := a.Assemble(guide, figure, req)
			assert.Equal(t, first.Hash, again.Hash)
			assert.Equal(t, first.FinalPrompt, again.FinalPrompt)
		}
		assert.Len(t, first.Hash, 64)
	})

	t.Run("hash changes when any input changes", func(t *testing.T) {
		guide, figure := fullGuide(), fullFigure()
		base := a.Assemble(guide, figure, baseRequest())

		changedReq := baseRequest()
		changedReq.Prompt = "Rooftop sunrise scene"
		assert.NotEqual(t, base.Hash, a.Assemble(guide, figure, changedReq).Hash)

		changedGuide := fullGuide()
		changedGuide.VoiceTone = "Solemn"
		assert.NotEqual(t, base.Hash, a.Assemble(changedGuide, figure, baseRequest()).Hash)
	})

	t.Run("surrounding whitespace in the brief does not change the hash", func(t *testing.T) {
		reqA := &models.GenerationRequest{Prompt: "scene"}
		reqB := &models.GenerationRequest{Prompt: "\n  scene\t "}
		assert.Equal(t, a.Assemble(nil, nil, reqA).Hash, a.Assemble(nil, nil, reqB).Hash)
	})
}
