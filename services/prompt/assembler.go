package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/easymo/generation-control-plane/models"
)

// guardrailHeader opens the policy block of every assembled prompt.
const guardrailHeader = "Follow these guardrails before generating visuals:"

// Assembly is the deterministic output of prompt composition. Hash is the
// SHA-256 fingerprint of the final text: identical inputs always produce an
// identical hash, and any change to any section changes it.
type Assembly struct {
	FinalPrompt string
	Hash        string
}

// Assembler deterministically composes the guarded prompt sent to the
// generation provider. It is pure; the orchestrator owns all side effects.
type Assembler struct{}

// NewAssembler creates a new Assembler
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds the final prompt from policy fragments and the caller's
// creative brief. Sections appear in a fixed order, separated by a blank
// line; absent optional sections are omitted entirely.
func (a *Assembler) Assemble(guide *models.BrandGuide, figure *models.Figure, req *models.GenerationRequest) Assembly {
	var segments []string
	if guide != nil {
		if guide.VoiceTone != "" {
			segments = append(segments, fmt.Sprintf("Voice & tone: %s", guide.VoiceTone))
		}
		if len(guide.BrandPillars) > 0 {
			segments = append(segments, fmt.Sprintf("Brand pillars: %s", strings.Join(guide.BrandPillars, ", ")))
		}
		if guide.SafetyGuidelines != "" {
			segments = append(segments, fmt.Sprintf("Safety guidance: %s", guide.SafetyGuidelines))
		}
		if guide.LegalDisclaimer != "" {
			segments = append(segments, fmt.Sprintf("Legal disclaimer: %s", guide.LegalDisclaimer))
		}
	}
	if figure != nil {
		if figure.PolicyNotes != "" {
			segments = append(segments, fmt.Sprintf("Figure-specific direction: %s", figure.PolicyNotes))
		}
		if figure.LegalNotes != "" {
			segments = append(segments, fmt.Sprintf("Figure legal notes: %s", figure.LegalNotes))
		}
	}
	if guide != nil && len(guide.ForbiddenTerms) > 0 {
		segments = append(segments, fmt.Sprintf("Never include the following terms or claims: %s", strings.Join(guide.ForbiddenTerms, ", ")))
	}

	var sections []string
	if len(segments) > 0 {
		var block strings.Builder
		block.WriteString(guardrailHeader)
		for _, segment := range segments {
			block.WriteString("\n- ")
			block.WriteString(segment)
		}
		sections = append(sections, block.String())
	}

	sections = append(sections, "Creative brief:\n"+strings.TrimSpace(req.Prompt))

	if req.Locale != "" {
		sections = append(sections, fmt.Sprintf("Locale: %s", req.Locale))
	}
	if country := req.NormalizedCountry(); country != "" {
		sections = append(sections, fmt.Sprintf("Target country: %s", country))
	}
	if region := req.NormalizedRegion(); region != "" {
		sections = append(sections, fmt.Sprintf("Target region: %s", region))
	}
	if len(req.Metadata) > 0 {
		sections = append(sections, fmt.Sprintf("Metadata: %s", canonicalMetadata(req.Metadata)))
	}

	finalPrompt := strings.Join(sections, "\n\n")
	digest := sha256.Sum256([]byte(finalPrompt))

	return Assembly{
		FinalPrompt: finalPrompt,
		Hash:        hex.EncodeToString(digest[:]),
	}
}

// canonicalMetadata serializes metadata with sorted keys so the same map
// always yields the same bytes, keeping the prompt hash stable.
func canonicalMetadata(metadata map[string]string) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(k)
		val, _ := json.Marshal(metadata[k])
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String()
}
