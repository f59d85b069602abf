package run

import (
	"fmt"
	"strings"

	"github.com/pajamadot/recall/pkg/model"
)

const (
	digestMemoryCap   = 12
	digestDocumentCap = 8
	fallbackMemoryCap = 8
)

// buildDigest formats the seed evidence into the first user turn: memories
// with id, category, confidence, excerpt, tags and linked assets, then
// document matches with their breadcrumb path, followed by the literal
// question.
func buildDigest(ev *model.EvidenceSet, query string) string {
	var b strings.Builder

	if len(ev.Memories) == 0 && len(ev.Documents) == 0 {
		b.WriteString("No evidence matched the initial retrieval.\n")
	}

	if len(ev.Memories) > 0 {
		fmt.Fprintf(&b, "## Retrieved memories (%d)\n", len(ev.Memories))
		for i, m := range ev.Memories {
			if i >= digestMemoryCap {
				fmt.Fprintf(&b, "… and %d more; use search_evidence to narrow down.\n", len(ev.Memories)-digestMemoryCap)
				break
			}
			fmt.Fprintf(&b, "- [mem:%s] (%s, confidence %.2f) %s\n", m.ID, m.Category, m.Confidence, m.Title)
			if m.ContentExcerpt != "" {
				fmt.Fprintf(&b, "  %s\n", m.ContentExcerpt)
			}
			if len(m.Tags) > 0 {
				fmt.Fprintf(&b, "  tags: %s\n", strings.Join(m.Tags, ", "))
			}
			if assets := ev.AssetsIndex[m.ID]; len(assets) > 0 {
				refs := make([]string, 0, len(assets))
				for _, a := range assets {
					refs = append(refs, fmt.Sprintf("[asset:%s]", a.ID))
				}
				fmt.Fprintf(&b, "  linked assets: %s\n", strings.Join(refs, " "))
			}
		}
		b.WriteString("\n")
	}

	if len(ev.Documents) > 0 {
		fmt.Fprintf(&b, "## Document matches (%d)\n", len(ev.Documents))
		for i, d := range ev.Documents {
			if i >= digestDocumentCap {
				fmt.Fprintf(&b, "… and %d more.\n", len(ev.Documents)-digestDocumentCap)
				break
			}
			fmt.Fprintf(&b, "- [doc:%s#%s] %s", d.ArtifactID, d.NodeID, d.Title)
			if len(d.Path) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(d.Path, " > "))
			}
			b.WriteString("\n")
			if d.Excerpt != "" {
				fmt.Fprintf(&b, "  %s\n", d.Excerpt)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Question\n")
	b.WriteString(query)
	return b.String()
}

// fallbackAnswer builds the deterministic answer used when no synthesis
// happened: the top evidence memories plus an actionable next step, never a
// bare null while memories exist.
func fallbackAnswer(ev *model.EvidenceSet) string {
	if len(ev.Memories) == 0 {
		return "No memories matched this query. Try a broader query, or record what you know with record_memory so future runs can find it."
	}

	var b strings.Builder
	b.WriteString("Top matching memories:\n")
	for i, m := range ev.Memories {
		if i >= fallbackMemoryCap {
			break
		}
		fmt.Fprintf(&b, "- [mem:%s] %s (%s)\n", m.ID, m.Title, m.Category)
	}
	b.WriteString("\nReview these memories, then record a memory or attach supporting assets to capture the conclusion.")
	return b.String()
}
