package export

import (
	"fmt"
	"strings"

	"github.com/vitrine-studio/vitrine/internal/plan"
)

// Mermaid renders the navigation graph as a Mermaid flowchart. Vertical
// sites flow top-down; horizontal and linear sites flow left-right.
func (g *NavigationGraph) Mermaid() string {
	direction := "LR"
	if g.PrimaryAxis == plan.AxisVertical {
		direction = "TD"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	for _, n := range g.Nodes {
		label := n.SlideID
		if len(n.Datasets) > 0 {
			label = fmt.Sprintf("%s: %.40s", n.SlideID, strings.Join(n.Datasets, ", "))
		}
		fmt.Fprintf(&sb, "  %s[\"%s\"]\n", n.SlideID, label)
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "  %s -->|%s| %s\n", e.From, e.Gesture, e.To)
	}

	return sb.String()
}
