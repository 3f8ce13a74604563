// Package export derives shareable views of a run: the navigation graph of
// the generated site and a JSON summary of stages and artifacts.
package export

import (
	"github.com/vitrine-studio/vitrine/internal/plan"
)

// NavNode is one slide in the navigation graph.
type NavNode struct {
	SlideID  string   `json:"slide_id"`
	Datasets []string `json:"datasets"`
}

// NavEdge is a gesture transition between two slides.
type NavEdge struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Gesture string `json:"gesture"`
}

// NavigationGraph describes how a visitor moves through the site.
type NavigationGraph struct {
	PrimaryAxis   plan.Axis `json:"primary_axis"`
	SecondaryAxis plan.Axis `json:"secondary_axis"`
	Nodes         []NavNode `json:"nodes"`
	Edges         []NavEdge `json:"edges"`
}

// forwardGesture maps an axis to the gesture that advances along it.
func forwardGesture(a plan.Axis) string {
	switch a {
	case plan.AxisVertical:
		return "swipe-up"
	case plan.AxisHorizontal:
		return "swipe-left"
	default:
		return "next"
	}
}

// backwardGesture maps an axis to the gesture that goes back along it.
func backwardGesture(a plan.Axis) string {
	switch a {
	case plan.AxisVertical:
		return "swipe-down"
	case plan.AxisHorizontal:
		return "swipe-right"
	default:
		return "previous"
	}
}

// BuildNavigation derives the navigation graph from a successful plan.
// Slides are linked in order along the primary axis, forward and backward.
func BuildNavigation(p *plan.Plan) *NavigationGraph {
	g := &NavigationGraph{
		PrimaryAxis:   p.PrimaryAxis,
		SecondaryAxis: p.SecondaryAxis,
	}

	for _, s := range p.SlideMappings {
		g.Nodes = append(g.Nodes, NavNode{SlideID: s.SlideID, Datasets: s.Datasets})
	}

	forward := forwardGesture(p.PrimaryAxis)
	backward := backwardGesture(p.PrimaryAxis)
	for i := 0; i+1 < len(p.SlideMappings); i++ {
		from := p.SlideMappings[i].SlideID
		to := p.SlideMappings[i+1].SlideID
		g.Edges = append(g.Edges,
			NavEdge{From: from, To: to, Gesture: forward},
			NavEdge{From: to, To: from, Gesture: backward},
		)
	}
	return g
}
