package graph

import (
	"context"
	"strings"
	"testing"
)

func appendStep(name string) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		trail, _ := state["trail"].(string)
		if trail != "" {
			trail += ","
		}
		state["trail"] = trail + name
		return state, nil
	}
}

func TestLinearExecution(t *testing.T) {
	g := NewBuilder().
		AddNode("start", NodeTypeStart, appendStep("start")).
		AddNode("work", NodeTypeLLM, appendStep("work")).
		AddNode("end", NodeTypeEnd, appendStep("end")).
		AddEdge("start", "work").
		AddEdge("work", "end").
		SetStart("start").
		Build()

	state, err := g.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if state["trail"] != "start,work,end" {
		t.Fatalf("unexpected trail: %v", state["trail"])
	}
}

func TestConditionBranching(t *testing.T) {
	for _, branch := range []string{"left", "right"} {
		g := NewBuilder().
			AddNode("start", NodeTypeStart, appendStep("start")).
			AddConditionNode("gate", func(ctx context.Context, state State) (string, error) {
				return branch, nil
			}, map[string]string{
				"left":  "leftNode",
				"right": "end",
			}).
			AddNode("leftNode", NodeTypeLLM, appendStep("left")).
			AddNode("end", NodeTypeEnd, appendStep("end")).
			AddEdge("start", "gate").
			AddEdge("leftNode", "end").
			SetStart("start").
			Build()

		state, err := g.Execute(context.Background(), nil)
		if err != nil {
			t.Fatalf("Execute error on branch %s: %v", branch, err)
		}
		trail := state["trail"].(string)
		if branch == "left" && trail != "start,left,end" {
			t.Fatalf("left branch trail: %s", trail)
		}
		if branch == "right" && trail != "start,end" {
			t.Fatalf("right branch trail: %s", trail)
		}
	}
}

func TestUnknownBranchLabelFails(t *testing.T) {
	g := NewBuilder().
		AddNode("start", NodeTypeStart, appendStep("start")).
		AddConditionNode("gate", func(ctx context.Context, state State) (string, error) {
			return "mystery", nil
		}, map[string]string{"known": "end"}).
		AddNode("end", NodeTypeEnd, appendStep("end")).
		AddEdge("start", "gate").
		SetStart("start").
		Build()

	if _, err := g.Execute(context.Background(), nil); err == nil {
		t.Fatal("expected error for unknown branch label")
	} else if !strings.Contains(err.Error(), "mystery") {
		t.Fatalf("error should name the missing label: %v", err)
	}
}

func TestCycleGuard(t *testing.T) {
	g := NewBuilder().
		AddNode("start", NodeTypeStart, appendStep("start")).
		AddNode("loop", NodeTypeLLM, appendStep("loop")).
		AddEdge("start", "loop").
		AddEdge("loop", "loop").
		SetStart("start").
		Build()
	g.SetMaxVisits(3)

	if _, err := g.Execute(context.Background(), nil); err == nil {
		t.Fatal("expected cycle detection error")
	}
}

func TestMissingSuccessorFails(t *testing.T) {
	g := NewBuilder().
		AddNode("start", NodeTypeStart, appendStep("start")).
		SetStart("start").
		Build()

	if _, err := g.Execute(context.Background(), nil); err == nil {
		t.Fatal("expected error for node without successor")
	}
}
