package graph

import (
	"context"
	"fmt"
)

// NodeType represents the type of a node in the workflow graph
type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeEnd       NodeType = "end"
	NodeTypeLLM       NodeType = "llm"
	NodeTypeRetrieval NodeType = "retrieval"
	NodeTypeCondition NodeType = "condition"
)

// State represents the execution state passed between nodes
type State map[string]any

// NodeFunc is the function executed by a node
type NodeFunc func(context.Context, State) (State, error)

// ConditionFunc evaluates a branch condition and returns a branch label
type ConditionFunc func(context.Context, State) (string, error)

// Node represents a node in the workflow graph
type Node struct {
	Name      string
	Type      NodeType
	Execute   NodeFunc
	Condition ConditionFunc     // Only for condition nodes
	Next      string            // Default successor
	Branches  map[string]string // For condition nodes: branch label -> next node
}

// Graph is a single-path workflow: each node has exactly one successor except
// condition nodes, which pick a successor from their branch map. Execution
// walks from the start node to an end node, threading State through every
// node function.
type Graph struct {
	nodes     map[string]*Node
	startNode string
	maxVisits int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		maxVisits: 10,
	}
}

func (g *Graph) addNode(node *Node) {
	if node.Name == "" {
		panic("node name cannot be empty")
	}
	if _, exists := g.nodes[node.Name]; exists {
		panic(fmt.Sprintf("node %s already exists", node.Name))
	}
	switch node.Type {
	case NodeTypeCondition:
		if node.Condition == nil {
			panic(fmt.Sprintf("condition node %s must have a Condition function", node.Name))
		}
	default:
		if node.Execute == nil {
			panic(fmt.Sprintf("node %s of type %s must have an Execute function", node.Name, node.Type))
		}
	}
	g.nodes[node.Name] = node
	if node.Type == NodeTypeStart {
		g.startNode = node.Name
	}
}

// SetMaxVisits bounds how many times any single node may run, guarding
// against cyclic graph definitions.
func (g *Graph) SetMaxVisits(maxVisits int) {
	if maxVisits > 0 {
		g.maxVisits = maxVisits
	}
}

// Execute runs the graph from the start node until an end node returns.
func (g *Graph) Execute(ctx context.Context, initial State) (State, error) {
	if g.startNode == "" {
		return nil, fmt.Errorf("start node not set")
	}

	state := initial
	if state == nil {
		state = make(State)
	}

	visited := make(map[string]int)
	current := g.startNode

	for {
		node, exists := g.nodes[current]
		if !exists {
			return nil, fmt.Errorf("node %s not found", current)
		}

		visited[current]++
		if visited[current] > g.maxVisits {
			return nil, fmt.Errorf("cycle detected at node %s", current)
		}

		if node.Type == NodeTypeCondition {
			label, err := node.Condition(ctx, state)
			if err != nil {
				return nil, err
			}
			next, ok := node.Branches[label]
			if !ok {
				return nil, fmt.Errorf("condition node %s has no branch for %q", node.Name, label)
			}
			current = next
			continue
		}

		next, err := node.Execute(ctx, state)
		if err != nil {
			return nil, err
		}
		state = next

		if node.Type == NodeTypeEnd {
			return state, nil
		}
		if node.Next == "" {
			return nil, fmt.Errorf("node %s has no successor", node.Name)
		}
		current = node.Next
	}
}

// Builder assembles a graph fluently.
type Builder struct {
	graph *Graph
}

// NewBuilder creates a new graph builder
func NewBuilder() *Builder {
	return &Builder{graph: NewGraph()}
}

// AddNode adds a node to the graph
func (b *Builder) AddNode(name string, nodeType NodeType, execute NodeFunc) *Builder {
	b.graph.addNode(&Node{
		Name:    name,
		Type:    nodeType,
		Execute: execute,
	})
	return b
}

// AddConditionNode adds a branch node routed by the condition's label.
func (b *Builder) AddConditionNode(name string, condition ConditionFunc, branches map[string]string) *Builder {
	b.graph.addNode(&Node{
		Name:      name,
		Type:      NodeTypeCondition,
		Condition: condition,
		Branches:  branches,
	})
	return b
}

// AddEdge connects a node to its successor.
func (b *Builder) AddEdge(from, to string) *Builder {
	node, exists := b.graph.nodes[from]
	if !exists {
		panic(fmt.Sprintf("node %s not found", from))
	}
	if node.Type == NodeTypeCondition {
		panic(fmt.Sprintf("condition node %s routes through its branch map", from))
	}
	node.Next = to
	return b
}

// SetStart sets the start node
func (b *Builder) SetStart(name string) *Builder {
	if _, exists := b.graph.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	b.graph.startNode = name
	return b
}

// Build returns the constructed graph
func (b *Builder) Build() *Graph {
	return b.graph
}
