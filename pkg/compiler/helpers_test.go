package compiler

import (
	"github.com/omniroute/workflow-compiler/pkg/models"
)

// Graph construction helpers shared by the compiler tests.

func node(id string, nodeType models.NodeType, label string) *models.WorkflowNode {
	return &models.WorkflowNode{ID: id, Type: nodeType, Label: label}
}

func configNode(id string, nodeType models.NodeType, label string, config map[string]any) *models.WorkflowNode {
	return &models.WorkflowNode{ID: id, Type: nodeType, Label: label, Config: config}
}

func flowEdge(id, source, target string) *models.WorkflowEdge {
	return &models.WorkflowEdge{ID: id, Source: source, Target: target}
}

func condEdge(id, source, target, condition string) *models.WorkflowEdge {
	return &models.WorkflowEdge{ID: id, Source: source, Target: target, Condition: &condition}
}

func definition(name string, nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name:    name,
		Version: "1.0.0",
		Nodes:   nodes,
		Edges:   edges,
	}
}

// linearDefinition is start -> Send Email -> end.
func linearDefinition() *models.WorkflowDefinition {
	return definition("Email Flow",
		[]*models.WorkflowNode{
			node("start", models.NodeTypeStart, "Start"),
			node("send", models.NodeTypeActivity, "Send Email"),
			node("end", models.NodeTypeEnd, "End"),
		},
		[]*models.WorkflowEdge{
			flowEdge("e1", "start", "send"),
			flowEdge("e2", "send", "end"),
		})
}

// approvalDefinition is the order approval flow:
//
//	start -> Send Email -> decision --(amount > 100)--> Escalate -> end
//	                                \----(default)----> Approve  -> end
func approvalDefinition() *models.WorkflowDefinition {
	def := definition("Order Approval",
		[]*models.WorkflowNode{
			node("start", models.NodeTypeStart, "Start"),
			node("send", models.NodeTypeActivity, "Send Email"),
			node("check", models.NodeTypeDecision, "Check Amount"),
			node("escalate", models.NodeTypeActivity, "Escalate"),
			node("approve", models.NodeTypeActivity, "Approve"),
			node("end", models.NodeTypeEnd, "End"),
		},
		[]*models.WorkflowEdge{
			flowEdge("e1", "start", "send"),
			flowEdge("e2", "send", "check"),
			condEdge("e3", "check", "escalate", "amount > 100"),
			flowEdge("e4", "check", "approve"),
			flowEdge("e5", "escalate", "end"),
			flowEdge("e6", "approve", "end"),
		})

	def.Variables = []*models.Variable{
		{Name: "amount", Type: "number"},
	}

	return def
}

// forkDefinition is start -> gateway -> {Charge Card, Reserve Stock} -> join -> Notify -> end.
func forkDefinition() *models.WorkflowDefinition {
	return definition("Checkout",
		[]*models.WorkflowNode{
			node("start", models.NodeTypeStart, "Start"),
			node("fork", models.NodeTypeParallelGateway, "Fork"),
			node("charge", models.NodeTypeActivity, "Charge Card"),
			node("reserve", models.NodeTypeActivity, "Reserve Stock"),
			node("join", models.NodeTypeParallelJoin, "Join"),
			configNode("notify", models.NodeTypeNotification, "Notify Customer", map[string]any{"channel": "email"}),
			node("end", models.NodeTypeEnd, "End"),
		},
		[]*models.WorkflowEdge{
			flowEdge("e1", "start", "fork"),
			flowEdge("e2", "fork", "charge"),
			flowEdge("e3", "fork", "reserve"),
			flowEdge("e4", "charge", "join"),
			flowEdge("e5", "reserve", "join"),
			flowEdge("e6", "join", "notify"),
			flowEdge("e7", "notify", "end"),
		})
}
