// Package intrinsics provides CloudFormation intrinsic functions.
// This file contains IAM policy document types and helpers.
package intrinsics

import (
	"encoding/json"
)

// Json is a shorthand for map[string]any.
// Used for inline JSON objects like Condition blocks.
//
// Example:
//
//	Condition: Json{
//	    ArnEquals: Json{"aws:SourceArn": []any{topicArn}},
//	}
type Json = map[string]any

// PolicyVersion is the IAM policy language version used by every generated document.
const PolicyVersion = "2012-10-17"

// PolicyDocument represents an IAM policy document.
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Id        string `json:"Id,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version.
func NewPolicyDocument(id string, statements ...any) PolicyDocument {
	return PolicyDocument{Version: PolicyVersion, Id: id, Statement: statements}
}

// PolicyStatement represents an IAM policy statement.
//
// Example:
//
//	var ReceiveStatement = PolicyStatement{
//	    Effect:   "Allow",
//	    Action:   []string{"sqs:ReceiveMessage"},
//	    Resource: []any{Arn("EventQueue")},
//	}
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// Allow creates a PolicyStatement with Effect="Allow".
func Allow(action, resource any) PolicyStatement {
	return PolicyStatement{Effect: "Allow", Action: action, Resource: resource}
}

// ServicePrincipal represents a service principal (e.g., sns.amazonaws.com).
// Serializes to {"Service": ...} format.
//
// Examples:
//
//	ServicePrincipal{"sns.amazonaws.com"}
//	ServicePrincipal{"sns.amazonaws.com", "events.amazonaws.com"}
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Service": p[0]})
	}
	return json.Marshal(map[string]any{"Service": []any(p)})
}

// IAM condition operators used by generated statements.
const (
	ArnEquals = "ArnEquals"
	ArnLike   = "ArnLike"
)

// Actions granted to the Lambda execution role.
var (
	SQSConsumerActions = []string{
		"sqs:ReceiveMessage",
		"sqs:DeleteMessage",
		"sqs:GetQueueAttributes",
	}
	KMSDecryptActions = []string{"kms:Decrypt"}
)

// SQSSendMessage is the action SNS needs on the subscribed queue.
const SQSSendMessage = "SQS:SendMessage"
