// Package intrinsics provides the CloudFormation intrinsic functions used in
// generated snsSqs resources.
//
// Core intrinsic types are re-exported from cloudformation-schema-go:
//
//	Ref{LogicalName: "EventQueue"} → {"Ref": "EventQueue"}
//	GetAtt{LogicalName: "EventQueue", Attribute: "Arn"} → {"Fn::GetAtt": ["EventQueue", "Arn"]}
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join
)

// Arn returns the Fn::GetAtt reference to the Arn attribute of a resource.
func Arn(logicalName string) GetAtt {
	return GetAtt{LogicalName: logicalName, Attribute: "Arn"}
}

// RefTo returns a Ref to the given logical name.
func RefTo(logicalName string) Ref {
	return Ref{LogicalName: logicalName}
}

// IsIntrinsic reports whether a decoded value is a long-form intrinsic or a
// Ref, i.e. a single-key map whose key is "Ref", "Condition" or starts with "Fn::".
func IsIntrinsic(v any) bool {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	for k := range m {
		if k == "Ref" || k == "Condition" || len(k) > 4 && k[:4] == "Fn::" {
			return true
		}
	}
	return false
}
