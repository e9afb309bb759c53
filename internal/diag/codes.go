package diag

import (
	"fmt"
	"slices"
	"strings"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Collection expressions
	CollInfo                        Code = 3000
	CollNotConstructible            Code = 3001
	CollNoTargetType                Code = 3002
	CollCantInferTypeArgs           Code = 3003
	CollAmbiguousCall               Code = 3004
	CollBadArgType                  Code = 3005
	CollMissingPredefinedMember     Code = 3006
	CollBuilderMethodNotFound       Code = 3007
	CollBuilderNoElementType        Code = 3008
	CollInvalidBuilderAttributeType Code = 3009
	CollInvalidBuilderMethodName    Code = 3010
	CollElementConversion           Code = 3011
	CollSpreadNotEnumerable         Code = 3012
	CollUndefinedName               Code = 3013
	CollObsoleteMember              Code = 3014
	CollFeatureUnavailable          Code = 3015
	CollNoOverload                  Code = 3016
	CollInternalError               Code = 3099

	// I/O
	IOLoadFileError Code = 4001

	// Project and scenario files
	ProjInfo                Code = 5000
	ProjInvalidManifest     Code = 5001
	ProjInvalidScenario     Code = 5002
	ProjUnknownType         Code = 5003
	ProjSyntax              Code = 5004
	ProjExpectationMismatch Code = 5005

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                     "Unknown error",
		CollInfo:                        "Collection expression information",
		CollNotConstructible:            "collection expression target type is not constructible",
		CollNoTargetType:                "collection expression has no target type",
		CollCantInferTypeArgs:           "type arguments cannot be inferred from the usage",
		CollAmbiguousCall:               "call is ambiguous between candidates",
		CollBadArgType:                  "argument cannot be converted to parameter type",
		CollMissingPredefinedMember:     "missing compiler required member",
		CollBuilderMethodNotFound:       "collection builder method not found",
		CollBuilderNoElementType:        "collection builder type has no element type",
		CollInvalidBuilderAttributeType: "invalid collection builder attribute type",
		CollInvalidBuilderMethodName:    "invalid collection builder method name",
		CollElementConversion:           "element cannot be converted to element type",
		CollSpreadNotEnumerable:         "spread operand is not enumerable",
		CollUndefinedName:               "name does not exist in the current context",
		CollObsoleteMember:              "member is obsolete",
		CollFeatureUnavailable:          "feature is not available in this language version",
		CollNoOverload:                  "no overload accepts the arguments",
		CollInternalError:               "internal compiler error",
		IOLoadFileError:                 "I/O load file error",
		ProjInfo:                        "Project information",
		ProjInvalidManifest:             "Invalid project manifest",
		ProjInvalidScenario:             "Invalid scenario",
		ProjUnknownType:                 "Unknown type in scenario",
		ProjSyntax:                      "Scenario syntax error",
		ProjExpectationMismatch:         "Scenario expectation mismatch",
		ObsInfo:                         "Observability information",
		ObsTimings:                      "Pipeline timings",
	}

	// stable identifiers used by scenario expectations and JSON output
	codeNames = map[Code]string{
		CollNotConstructible:            "NOT_CONSTRUCTIBLE",
		CollNoTargetType:                "NO_TARGET_TYPE",
		CollCantInferTypeArgs:           "CANNOT_INFER_TYPE_ARGS",
		CollAmbiguousCall:               "AMBIGUOUS_CALL",
		CollBadArgType:                  "BAD_ARG_TYPE",
		CollMissingPredefinedMember:     "MISSING_PREDEFINED_MEMBER",
		CollBuilderMethodNotFound:       "BUILDER_METHOD_NOT_FOUND",
		CollBuilderNoElementType:        "BUILDER_NO_ELEMENT_TYPE",
		CollInvalidBuilderAttributeType: "INVALID_BUILDER_ATTRIBUTE_TYPE",
		CollInvalidBuilderMethodName:    "INVALID_BUILDER_METHOD_NAME",
		CollElementConversion:           "ELEMENT_CONVERSION",
		CollSpreadNotEnumerable:         "SPREAD_NOT_ENUMERABLE",
		CollUndefinedName:               "UNDEFINED_NAME",
		CollObsoleteMember:              "OBSOLETE_MEMBER",
		CollFeatureUnavailable:          "FEATURE_UNAVAILABLE",
		CollNoOverload:                  "NO_OVERLOAD",
		CollInternalError:               "INTERNAL_ERROR",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CEX%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

// Name returns the stable symbolic name, falling back to ID.
func (c Code) Name() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return c.ID()
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode accepts either a symbolic name (NOT_CONSTRUCTIBLE) or an ID (CEX3001).
func ParseCode(s string) (Code, bool) {
	s = strings.TrimSpace(s)
	for code, name := range codeNames {
		if strings.EqualFold(name, s) {
			return code, true
		}
	}
	for code := range codeDescription {
		if strings.EqualFold(code.ID(), s) {
			return code, true
		}
	}
	return UnknownCode, false
}

// Codes lists every known code in ascending order.
func Codes() []Code {
	out := make([]Code, 0, len(codeDescription))
	for code := range codeDescription {
		if code != UnknownCode {
			out = append(out, code)
		}
	}
	slices.Sort(out)
	return out
}
