package cipher

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error with details",
			err: &Error{
				Code:    ErrCodePatternMismatch,
				Message: "call sequence matched no resolved operation",
				Details: map[string]any{"calls": "Xy.ab(a,1);"},
			},
			expected: "PATTERN_MISMATCH: call sequence matched no resolved operation (map[calls:Xy.ab(a,1);])",
		},
		{
			name: "error without details",
			err: &Error{
				Code:    ErrCodeObjectNotFound,
				Message: "operations object not found",
			},
			expected: "OBJECT_NOT_FOUND: operations object not found",
		},
		{
			name:     "error with cause",
			err:      wrapError(ErrCodeScriptFetch, "failed to fetch player script", errors.New("connection reset")),
			expected: "SCRIPT_FETCH_FAILED: failed to fetch player script: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_MarshalJSON(t *testing.T) {
	err := &Error{
		Code:    ErrCodeOperandOutOfRange,
		Message: "swap index past end of signature",
		Details: map[string]any{
			"token":  "swap(9)",
			"length": 6,
		},
	}

	data, err2 := json.Marshal(err)
	if err2 != nil {
		t.Fatalf("Failed to marshal error: %v", err2)
	}

	var result map[string]any
	if err2 := json.Unmarshal(data, &result); err2 != nil {
		t.Fatalf("Failed to unmarshal error: %v", err2)
	}

	if code, ok := result["code"].(string); !ok || code != ErrCodeOperandOutOfRange {
		t.Errorf("Wrong code in JSON: %v", result["code"])
	}
	if msg, ok := result["message"].(string); !ok || msg != "swap index past end of signature" {
		t.Errorf("Wrong message in JSON: %v", result["message"])
	}
	if errStr, ok := result["error"].(string); !ok || errStr != err.Error() {
		t.Errorf("Wrong error string in JSON: %v", result["error"])
	}

	details, ok := result["details"].(map[string]any)
	if !ok {
		t.Fatal("Details missing or wrong type")
	}
	if tok, ok := details["token"].(string); !ok || tok != "swap(9)" {
		t.Errorf("Wrong token in details: %v", details["token"])
	}
	if n, ok := details["length"].(float64); !ok || n != 6 {
		t.Errorf("Wrong length in details: %v", details["length"])
	}
}

func TestError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("resolve: %w", wrapError(ErrCodeScriptFetch, "fetch", cause))

	if !errors.Is(err, NewError(ErrCodeScriptFetch, "")) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(err, NewError(ErrCodeObjectNotFound, "")) {
		t.Error("errors.Is should not match a different code")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		isObject   bool
		isFunc     bool
		isMismatch bool
		isOperand  bool
		isExtract  bool
		isFetch    bool
		isTrans    bool
	}{
		{
			name:      "object not found",
			err:       NewError(ErrCodeObjectNotFound, "no object"),
			isObject:  true,
			isExtract: true,
		},
		{
			name:      "function not found",
			err:       NewError(ErrCodeFunctionNotFound, "no function"),
			isFunc:    true,
			isExtract: true,
		},
		{
			name:       "pattern mismatch",
			err:        NewError(ErrCodePatternMismatch, "no tokens"),
			isMismatch: true,
			isExtract:  true,
		},
		{
			name:      "operand parse",
			err:       NewError(ErrCodeOperandParse, "overflow"),
			isOperand: true,
			isExtract: true,
		},
		{
			name:    "script fetch",
			err:     fmt.Errorf("wrapped: %w", NewError(ErrCodeScriptFetch, "fetch")),
			isFetch: true,
		},
		{
			name:    "version not found",
			err:     NewError(ErrCodeVersionNotFound, "no version"),
			isFetch: true,
		},
		{
			name:    "operand out of range",
			err:     NewError(ErrCodeOperandOutOfRange, "range"),
			isTrans: true,
		},
		{
			name:    "unknown operation",
			err:     NewError(ErrCodeUnknownOperation, "kind"),
			isTrans: true,
		},
		{
			name: "plain error",
			err:  errors.New("plain"),
		},
		{
			name: "nil",
			err:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsObjectNotFound(tt.err); got != tt.isObject {
				t.Errorf("IsObjectNotFound() = %v, want %v", got, tt.isObject)
			}
			if got := IsFunctionNotFound(tt.err); got != tt.isFunc {
				t.Errorf("IsFunctionNotFound() = %v, want %v", got, tt.isFunc)
			}
			if got := IsPatternMismatch(tt.err); got != tt.isMismatch {
				t.Errorf("IsPatternMismatch() = %v, want %v", got, tt.isMismatch)
			}
			if got := IsOperandParse(tt.err); got != tt.isOperand {
				t.Errorf("IsOperandParse() = %v, want %v", got, tt.isOperand)
			}
			if got := IsExtractionError(tt.err); got != tt.isExtract {
				t.Errorf("IsExtractionError() = %v, want %v", got, tt.isExtract)
			}
			if got := IsFetchError(tt.err); got != tt.isFetch {
				t.Errorf("IsFetchError() = %v, want %v", got, tt.isFetch)
			}
			if got := IsTransformError(tt.err); got != tt.isTrans {
				t.Errorf("IsTransformError() = %v, want %v", got, tt.isTrans)
			}
		})
	}
}
