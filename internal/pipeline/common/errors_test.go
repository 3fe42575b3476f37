package common

import (
	"context"
	"errors"
	"testing"
)

func TestPipelineError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		e := NewPipelineError("analyze", "empty query", nil)
		s := e.Error()
		if s == "" || len(s) < 10 {
			t.Errorf("Error() = %q", s)
		}
		if !errors.As(e, new(*PipelineError)) {
			t.Error("should be *PipelineError")
		}
	})
	t.Run("with cause", func(t *testing.T) {
		e := NewPipelineError("reason", "no applicable rule", ErrReasoningFailed)
		if e.Error() == "" {
			t.Error("Error() should not be empty")
		}
		if e.Unwrap() != ErrReasoningFailed {
			t.Error("Unwrap() should return cause")
		}
		if !errors.Is(e, ErrReasoningFailed) {
			t.Error("errors.Is should match wrapped sentinel")
		}
	})
}

func TestIsPipelineError_GetPipelineError(t *testing.T) {
	e := NewPipelineError("validate", "history conflict", nil)
	if !IsPipelineError(e) {
		t.Error("IsPipelineError should be true")
	}
	got, ok := GetPipelineError(e)
	if !ok || got != e {
		t.Errorf("GetPipelineError: ok=%v got=%v", ok, got)
	}
	if IsPipelineError(errors.New("other")) {
		t.Error("IsPipelineError(other) should be false")
	}
	if _, ok := GetPipelineError(errors.New("other")); ok {
		t.Error("GetPipelineError(other) should be false")
	}
}

func TestValidationError_Error(t *testing.T) {
	e := NewValidationError("procedure", "缺少诊疗项目")
	s := e.Error()
	if s == "" || len(s) < 5 {
		t.Errorf("Error() = %q", s)
	}
}

func TestIsValidationError_GetValidationError(t *testing.T) {
	e := NewValidationError("parsed", "解析结果为空")
	if !IsValidationError(e) {
		t.Error("IsValidationError should be true")
	}
	got, ok := GetValidationError(e)
	if !ok || got != e {
		t.Errorf("GetValidationError: ok=%v got=%v", ok, got)
	}
	if _, ok := GetValidationError(errors.New("other")); ok {
		t.Error("GetValidationError(other) should be false")
	}
}

func TestNewPipelineContext(t *testing.T) {
	ctx := NewPipelineContext(context.Background(), "claim-1")
	if ctx == nil || ctx.ID != "claim-1" || ctx.Status != "running" || ctx.Metadata == nil {
		t.Errorf("NewPipelineContext: %+v", ctx)
	}
}
