package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestIsMatchesThroughWrap(t *testing.T) {
	err := ErrNotFound.WrapMsg("post missing", "post_id", "p1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrapped error lost its code: %v", err)
	}
	if errors.Is(err, ErrInvalidArgument) {
		t.Fatal("codes must not cross-match")
	}
}

func TestCodeExtraction(t *testing.T) {
	if got := Code(ErrStoreUnavailable.WrapMsg("mongo down")); got != CodeStoreUnavailable {
		t.Fatalf("Code = %d", got)
	}
	if got := Code(New("plain")); got != 0 {
		t.Fatalf("plain error should carry no code, got %d", got)
	}
	if got := Code(nil); got != 0 {
		t.Fatalf("nil error should carry no code, got %d", got)
	}
}

func TestWithDetailLeavesOriginalUntouched(t *testing.T) {
	detailed := ErrInvalidArgument.WithDetail("pageSize must be positive")
	if ErrInvalidArgument.Detail != "" {
		t.Fatal("predefined error mutated")
	}
	if !strings.Contains(detailed.Error(), "pageSize must be positive") {
		t.Fatalf("detail missing: %v", detailed)
	}
	if !errors.Is(detailed, ErrInvalidArgument) {
		t.Fatal("detail copy must keep matching by code")
	}
}

func TestWrapMsgFormatsKV(t *testing.T) {
	err := ErrNotFound.WrapMsg("lookup failed", "user_id", "u1", "page_size", 20)
	msg := err.Error()
	for _, want := range []string{"lookup failed", "user_id=u1", "page_size=20"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil) != nil {
		t.Fatal("Wrap(nil) must be nil")
	}
	if WrapMsg(nil, "ctx") != nil {
		t.Fatal("WrapMsg(nil) must be nil")
	}
}
