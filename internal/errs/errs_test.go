package errs

import (
	"errors"
	"testing"
)

var errSentinel = errors.New("sentinel")

func TestWrapPreservesChain(t *testing.T) {
	err := Wrapf(Wrap(errSentinel, "inner"), "outer %d", 1)
	if !errors.Is(err, errSentinel) {
		t.Fatalf("errors.Is() = false for %v", err)
	}
	if err.Error() != "outer 1: inner: sentinel" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if Wrap(nil, "x") != nil || Wrapf(nil, "x") != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
}

func TestAppendSkipsNil(t *testing.T) {
	var acc error
	acc = Append(acc, nil, nil)
	if acc != nil {
		t.Fatalf("Append(nil...) = %v, want nil", acc)
	}

	acc = Append(acc, errSentinel)
	acc = Append(acc, nil, errors.New("second"))
	if Len(acc) != 2 {
		t.Fatalf("Len() = %d, want 2", Len(acc))
	}
	if !errors.Is(acc, errSentinel) {
		t.Fatalf("errors.Is() = false for accumulated error")
	}
}

func TestLoggableIncludesStack(t *testing.T) {
	value := Loggable(WithStack(errSentinel)).LogValue()
	attrs := value.Group()

	found := false
	for _, attr := range attrs {
		if attr.Key == "stack" && attr.Value.String() != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Loggable() attrs = %v, want stack", attrs)
	}
}
