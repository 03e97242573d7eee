package stdlib

import (
	"strings"
	"testing"
)

func TestPreludeEmbedded(t *testing.T) {
	for _, name := range []string{"fn max(", "fn min(", "fn abs("} {
		if !strings.Contains(Prelude, name) {
			t.Errorf("expected prelude to define %q", name)
		}
	}
}
