package logevt_test

import (
	"testing"

	"github.com/vpbank/edgerunner/pkg/edgerunner/logevt"
)

func TestLevelOrdering(t *testing.T) {
	if !(logevt.ERROR < logevt.LOG && logevt.LOG < logevt.INFO && logevt.INFO < logevt.DEBUG) {
		t.Fatal("levels must order ERROR < LOG < INFO < DEBUG, most severe first")
	}
}

func TestLevelStringAndParseRoundTrip(t *testing.T) {
	for _, lvl := range []logevt.Level{logevt.ERROR, logevt.LOG, logevt.INFO, logevt.DEBUG} {
		s := lvl.String()
		parsed, ok := logevt.ParseLevel(s)
		if !ok {
			t.Errorf("ParseLevel(%q) failed to parse its own String() output", s)
			continue
		}
		if parsed != lvl {
			t.Errorf("ParseLevel(%q) = %v, want %v", s, parsed, lvl)
		}
	}
}

func TestParseLevelUnknown(t *testing.T) {
	if _, ok := logevt.ParseLevel("bogus"); ok {
		t.Fatal("expected ParseLevel to reject an unrecognized name")
	}
}
