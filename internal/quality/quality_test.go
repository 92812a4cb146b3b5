package quality_test

import (
	"testing"

	"cadence/internal/quality"
)

func losslessCD() quality.Descriptor {
	return quality.Descriptor{SampleRate: 44100, BitDepth: 16, FileSize: 30 << 20, Format: "flac"}
}

func lossyHigh() quality.Descriptor {
	return quality.Descriptor{SampleRate: 48000, BitDepth: 24, Bitrate: 320000, FileSize: 60 << 20, Format: "mp3", Lossy: true}
}

func TestLosslessAlwaysOutranksLossy(t *testing.T) {
	// A modest CD-quality lossless file beats a lossy file with better
	// numerics across the board.
	if quality.Resolve(lossyHigh(), losslessCD()) != quality.Replace {
		t.Fatal("lossless candidate should replace lossy existing")
	}
	if quality.Resolve(losslessCD(), lossyHigh()) != quality.KeepExisting {
		t.Fatal("lossy candidate should never replace lossless existing")
	}
}

func TestTieBreakOrder(t *testing.T) {
	base := losslessCD()

	hiRate := base
	hiRate.SampleRate = 96000
	if quality.Resolve(base, hiRate) != quality.Replace {
		t.Fatal("higher sample rate should win")
	}

	hiDepth := base
	hiDepth.BitDepth = 24
	if quality.Resolve(base, hiDepth) != quality.Replace {
		t.Fatal("higher bit depth should break sample-rate tie")
	}

	bigger := base
	bigger.FileSize = base.FileSize + 1
	if quality.Resolve(base, bigger) != quality.Replace {
		t.Fatal("larger file should break remaining tie")
	}
}

func TestFullTieKeepsExisting(t *testing.T) {
	if quality.Resolve(losslessCD(), losslessCD()) != quality.KeepExisting {
		t.Fatal("a full tie must keep the existing entry")
	}
}

func TestCompareIsTotalAndAntisymmetric(t *testing.T) {
	descriptors := []quality.Descriptor{
		losslessCD(),
		lossyHigh(),
		{SampleRate: 96000, BitDepth: 24, FileSize: 120 << 20, Format: "flac"},
		{SampleRate: 44100, BitDepth: 16, Bitrate: 128000, FileSize: 5 << 20, Format: "mp3", Lossy: true},
		{SampleRate: 44100, BitDepth: 24, FileSize: 40 << 20, Format: "alac"},
		{},
	}
	for i, a := range descriptors {
		for j, b := range descriptors {
			ab := quality.Compare(a, b)
			ba := quality.Compare(b, a)
			if ab != -ba {
				t.Fatalf("Compare not antisymmetric for pair (%d,%d): %d vs %d", i, j, ab, ba)
			}
			if i == j && ab != 0 {
				t.Fatalf("Compare(x, x) != 0 for index %d", i)
			}
		}
	}
}
