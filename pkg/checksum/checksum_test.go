package checksum

import "testing"

func TestComputeVerifyRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	for _, algo := range []Algorithm{CRC32C, XXHash64} {
		sum := Compute(algo, data)
		if !Verify(sum, data) {
			t.Fatalf("algo %s: verify failed on unmodified data", algo)
		}
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	for _, algo := range []Algorithm{CRC32C, XXHash64} {
		sum := Compute(algo, data)
		corrupted := append([]byte(nil), data...)
		corrupted[0] ^= 0x01
		if Verify(sum, corrupted) {
			t.Fatalf("algo %s: verify should fail on 1-bit corruption", algo)
		}
	}
}

func TestNoneAlwaysVerifies(t *testing.T) {
	sum := Compute(None, []byte("irrelevant"))
	if !Verify(sum, []byte("anything at all")) {
		t.Fatal("None algorithm must always verify true")
	}
}

func TestComputeIsPure(t *testing.T) {
	data := []byte("deterministic")
	a := Compute(CRC32C, data)
	b := Compute(CRC32C, data)
	if a != b {
		t.Fatalf("Compute not pure: %v != %v", a, b)
	}
}

func TestAlgorithmValid(t *testing.T) {
	if !CRC32C.Valid() || !XXHash64.Valid() || !None.Valid() {
		t.Fatal("expected known algorithms valid")
	}
	if Algorithm(99).Valid() {
		t.Fatal("expected unknown algorithm invalid")
	}
}
