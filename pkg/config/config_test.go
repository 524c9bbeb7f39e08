package config

import "testing"

func TestDefaultRoundTripsThroughJSON(t *testing.T) {
	cfg := Default()
	data, err := cfg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.WorldSize != cfg.WorldSize {
		t.Fatalf("world size mismatch: %+v vs %+v", got.WorldSize, cfg.WorldSize)
	}
	if got.FruitMaxPerTree != cfg.FruitMaxPerTree {
		t.Fatalf("fruit cap mismatch: %d vs %d", got.FruitMaxPerTree, cfg.FruitMaxPerTree)
	}
}

func TestHashIsStableForIdenticalConfig(t *testing.T) {
	a := Default()
	b := Default()
	ha, err := a.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	hb, err := b.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if ha != hb {
		t.Fatal("expected identical configs to hash identically")
	}
}

func TestHashDiffersWhenConfigChanges(t *testing.T) {
	a := Default()
	b := Default()
	b.FruitMaxPerTree = a.FruitMaxPerTree + 1
	ha, _ := a.Hash()
	hb, _ := b.Hash()
	if ha == hb {
		t.Fatal("expected different configs to hash differently")
	}
}

func TestStructuralConfigConvertsMaterials(t *testing.T) {
	cfg := Default()
	sc := cfg.StructuralConfig()
	if len(sc.Materials) == 0 {
		t.Fatal("expected non-empty materials map")
	}
	if sc.WarnStressRatio != cfg.Structural.WarnStressRatio {
		t.Fatalf("warn ratio mismatch: %v vs %v", sc.WarnStressRatio, cfg.Structural.WarnStressRatio)
	}
}
