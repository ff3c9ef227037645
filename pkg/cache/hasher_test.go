package cache

import "testing"

func TestFramesFingerprint(t *testing.T) {
	tests := []struct {
		frames []int
		want   string
	}{
		{nil, ""},
		{[]int{-1, -1, -1}, "_,_,_"},
		{[]int{7, 0, -1}, "7,0,_"},
		{[]int{12}, "12"},
	}

	for _, tt := range tests {
		if got := FramesFingerprint(tt.frames); got != tt.want {
			t.Errorf("FramesFingerprint(%v) = %q, want %q", tt.frames, got, tt.want)
		}
	}
}

func TestBuildStepKey(t *testing.T) {
	key := BuildStepKey("LRU", 0, []int{7, 0, -1})
	if key != "explain:LRU:step:p0:7,0,_" {
		t.Errorf("unexpected key %q", key)
	}

	// ключ зависит от порядка слотов
	if BuildStepKey("LRU", 0, []int{0, 7, -1}) == key {
		t.Error("slot order must be part of the key")
	}
	if BuildStepKey("FIFO", 0, []int{7, 0, -1}) == key {
		t.Error("algorithm must be part of the key")
	}
}

func TestBuildCompareKey(t *testing.T) {
	refs := []int{7, 0, 1, 2}
	a := BuildCompareKey("FIFO", refs, 3, 4)
	b := BuildCompareKey("FIFO", []int{7, 0, 1, 2}, 3, 4)
	if a != b {
		t.Errorf("same input should give same key: %q vs %q", a, b)
	}
	if a == BuildCompareKey("FIFO", []int{7, 0, 2, 1}, 3, 4) {
		t.Error("different reference strings should give different keys")
	}
	if !matchPattern(AlgorithmPattern("FIFO"), a) {
		t.Errorf("AlgorithmPattern should match %q", a)
	}
}

func TestQuickHash(t *testing.T) {
	h1 := QuickHash([]byte("test data"))
	h2 := QuickHash([]byte("test data"))
	if h1 != h2 {
		t.Error("same data should produce same hash")
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
	if QuickHash([]byte("other")) == h1 {
		t.Error("different data should produce different hash")
	}
}

func TestShortHash(t *testing.T) {
	h := ShortHash([]byte("test data"))
	if len(h) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(h))
	}
	if h != QuickHash([]byte("test data"))[:16] {
		t.Error("short hash should be a prefix of the full hash")
	}
}
