package structure

import (
	"fmt"
	"testing"
)

func TestBloomNoFalseNegatives(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)
	for i := 0; i < 1000; i++ {
		bf.Add(fmt.Sprintf("bid-%d", i))
	}
	for i := 0; i < 1000; i++ {
		if !bf.Contains(fmt.Sprintf("bid-%d", i)) {
			t.Fatalf("false negative for bid-%d", i)
		}
	}
}

func TestBloomFalsePositiveRate(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)
	for i := 0; i < 1000; i++ {
		bf.Add(fmt.Sprintf("bid-%d", i))
	}
	fp := 0
	for i := 0; i < 10000; i++ {
		if bf.Contains(fmt.Sprintf("other-%d", i)) {
			fp++
		}
	}
	if rate := float64(fp) / 10000; rate > 0.05 {
		t.Errorf("false positive rate too high: %.3f", rate)
	}
}

func TestBloomReset(t *testing.T) {
	bf := NewBloomFilter(10, 0.01)
	bf.Add("98109")
	bf.Reset()
	if bf.Contains("98109") {
		t.Error("key still present after Reset")
	}
	if bf.Stats()["bloom_count"].(uint) != 0 {
		t.Error("count not reset")
	}
}
