package sdfield_test

import (
	"testing"

	"github.com/tiwylli/sdfield"
)

func TestVecPoolReuse(t *testing.T) {
	vp := &sdfield.VecPool{}
	a := vp.Float.Acquire(64)
	if len(a) != 64 {
		t.Fatalf("len = %d", len(a))
	}
	vp.Float.Release(a)
	b := vp.Float.Acquire(32)
	if len(b) != 32 {
		t.Fatalf("len = %d", len(b))
	}
	if &a[0] != &b[0] {
		t.Error("released buffer not reused")
	}
	// A request larger than anything free allocates fresh.
	c := vp.Float.Acquire(128)
	if len(c) != 128 {
		t.Fatalf("len = %d", len(c))
	}
}

func TestGetVecPool(t *testing.T) {
	vp := &sdfield.VecPool{}
	got, err := sdfield.GetVecPool(vp)
	if err != nil {
		t.Fatal(err)
	}
	if got != vp {
		t.Error("GetVecPool returned a different pool")
	}
	if _, err := sdfield.GetVecPool(42); err == nil {
		t.Error("expected error for non-pool userData")
	}
	if _, err := sdfield.GetVecPool(nil); err == nil {
		t.Error("expected error for nil userData")
	}
}
