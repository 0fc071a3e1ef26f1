package transform

import "testing"

func TestRegistryListsBuiltinOperations(t *testing.T) {
	want := []string{"crop", "effect", "pad", "quality", "resize"}
	items := List()
	if len(items) != len(want) {
		t.Fatalf("expected %d operations, got %d", len(want), len(items))
	}
	for i, meta := range items {
		if meta.Key != want[i] {
			t.Fatalf("operation %d: expected %s got %s", i, want[i], meta.Key)
		}
	}

	resize, ok := Resolve("RESIZE")
	if !ok || !resize.Idempotent || len(resize.Params) != 3 {
		t.Fatalf("unexpected resize metadata: %+v", resize)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := newRegistry()
	if err := reg.register(OperationMetadata{Key: "flip", Params: []string{"flip"}}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := reg.register(OperationMetadata{Key: "Flip", Params: []string{"other"}}); err == nil {
		t.Fatalf("expected duplicate key error")
	}
	if err := reg.register(OperationMetadata{Key: "mirror", Params: []string{"FLIP"}}); err == nil {
		t.Fatalf("expected duplicate parameter error")
	}
	if err := reg.register(OperationMetadata{Key: "noop"}); err == nil {
		t.Fatalf("expected missing parameter error")
	}
	if owner, ok := reg.owner("flip"); !ok || owner != "flip" {
		t.Fatalf("unexpected owner %q", owner)
	}
}
