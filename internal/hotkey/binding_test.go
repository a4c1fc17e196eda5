package hotkey

import "testing"

func TestParseBinding(t *testing.T) {
	tests := []struct {
		spec     string
		wantKeys int
		wantErr  bool
	}{
		{spec: "f8", wantKeys: 1},
		{spec: "ctrl+f8", wantKeys: 2},
		{spec: "Ctrl + Space", wantKeys: 2},
		{spec: "control+shift+a", wantKeys: 3},
		{spec: "escape", wantKeys: 1},
		{spec: "", wantErr: true},
		{spec: "notakey", wantErr: true},
		{spec: "ctrl+notakey", wantErr: true},
		{spec: "f8+f8", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.spec, func(t *testing.T) {
			b, err := ParseBinding(tc.spec)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBinding(%q) failed: %v", tc.spec, err)
			}
			if len(b.Codes) != tc.wantKeys {
				t.Errorf("expected %d keycodes, got %d", tc.wantKeys, len(b.Codes))
			}
			if b.Spec != tc.spec {
				t.Errorf("spec not preserved: %q", b.Spec)
			}
		})
	}
}

func TestBindingSatisfied(t *testing.T) {
	b := Binding{Spec: "ctrl+f8", Codes: []uint16{codeCtrl, codeF8}}

	held := map[uint16]bool{}
	if b.satisfied(held) {
		t.Error("empty held set should not satisfy")
	}

	held[codeCtrl] = true
	if b.satisfied(held) {
		t.Error("partial combination should not satisfy")
	}

	held[codeF8] = true
	if !b.satisfied(held) {
		t.Error("full combination should satisfy")
	}

	if (Binding{}).satisfied(held) {
		t.Error("zero binding should never be satisfied")
	}
}
