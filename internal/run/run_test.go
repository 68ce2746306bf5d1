package run

import "testing"

func TestParseKind(t *testing.T) {
	for _, s := range []string{"", "compile", "decode"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q) error = %v", s, err)
		}
	}
	if _, err := ParseKind("export"); err == nil {
		t.Error("ParseKind(\"export\") expected error")
	}
}

func TestToSummary(t *testing.T) {
	code := "UNKNOWN_COMMAND"
	r := &Run{
		ID:            "01RUN",
		Kind:          KindCompile,
		Lang:          "en",
		InputText:     "RUN X",
		ActiveModules: []string{"__KERNEL__"},
		ErrorCode:     &code,
		CreatedAt:     42,
	}

	s := r.ToSummary()
	if s.ID != r.ID || s.Kind != r.Kind || s.CreatedAt != 42 {
		t.Errorf("ToSummary() = %+v", s)
	}
	if s.ErrorCode == nil || *s.ErrorCode != code {
		t.Errorf("ErrorCode = %v, want %s", s.ErrorCode, code)
	}
	if !r.Failed() {
		t.Error("Failed() = false, want true")
	}
}
