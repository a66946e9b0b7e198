package dialect

import "testing"

func TestSelect(t *testing.T) {
	tests := []struct {
		version string
		want    Dialect
	}{
		{"1.0", V10},
		{"1.1", V11},
		{" 1.1.0 ", V11},
		{"1.1-beta", V11},
		{"", V10},
		{"2.0", V10},
		{"garbage", V10},
	}
	for _, tt := range tests {
		if got := Select(tt.version); got != tt.want {
			t.Errorf("Select(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestFeatureGates(t *testing.T) {
	if V10.HasControlFlow() || V10.HasInput() || V10.HasBooleans() {
		t.Error("1.0 must not expose 1.1 features")
	}
	if !V11.HasControlFlow() || !V11.HasInput() || !V11.HasBooleans() {
		t.Error("1.1 must expose control flow, input and booleans")
	}
	if V11.String() != "1.1" || V10.String() != "1.0" {
		t.Errorf("unexpected String(): %s %s", V10, V11)
	}
}
