package preprocess

import (
	"math"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestToIntOrNil(t *testing.T) {
	cases := []struct {
		name    string
		in      any
		want    *int
		wantErr bool
	}{
		{"nil", nil, nil, false},
		{"int", 42, intPtr(42), false},
		{"float whole", 42.0, intPtr(42), false},
		{"float fractional", 42.5, nil, true},
		{"string int", "42", intPtr(42), false},
		{"string with commas", "1,234", intPtr(1234), false},
		{"string percent", "85%", intPtr(85), false},
		{"stringified float", "42.0", intPtr(42), false},
		{"empty string", "", nil, false},
		{"dash", "-", nil, false},
		{"em dash", "—", nil, false},
		{"NA", "NA", nil, false},
		{"N/A", "N/A", nil, false},
		{"null literal", "null", nil, false},
		{"NONE", "NONE", nil, false},
		{"double dash", "--", nil, false},
		{"NaN", math.NaN(), nil, true},
		{"Inf", math.Inf(1), nil, true},
		{"garbage", "abc", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToIntOrNil(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("nil mismatch: got %v want %v", got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Errorf("got %d want %d", *got, *tc.want)
			}
		})
	}
}

func TestToFloatOrNil(t *testing.T) {
	got, err := ToFloatOrNil("48.5%")
	if err != nil || got == nil || *got != 48.5 {
		t.Errorf("percentage parse: got %v err %v", got, err)
	}
	got, err = ToFloatOrNil("1,234.5")
	if err != nil || got == nil || *got != 1234.5 {
		t.Errorf("comma strip: got %v err %v", got, err)
	}
	if got, _ := ToFloatOrNil("-"); got != nil {
		t.Error("dash should coerce to nil")
	}
	if _, err := ToFloatOrNil(math.NaN()); err == nil {
		t.Error("NaN must be rejected")
	}
	if _, err := ToFloatOrNil("Inf"); err == nil {
		t.Error("Inf string must be rejected")
	}
}

func TestToStrOrNil(t *testing.T) {
	// Stringified integer codes and raw ints converge on the same token.
	a, _ := ToStrOrNil(6)
	b, _ := ToStrOrNil("6")
	c, _ := ToStrOrNil(6.0)
	if *a != "6" || *b != "6" || *c != "6" {
		t.Errorf("int/string/float should converge: %q %q %q", *a, *b, *c)
	}
	if got, _ := ToStrOrNil("N/A"); got != nil {
		t.Error("N/A should coerce to nil")
	}
	if got, _ := ToStrOrNil("  LAL  "); got == nil || *got != "LAL" {
		t.Error("strings should be trimmed")
	}
}

func TestToBoolOrNil(t *testing.T) {
	for _, v := range []any{true, 1, "1", "true", "Y"} {
		got, err := ToBoolOrNil(v)
		if err != nil || got == nil || !*got {
			t.Errorf("ToBoolOrNil(%v) = %v, %v; want true", v, got, err)
		}
	}
	for _, v := range []any{false, 0, "0", "false", "n"} {
		got, err := ToBoolOrNil(v)
		if err != nil || got == nil || *got {
			t.Errorf("ToBoolOrNil(%v) = %v, %v; want false", v, got, err)
		}
	}
	if got, _ := ToBoolOrNil(""); got != nil {
		t.Error("empty string should coerce to nil")
	}
	if _, err := ToBoolOrNil("maybe"); err == nil {
		t.Error("unparseable bool should error")
	}
}
