package nwnc

import "testing"

func TestParseTargetVersion(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "174", want: 174},
		{in: "999999", want: 999999},
		{in: "0", wantErr: true},
		{in: "1000000", wantErr: true},
		{in: "x", wantErr: true},
		{in: "", wantErr: true},
	} {
		got, err := ParseTargetVersion(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseTargetVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("ParseTargetVersion(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCompareTargetVersions(t *testing.T) {
	if CompareTargetVersions(174, 176) >= 0 {
		t.Fatal("174 should compare before 176")
	}
	if CompareTargetVersions(176, 176) != 0 {
		t.Fatal("176 should equal 176")
	}
}

func TestModuleVersionLess(t *testing.T) {
	for _, tt := range []struct {
		a, b string
		want bool
	}{
		{a: "1.2", b: "1.3", want: true},
		{a: "1.3", b: "1.2", want: false},
		{a: "garbage", b: "1.0.0", want: true},
		{a: "1.0.0", b: "garbage", want: false},
	} {
		got := ModuleVersion(tt.a).Less(ModuleVersion(tt.b))
		if got != tt.want {
			t.Errorf("ModuleVersion(%q).Less(%q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestModuleVersionValid(t *testing.T) {
	if !ModuleVersion("2.27").Valid() {
		t.Fatal("2.27 should be valid")
	}
	if ModuleVersion("not-a-version!!").Valid() {
		t.Fatal("not-a-version!! should be invalid")
	}
}
