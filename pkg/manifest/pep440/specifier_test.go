package pep440

import "testing"

func TestParseSpecifier(t *testing.T) {
	tests := []struct {
		in      string
		wantOp  string
		wantVer string
		wantErr bool
	}{
		{"==1.22.2", "==", "1.22.2", false},
		{">= 2.0", ">=", "2.0", false},
		{"~=1.4.2", "~=", "1.4.2", false},
		{"===legacy-version", "===", "legacy-version", false},
		{"==1.2.*", "==", "1.2.*", false},
		{"!=1.2.*", "!=", "1.2.*", false},
		{"<2", "<", "2", false},
		{">=1.0.*", "", "", true},  // wildcard with ordered operator
		{"~=1", "", "", true},      // compatible release needs two segments
		{"1.22.2", "", "", true},   // no operator
		{"==", "", "", true},       // no version
		{"==not a ver", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			spec, err := ParseSpecifier(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSpecifier(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if spec.Op != tt.wantOp || spec.Version != tt.wantVer {
				t.Errorf("ParseSpecifier(%q) = %v%v, want %v%v", tt.in, spec.Op, spec.Version, tt.wantOp, tt.wantVer)
			}
		})
	}
}

func TestSpecifier_Match(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"==1.22.2", "1.22.2", true},
		{"==1.22.2", "1.22.3", false},
		{"==1.0", "1.0.0", true},
		{"==1.22.2", "1.22.2+habana", true}, // local ignored unless pinned
		{"==1.22.2+habana", "1.22.2+habana", true},
		{"==1.22.2+habana", "1.22.2", false},
		{"==1.2.*", "1.2.9", true},
		{"==1.2.*", "1.3.0", false},
		{"!=1.2.*", "1.3.0", true},
		{"!=1.2.*", "1.2.1", false},
		{">=2.28.0", "2.28.0", true},
		{">=2.28.0", "2.27.9", false},
		{"<2.0", "1.9", true},
		{"<2.0", "2.0", false},
		{">1.0", "1.0.post1", false}, // post of the boundary is excluded
		{">1.0", "1.1", true},
		{">1.0.post1", "1.0.post2", true},
		{"<2.0", "2.0.dev1", false}, // pre of the boundary is excluded
		{"<2.0", "2.0rc1", false},
		{"<2.0rc1", "2.0.dev1", true},
		{"<=8.1.0", "8.1.0", true},
		{"~=1.4.2", "1.4.9", true},
		{"~=1.4.2", "1.4.1", false},
		{"~=1.4.2", "1.5.0", false},
		{"~=2.2", "2.9", true},
		{"~=2.2", "3.0", false},
		{"===1.0.0", "1.0.0", true},
		{"===1.0", "1.0.0", false}, // arbitrary equality is textual
	}

	for _, tt := range tests {
		t.Run(tt.spec+" "+tt.version, func(t *testing.T) {
			spec, err := ParseSpecifier(tt.spec)
			if err != nil {
				t.Fatalf("ParseSpecifier: %v", err)
			}
			got, err := spec.Match(MustParse(tt.version))
			if err != nil {
				t.Fatalf("Match: %v", err)
			}
			if got != tt.want {
				t.Errorf("%q.Match(%q) = %v, want %v", tt.spec, tt.version, got, tt.want)
			}
		})
	}
}

func TestParseSet(t *testing.T) {
	set, err := ParseSet(">=1.0, <2.0, !=1.5")
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("len(set) = %d, want 3", len(set))
	}
	if got := set.String(); got != ">=1.0,<2.0,!=1.5" {
		t.Errorf("String() = %q", got)
	}

	empty, err := ParseSet("")
	if err != nil {
		t.Fatalf("ParseSet(empty): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty set has %d clauses", len(empty))
	}
}

func TestSet_Match(t *testing.T) {
	set, err := ParseSet(">=1.0,<2.0,!=1.5")
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}

	tests := []struct {
		version string
		want    bool
	}{
		{"1.0", true},
		{"1.9.9", true},
		{"1.5", false},
		{"0.9", false},
		{"2.0", false},
	}
	for _, tt := range tests {
		got, err := set.Match(MustParse(tt.version))
		if err != nil {
			t.Fatalf("Match(%q): %v", tt.version, err)
		}
		if got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}

	// Empty set matches everything.
	if ok, _ := Set(nil).Match(MustParse("0.0.1")); !ok {
		t.Error("empty set did not match")
	}
}

func TestSet_ExactPin(t *testing.T) {
	tests := []struct {
		in       string
		wantPin  string
		wantBool bool
	}{
		{"==1.22.2", "1.22.2", true},
		{"===1.22.2", "1.22.2", true},
		{">=1.0,==1.2.3", "1.2.3", true},
		{"==1.2.*", "", false},
		{">=1.0", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			set, err := ParseSet(tt.in)
			if err != nil {
				t.Fatalf("ParseSet: %v", err)
			}
			pin, ok := set.ExactPin()
			if pin != tt.wantPin || ok != tt.wantBool {
				t.Errorf("ExactPin() = (%q, %v), want (%q, %v)", pin, ok, tt.wantPin, tt.wantBool)
			}
		})
	}
}
