package errors

import "testing"

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "numpy", false},
		{"valid with dots", "zope.interface", false},
		{"valid with hyphen", "scikit-learn", false},
		{"empty", "", true},
		{"path traversal", "../etc/passwd", true},
		{"double slash", "a//b", true},
		{"backslash", `a\b`, true},
		{"control char", "pkg\x01name", true},
		{"null byte", "pkg\x00", true},
		{"too long", string(make([]byte, 300)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePythonPackageName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"numpy", false},
		{"Pillow", false},
		{"zope.interface", false},
		{"ruamel.yaml", false},
		{"typing_extensions", false},
		{"scikit-learn", false},
		{"a", false},
		{"0x", false},
		{"-leading-hyphen", true},
		{"trailing-", true},
		{".leading-dot", true},
		{"has space", true},
		{"has!bang", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidatePythonPackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePythonPackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://pypi.org/simple", false},
		{"http://internal.index/simple", false},
		{"git+https://github.com/NVIDIA/dllogger.git", false},
		{"git+ssh://git@github.com/user/repo.git", false},
		{"file:///opt/wheels/pkg.whl", false},
		{"", true},
		{"ftp://mirror/packages", true},
		{"https://", true},
		{"not a url at all ://", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateIndexURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://pypi.org/simple", false},
		{"http://mirror.local:8080/simple", false},
		{"file:///opt/wheels", true},
		{"git+https://github.com/user/repo", true},
		{"", true},
		{"https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateIndexURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIndexURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
