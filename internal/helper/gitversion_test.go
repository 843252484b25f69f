package helper

import "testing"

func TestParseGitVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "git version 2.43.0", want: "2.43.0"},
		{input: "git version 2.39.3 (Apple Git-146)", want: "2.39.3"},
		{input: "git version 2.45.1.windows.1", want: "2.45.1"},
		{input: "git version 2.22", want: "2.22.0"},
		{input: "", wantErr: true},
		{input: "git version unknown", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGitVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGitVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Fatalf("ParseGitVersion(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestGitVersionCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b GitVersion
		want int
	}{
		{GitVersion{Major: 2, Minor: 22}, MinGitVersion, 0},
		{GitVersion{Major: 2, Minor: 21, Patch: 9}, MinGitVersion, -1},
		{GitVersion{Major: 3}, MinGitVersion, 1},
		{GitVersion{Major: 2, Minor: 22, Patch: 1}, MinGitVersion, 1},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
	if !(GitVersion{Major: 1, Minor: 9}).LessThan(MinGitVersion) {
		t.Error("1.9 should be older than the minimum")
	}
}
