package workspace

import (
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"host", KindHost, false},
		{"Docker", KindDocker, false},
		{" REMOTE ", KindRemote, false},
		{"flyio", KindFlyio, false},
		{"e2b", KindE2B, false},
		{"kubernetes", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseKind(%q) should fail", tt.input)
				}
				if !errors.IsUnsupported(err) {
					t.Errorf("ParseKind(%q) error = %v, want unsupported environment", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseKind_ErrorNamesKind(t *testing.T) {
	_, err := ParseKind("lambda")
	if err == nil {
		t.Fatal("expected error")
	}
	want := `workspace environment "lambda" is not supported`
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestAllKinds_HaveDescriptions(t *testing.T) {
	for _, k := range AllKinds() {
		if k.Description() == "unknown" {
			t.Errorf("kind %s has no description", k)
		}
	}
	if Kind("bogus").Description() != "unknown" {
		t.Error("unrecognized kind should describe itself as unknown")
	}
}
