package envguard

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name        string
		toolPath    string
		virtualEnv  string
		condaPrefix string
		wantOK      bool
	}{
		{
			name:     "system pip rejected",
			toolPath: "/usr/bin/pip",
			wantOK:   false,
		},
		{
			name:     "user local pip rejected",
			toolPath: "/usr/local/bin/pip",
			wantOK:   false,
		},
		{
			name:     "venv segment accepted",
			toolPath: "/home/dev/proj/venv/bin/pip",
			wantOK:   true,
		},
		{
			name:     "dot venv segment accepted",
			toolPath: "/home/dev/proj/.venv/bin/pip",
			wantOK:   true,
		},
		{
			name:       "VIRTUAL_ENV prefix accepted",
			toolPath:   "/tmp/isolated/bin/pip",
			virtualEnv: "/tmp/isolated",
			wantOK:     true,
		},
		{
			name:        "conda env accepted",
			toolPath:    "/opt/miniconda3/envs/proj/bin/pip",
			condaPrefix: "/opt/miniconda3/envs/proj",
			wantOK:      true,
		},
		{
			name:       "VIRTUAL_ENV set but tool outside it",
			toolPath:   "/usr/bin/pip",
			virtualEnv: "/tmp/isolated",
			wantOK:     false,
		},
		{
			name:       "sibling dir sharing venv prefix rejected",
			toolPath:   "/tmp/isolated-other/bin/pip",
			virtualEnv: "/tmp/isolated",
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.toolPath, tt.virtualEnv, tt.condaPrefix)
			if (err == nil) != tt.wantOK {
				t.Fatalf("ValidatePath(%q) = %v, want ok=%v", tt.toolPath, err, tt.wantOK)
			}
		})
	}
}

func TestValidatePathDeterministic(t *testing.T) {
	// Same input, same outcome, every time.
	for i := 0; i < 10; i++ {
		err := ValidatePath("/usr/bin/pip", "", "")
		var gerr *Error
		if !errors.As(err, &gerr) {
			t.Fatalf("call %d: error = %v, want *envguard.Error", i, err)
		}
	}
}

func TestErrorCarriesGuidance(t *testing.T) {
	err := ValidatePath("/usr/bin/pip", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "venv") || !strings.Contains(err.Error(), "/usr/bin/pip") {
		t.Errorf("error should carry the offending path and remediation text, got: %v", err)
	}
}
