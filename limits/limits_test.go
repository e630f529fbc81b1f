package limits

import (
	"reflect"
	"testing"
)

func TestCeilingMB(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  int
	}{
		{"configured example", 512000, 500},
		{"floors the division", 1535, 1},
		{"below one megabyte", 1023, 0},
		{"zero", 0, 0},
		{"negative", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CeilingMB(tt.bytes); got != tt.want {
				t.Errorf("CeilingMB(%d) = %d, want %d", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFromBytes_SameCeilingOnAllBounds(t *testing.T) {
	l := FromBytes(512000)

	if l.OldGenMB != 500 || l.YoungGenMB != 500 || l.StackMB != 500 {
		t.Errorf("FromBytes(512000) = %+v, want 500 on all bounds", l)
	}
}

func TestEnviron(t *testing.T) {
	l := WorkerLimits{OldGenMB: 500, YoungGenMB: 500, StackMB: 500}

	want := map[string]string{
		EnvMaxOldGenMB:   "500",
		EnvMaxYoungGenMB: "500",
		EnvStackSizeMB:   "500",
	}
	if got := l.Environ(); !reflect.DeepEqual(got, want) {
		t.Errorf("Environ() = %v, want %v", got, want)
	}
}

func TestEnviron_OmitsZeroBounds(t *testing.T) {
	l := WorkerLimits{OldGenMB: 128}

	env := l.Environ()
	if len(env) != 1 {
		t.Fatalf("Environ() = %v, want only the old-gen bound", env)
	}
	if env[EnvMaxOldGenMB] != "128" {
		t.Errorf("Environ()[%s] = %q, want %q", EnvMaxOldGenMB, env[EnvMaxOldGenMB], "128")
	}
}
