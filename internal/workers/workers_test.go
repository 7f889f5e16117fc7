package workers

import (
	"runtime"
	"testing"
)

func TestFor(t *testing.T) {
	t.Setenv(OverrideEnv, "")
	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		kind  Kind
		limit int
		want  int
	}{
		{CPUBound, 0, procs},
		{IOBound, 0, procs * 2},
		{Mixed, 0, max(1, int(float64(procs)*1.5))},
		{IOBound, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := For(tt.kind, tt.limit); got != tt.want {
				t.Errorf("For(%v, %d) = %d, want %d", tt.kind, tt.limit, got, tt.want)
			}
		})
	}
}

func TestForOrdering(t *testing.T) {
	t.Setenv(OverrideEnv, "")

	cpu, mixed, io := For(CPUBound, 0), For(Mixed, 0), For(IOBound, 0)
	if cpu > mixed || mixed > io {
		t.Errorf("want cpu <= mixed <= io, got %d, %d, %d", cpu, mixed, io)
	}
}

func TestForOverride(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		limit int
		want  int
	}{
		{"override used", "7", 0, 7},
		{"override capped", "32", 8, 8},
		{"invalid ignored", "lots", 1, 1},
		{"zero ignored", "0", 1, 1},
		{"negative ignored", "-3", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(OverrideEnv, tt.env)
			if got := For(CPUBound, tt.limit); got != tt.want {
				t.Errorf("For() with %s=%q = %d, want %d", OverrideEnv, tt.env, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Setenv(OverrideEnv, "")

	tests := []struct {
		configured, limit, want int
	}{
		{3, 0, 3},
		{10, 4, 4},
		{0, 0, For(Mixed, 0)},
		{-1, 2, min(2, For(Mixed, 0))},
	}
	for _, tt := range tests {
		if got := Resolve(tt.configured, tt.limit); got != tt.want {
			t.Errorf("Resolve(%d, %d) = %d, want %d", tt.configured, tt.limit, got, tt.want)
		}
	}
}
