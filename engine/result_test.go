package engine

import (
	"testing"
	"time"
)

func TestResult_Seconds(t *testing.T) {
	r := &Result{Duration: 1500 * time.Millisecond}
	if got := r.Seconds(); got != 1.5 {
		t.Errorf("Seconds() = %v, want 1.5", got)
	}
}

func TestResult_Success(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusSuccess, true},
		{StatusError, false},
		{StatusTimeout, false},
	}
	for _, tt := range tests {
		r := &Result{Response: Response{Status: tt.status}}
		if got := r.Success(); got != tt.want {
			t.Errorf("Success() with %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}
