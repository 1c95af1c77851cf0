package jobs

import "testing"

func TestNewSchedulerValidatesCronExpressions(t *testing.T) {
	tests := []struct {
		name      string
		rebalance string
		dueSoon   string
		wantErr   bool
	}{
		{"valid", "0 3 * * *", "*/15 * * * *", false},
		{"bad rebalance", "not a cron", "*/15 * * * *", true},
		{"bad due-soon", "0 3 * * *", "61 * * * *", true},
		{"six fields rejected", "0 0 3 * * *", "*/15 * * * *", true},
	}
	for _, tc := range tests {
		s, err := NewScheduler(nil, nil, tc.rebalance, tc.dueSoon)
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tc.name, err, tc.wantErr)
			continue
		}
		if s != nil {
			if err := s.Stop(); err != nil {
				t.Errorf("%s: stop failed: %v", tc.name, err)
			}
		}
	}
}
