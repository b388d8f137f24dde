package scheduler

import (
	"testing"
	"time"
)

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"* * * * *", false},
		{"0 3 * * *", false},
		{"*/15 * * * *", false},
		{"0 0 * * 1-5", false},
		{"@hourly", false},
		{"@daily", false},
		{"@every 5m", false},
		{"", true},
		{"not a cron", true},
		{"61 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateSchedule(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchedule(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestNextRun(t *testing.T) {
	from := time.Date(2024, 5, 1, 2, 30, 0, 0, time.UTC)

	next, err := NextRun("0 3 * * *", from)
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}

	want := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", next, want)
	}
}

func TestDue(t *testing.T) {
	tests := []struct {
		name string
		expr string
		now  time.Time
		want bool
	}{
		{
			name: "every minute is always due",
			expr: "* * * * *",
			now:  time.Date(2024, 5, 1, 2, 30, 17, 0, time.UTC),
			want: true,
		},
		{
			name: "daily schedule due at its minute",
			expr: "0 3 * * *",
			now:  time.Date(2024, 5, 1, 3, 0, 42, 0, time.UTC),
			want: true,
		},
		{
			name: "daily schedule not due an hour early",
			expr: "0 3 * * *",
			now:  time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "every ten minutes, off minute",
			expr: "*/10 * * * *",
			now:  time.Date(2024, 5, 1, 2, 35, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "every ten minutes, on minute",
			expr: "*/10 * * * *",
			now:  time.Date(2024, 5, 1, 2, 40, 0, 0, time.UTC),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Due(tt.expr, tt.now)
			if err != nil {
				t.Fatalf("Due() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Due(%q, %v) = %v, want %v", tt.expr, tt.now, got, tt.want)
			}
		})
	}
}

func TestDueMalformedExpression(t *testing.T) {
	if _, err := Due("not a cron", time.Now()); err == nil {
		t.Error("Due() error = nil for malformed expression")
	}
}
