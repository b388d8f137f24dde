package config

import "testing"

func TestResolve(t *testing.T) {
	global := Global{
		ActiveTrigger: true,
		MaxDepth:      5,
	}

	tests := []struct {
		name   string
		local  *Local
		global Global
		want   Effective
	}{
		{
			name:   "no local config falls to global",
			local:  nil,
			global: global,
			want:   Effective{Enabled: true, MaxDepth: 5},
		},
		{
			name:   "local config present but not flagged falls to global",
			local:  &Local{LocallyConfigured: false, Enabled: false, MaxDepth: 1},
			global: global,
			want:   Effective{Enabled: true, MaxDepth: 5},
		},
		{
			name:   "locally configured overrides everything",
			local:  &Local{LocallyConfigured: true, Enabled: true, MaxDepth: 3},
			global: Global{ActiveTrigger: false, MaxDepth: 5},
			want:   Effective{Enabled: true, MaxDepth: 3, LocallyForced: true},
		},
		{
			name:   "locally configured can disable an enabled global",
			local:  &Local{LocallyConfigured: true, Enabled: false},
			global: global,
			want:   Effective{Enabled: false, MaxDepth: 0, LocallyForced: true},
		},
		{
			name:   "global trigger disabled",
			local:  nil,
			global: Global{ActiveTrigger: false, MaxDepth: 2},
			want:   Effective{Enabled: false, MaxDepth: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.local, tt.global)
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestValidateCronField(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"* * * * *", false},
		{"0 3 * * 1-5", false},
		{"*/5 * * * * *", false},
		{"@hourly", false},
		{"@daily", false},
		{"@every 5m", false},
		{"@every 30s", false},
		{"", true},
		{"* * *", true},
		{"* * * * * * *", true},
		{"@sometimes", true},
		{"@every banana", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateCronField(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCronField(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGlobal(t *testing.T) {
	tests := []struct {
		name    string
		global  Global
		wantErr bool
	}{
		{
			name:   "valid",
			global: Global{CronTime: "* * * * *", MaxDepth: 2, RegExprs: []string{"ERROR", `exit code \d+`}},
		},
		{
			name:    "negative max depth",
			global:  Global{CronTime: "* * * * *", MaxDepth: -1},
			wantErr: true,
		},
		{
			name:    "empty regex entry",
			global:  Global{CronTime: "* * * * *", RegExprs: []string{"ERROR", "  "}},
			wantErr: true,
		},
		{
			name:    "broken regex entry",
			global:  Global{CronTime: "* * * * *", RegExprs: []string{"[unclosed"}},
			wantErr: true,
		},
		{
			name:    "malformed cron",
			global:  Global{CronTime: "not a cron"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGlobal(&tt.global)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGlobal() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
