package triangulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    Policy
		wantErr bool
	}{
		{"all", "all", PolicyAll, false},
		{"nearest", "nearest", PolicyNearest, false},
		{"uppercase", "ALL", PolicyAll, false},
		{"padded", "  Nearest ", PolicyNearest, false},
		{"empty", "", "", true},
		{"unknown", "closest", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	valid := Params{MaxDistanceM: 100, MaxTimeHours: 48, Policy: PolicyNearest}

	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr string
	}{
		{"valid", func(p *Params) {}, ""},
		{"valid all policy", func(p *Params) { p.Policy = PolicyAll }, ""},
		{"valid with workers", func(p *Params) { p.Workers = 4 }, ""},
		{"zero distance", func(p *Params) { p.MaxDistanceM = 0 }, "max distance"},
		{"negative distance", func(p *Params) { p.MaxDistanceM = -5 }, "max distance"},
		{"zero time", func(p *Params) { p.MaxTimeHours = 0 }, "max time"},
		{"negative time", func(p *Params) { p.MaxTimeHours = -1 }, "max time"},
		{"unknown policy", func(p *Params) { p.Policy = "closest" }, "unknown match policy"},
		{"empty policy", func(p *Params) { p.Policy = "" }, "unknown match policy"},
		{"negative workers", func(p *Params) { p.Workers = -1 }, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
