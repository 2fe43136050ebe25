package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "string minutes", in: `"10m"`, want: 10 * time.Minute},
		{name: "compound string", in: `"1h30m"`, want: 90 * time.Minute},
		{name: "nanoseconds", in: `1000000000`, want: time.Second},
		{name: "bad string", in: `"ten minutes"`, wantErr: true},
		{name: "bool", in: `true`, wantErr: true},
		{name: "broken json", in: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 10 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, `"10m0s"`, string(b))
}

func TestDuration_InStruct(t *testing.T) {
	var cfg struct {
		OTP Duration `json:"otp_validity"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"otp_validity":"5m"}`), &cfg))
	assert.Equal(t, 5*time.Minute, cfg.OTP.Duration)
}
