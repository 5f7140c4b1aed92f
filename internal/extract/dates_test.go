package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalDOBRoundTrip(t *testing.T) {
	// Every accepted input format for the same calendar date yields the
	// identical canonical string.
	inputs := []string{
		"25 Mar 1990",
		"25 March 1990",
		"1990-03-25",
		"03/25/1990",
		"25/03/1990",
	}
	for _, in := range inputs {
		got, err := CanonicalDOB(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, "03/25/1990", got, "input %q", in)
	}
}

func TestCanonicalDOB(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"ambiguous slash date resolves month-first", "07/03/1990", "07/03/1990", false},
		{"day-first only when month invalid", "25/12/1990", "12/25/1990", false},
		{"single-digit day", "5 Jan 2001", "01/05/2001", false},
		{"iso", "2001-01-05", "01/05/2001", false},
		{"already canonical survives regex fallback", "02/28/1999", "02/28/1999", false},
		{"surrounding whitespace", " 1990-03-25 ", "03/25/1990", false},
		{"empty", "", "", true},
		{"garbage", "born sometime in march", "", true},
		{"month out of range", "13/25/1990", "", true},
		{"not zero padded canonical", "2/5/1999", "02/05/1999", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalDOB(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedDate)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
