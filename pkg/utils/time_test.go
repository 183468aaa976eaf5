package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRFC3339RoundTrip(t *testing.T) {
	ts := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

	formatted := FormatRFC3339(ts)
	assert.Equal(t, "2026-03-14T09:26:53Z", formatted)

	parsed, err := ParseRFC3339(formatted)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))
}

func TestParseRFC3339Invalid(t *testing.T) {
	_, err := ParseRFC3339("14/03/2026 09:26")
	assert.Error(t, err)
}

func TestNowRFC3339Parses(t *testing.T) {
	_, err := ParseRFC3339(NowRFC3339())
	assert.NoError(t, err)
}
