package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestZodiacSign_Boundaries(t *testing.T) {
	tests := []struct {
		month time.Month
		day   int
		want  Sign
	}{
		{time.March, 20, SignPisces},
		{time.March, 21, SignAries},
		{time.April, 19, SignAries},
		{time.April, 20, SignTaurus},
		{time.May, 20, SignTaurus},
		{time.May, 21, SignGemini},
		{time.June, 20, SignGemini},
		{time.June, 21, SignCancer},
		{time.July, 22, SignCancer},
		{time.July, 23, SignLeo},
		{time.August, 22, SignLeo},
		{time.August, 23, SignVirgo},
		{time.September, 22, SignVirgo},
		{time.September, 23, SignLibra},
		{time.October, 22, SignLibra},
		{time.October, 23, SignScorpio},
		{time.November, 21, SignScorpio},
		{time.November, 22, SignSagittarius},
		{time.December, 21, SignSagittarius},
		{time.December, 22, SignCapricorn},
		{time.December, 31, SignCapricorn},
		{time.January, 1, SignCapricorn},
		{time.January, 19, SignCapricorn},
		{time.January, 20, SignAquarius},
		{time.February, 18, SignAquarius},
		{time.February, 19, SignPisces},
		{time.February, 29, SignPisces},
	}

	for _, tt := range tests {
		t.Run(NewDate(0, tt.month, tt.day).String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ZodiacSign(tt.month, tt.day))
		})
	}
}

func TestZodiacSign_Invalid(t *testing.T) {
	assert.Equal(t, SignUnknown, ZodiacSign(time.February, 30))
	assert.Equal(t, SignUnknown, ZodiacSign(time.April, 31))
	assert.Equal(t, SignUnknown, ZodiacSign(time.Month(0), 10))
	assert.Equal(t, SignUnknown, ZodiacSign(time.Month(13), 1))
	assert.Equal(t, SignUnknown, ZodiacSign(time.June, 0))
}

// TestZodiacSign_Totality walks all 366 days of a leap year: every day maps to
// exactly one known sign and the sign changes exactly twelve times over the cycle.
func TestZodiacSign_Totality(t *testing.T) {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	seen := make(map[Sign]int)
	changes := 0
	prev := ZodiacSign(time.December, 31)

	for i := 0; i < 366; i++ {
		sign := ZodiacSign(day.Month(), day.Day())
		assert.NotEqual(t, SignUnknown, sign, "no sign for %s", day.Format(time.DateOnly))

		seen[sign]++
		if sign != prev {
			changes++
		}
		prev = sign
		day = day.AddDate(0, 0, 1)
	}

	assert.Len(t, seen, 12)
	assert.Equal(t, 12, changes)
	assert.Equal(t, []Sign{
		SignAries, SignTaurus, SignGemini, SignCancer, SignLeo, SignVirgo,
		SignLibra, SignScorpio, SignSagittarius, SignCapricorn, SignAquarius, SignPisces,
	}, Signs())
}
