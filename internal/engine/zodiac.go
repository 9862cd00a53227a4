package engine

import "time"

// Sign is a western (tropical) zodiac sign identifier.
type Sign string

const (
	SignAries       Sign = "aries"
	SignTaurus      Sign = "taurus"
	SignGemini      Sign = "gemini"
	SignCancer      Sign = "cancer"
	SignLeo         Sign = "leo"
	SignVirgo       Sign = "virgo"
	SignLibra       Sign = "libra"
	SignScorpio     Sign = "scorpio"
	SignSagittarius Sign = "sagittarius"
	SignCapricorn   Sign = "capricorn"
	SignAquarius    Sign = "aquarius"
	SignPisces      Sign = "pisces"

	// SignUnknown is returned for month/day pairs that are not calendar days.
	SignUnknown Sign = "unknown"
)

type zodiacInterval struct {
	sign       Sign
	startMonth time.Month
	startDay   int
	endMonth   time.Month
	endDay     int
}

// zodiacTable covers the whole year; both ends of every interval are inclusive.
// Capricorn is the only interval that wraps around the new year.
var zodiacTable = []zodiacInterval{
	{SignAries, time.March, 21, time.April, 19},
	{SignTaurus, time.April, 20, time.May, 20},
	{SignGemini, time.May, 21, time.June, 20},
	{SignCancer, time.June, 21, time.July, 22},
	{SignLeo, time.July, 23, time.August, 22},
	{SignVirgo, time.August, 23, time.September, 22},
	{SignLibra, time.September, 23, time.October, 22},
	{SignScorpio, time.October, 23, time.November, 21},
	{SignSagittarius, time.November, 22, time.December, 21},
	{SignCapricorn, time.December, 22, time.January, 19},
	{SignAquarius, time.January, 20, time.February, 18},
	{SignPisces, time.February, 19, time.March, 20},
}

// ZodiacSign resolves the sign for a birthday. It never fails: invalid input
// yields SignUnknown.
func ZodiacSign(month time.Month, day int) Sign {
	if !ValidMonthDay(month, day) {
		return SignUnknown
	}
	key := monthDayKey(month, day)
	for _, z := range zodiacTable {
		start := monthDayKey(z.startMonth, z.startDay)
		end := monthDayKey(z.endMonth, z.endDay)
		if start <= end {
			if key >= start && key <= end {
				return z.sign
			}
			continue
		}
		if key >= start || key <= end {
			return z.sign
		}
	}
	return SignUnknown
}

// Signs lists the twelve signs in table order, starting with Aries.
func Signs() []Sign {
	out := make([]Sign, len(zodiacTable))
	for i, z := range zodiacTable {
		out[i] = z.sign
	}
	return out
}

func monthDayKey(month time.Month, day int) int {
	return int(month)*100 + day
}
