// Package stats holds the shared basketball math: safe percentage helpers,
// minutes conversion and the advanced shooting/efficiency formulas used by
// the aggregation endpoints and reports.
package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// Free throws count as 0.44 of a possession in the standard TS% model.
	FTAttemptWeight  = 0.44
	ThreePointWeight = 0.5
)

// SafeDivide returns numerator/denominator, or def when the denominator is zero.
func SafeDivide(numerator, denominator, def float64) float64 {
	if denominator == 0 {
		return def
	}
	return numerator / denominator
}

// Percentage returns numerator/denominator as a 0-100 value rounded to one
// decimal. Zero denominator yields 0, never NaN.
func Percentage(numerator, denominator float64) float64 {
	return Round(SafeDivide(numerator*100, denominator, 0), 1)
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

// ParseMinutes converts a mm:ss string to whole seconds. Malformed input
// parses as zero rather than failing the row.
func ParseMinutes(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		if m, err := strconv.Atoi(s); err == nil && m >= 0 {
			return m * 60
		}
		return 0
	}
	m, err1 := strconv.Atoi(parts[0])
	sec, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || m < 0 || sec < 0 || sec >= 60 {
		return 0
	}
	return m*60 + sec
}

// FormatMinutes renders whole seconds as mm:ss.
func FormatMinutes(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// TrueShootingPercent is PTS / (2 * (FGA + 0.44*FTA)), as 0-100.
func TrueShootingPercent(points, fga, fta int) float64 {
	return Percentage(float64(points), 2*(float64(fga)+FTAttemptWeight*float64(fta)))
}

// EffectiveFGPercent is (FGM + 0.5*3PM) / FGA, as 0-100.
func EffectiveFGPercent(fgm, tpm, fga int) float64 {
	return Percentage(float64(fgm)+ThreePointWeight*float64(tpm), float64(fga))
}

// Efficiency is the simple box-score efficiency rating:
// PTS + REB + AST + STL + BLK - missed FG - missed FT - TOV.
func Efficiency(points, reb, ast, stl, blk, fgm, fga, ftm, fta, tov int) int {
	return points + reb + ast + stl + blk - (fga - fgm) - (fta - ftm) - tov
}

// GameScore is Hollinger's game score.
func GameScore(points, fgm, fga, ftm, fta, oreb, dreb, stl, ast, blk, pf, tov int) float64 {
	score := float64(points) +
		0.4*float64(fgm) -
		0.7*float64(fga) -
		0.4*float64(fta-ftm) +
		0.7*float64(oreb) +
		0.3*float64(dreb) +
		float64(stl) +
		0.7*float64(ast) +
		0.7*float64(blk) -
		0.4*float64(pf) -
		float64(tov)
	return Round(score, 1)
}
