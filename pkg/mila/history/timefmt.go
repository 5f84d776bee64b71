package history

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"
)

// ParseSince turns a --since argument into an instant. It accepts
// durations back from now ("90m", "36h", "7d"), the words "today" and
// "yesterday", and any date dateparse understands ("2026-03-01",
// "March 1 2026 10:00", "1/3/2026").
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	switch strings.ToLower(s) {
	case "today":
		return midnight(now), nil
	case "yesterday":
		return midnight(now).AddDate(0, 0, -1), nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n >= 0 {
			return now.AddDate(0, 0, -n), nil
		}
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return now.Add(-d), nil
	}

	t, err := dateparse.ParseIn(s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot understand date %q: %w", s, err)
	}
	return t, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// mondayLocale maps a locale string to a monday.Locale.
// Supports common locale codes with fallbacks.
func mondayLocale(locale string) monday.Locale {
	locale = strings.ToLower(strings.ReplaceAll(locale, "-", "_"))

	localeMap := map[string]monday.Locale{
		"en":    monday.LocaleEnUS,
		"en_us": monday.LocaleEnUS,
		"en_gb": monday.LocaleEnGB,
		"de":    monday.LocaleDeDE,
		"de_de": monday.LocaleDeDE,
		"fr":    monday.LocaleFrFR,
		"fr_fr": monday.LocaleFrFR,
		"fr_ca": monday.LocaleFrCA,
		"es":    monday.LocaleEsES,
		"es_es": monday.LocaleEsES,
		"it":    monday.LocaleItIT,
		"it_it": monday.LocaleItIT,
		"pt":    monday.LocalePtPT,
		"pt_pt": monday.LocalePtPT,
		"pt_br": monday.LocalePtBR,
		"nl":    monday.LocaleNlNL,
		"nl_nl": monday.LocaleNlNL,
		"sv":    monday.LocaleSvSE,
		"sv_se": monday.LocaleSvSE,
		"ja":    monday.LocaleJaJP,
		"ja_jp": monday.LocaleJaJP,
		"zh":    monday.LocaleZhCN,
		"zh_cn": monday.LocaleZhCN,
	}

	if loc, ok := localeMap[locale]; ok {
		return loc
	}

	// Try just the language part
	if lang, _, found := strings.Cut(locale, "_"); found {
		if loc, ok := localeMap[lang]; ok {
			return loc
		}
	}

	return monday.LocaleEnUS
}

// timeLayout is the listing layout for a locale: day-month order outside
// the US, year first in east Asia.
func timeLayout(loc monday.Locale) string {
	switch loc {
	case monday.LocaleEnUS:
		return "Mon Jan 2 2006 15:04:05"
	case monday.LocaleJaJP, monday.LocaleZhCN:
		return "2006/01/02 (Mon) 15:04:05"
	default:
		return "Mon 2 Jan 2006 15:04:05"
	}
}

// FormatTime renders t for history listings in the given locale, with
// month and weekday names translated.
func FormatTime(t time.Time, locale string) string {
	loc := mondayLocale(locale)
	return monday.Format(t, timeLayout(loc), loc)
}
