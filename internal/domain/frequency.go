package domain

import (
	"fmt"
	"strings"
)

// Frequency описывает периодичность рассылки количеством дней.
type Frequency string

const (
	FrequencyDaily   Frequency = "1"
	FrequencyWeekly  Frequency = "7"
	FrequencyMonthly Frequency = "30"
)

var frequencyAliases = map[string]Frequency{
	"1":       FrequencyDaily,
	"daily":   FrequencyDaily,
	"7":       FrequencyWeekly,
	"weekly":  FrequencyWeekly,
	"30":      FrequencyMonthly,
	"monthly": FrequencyMonthly,
}

// ParseFrequency принимает как количество дней, так и название периода.
func ParseFrequency(raw string) (Frequency, error) {
	if f, ok := frequencyAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, raw)
}

// Valid сообщает, что значение входит в перечисление.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Days возвращает период в днях.
func (f Frequency) Days() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyMonthly:
		return 30
	default:
		return 1
	}
}
