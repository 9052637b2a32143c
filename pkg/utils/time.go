package utils

import (
	"time"
)

// time.go - утилиты для работы со временем
//
// Назначение:
// Границы календарных периодов в UTC для фильтрации сделок
// и агрегации PnL по дням и месяцам.

// GetDayStart возвращает начало текущего дня (00:00:00) в UTC
func GetDayStart() time.Time {
	return GetDayStartFrom(time.Now().UTC())
}

// GetDayStartFrom возвращает начало дня (00:00:00 UTC) для указанного времени
func GetDayStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetDayEnd возвращает конец текущего дня (23:59:59.999999999) в UTC
func GetDayEnd() time.Time {
	return GetDayEndFrom(time.Now().UTC())
}

// GetDayEndFrom возвращает конец дня для указанного времени в UTC
func GetDayEndFrom(t time.Time) time.Time {
	return GetDayStartFrom(t).Add(24*time.Hour - time.Nanosecond)
}

// GetMonthStartFrom возвращает начало месяца (1-е число 00:00:00 UTC)
func GetMonthStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// GetMonthEndFrom возвращает конец месяца для указанного времени в UTC
func GetMonthEndFrom(t time.Time) time.Time {
	return GetMonthStartFrom(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// TimeRange представляет временной диапазон [Start, End]
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains проверяет, попадает ли время в диапазон (границы включительно)
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && !t.After(tr.End)
}

// Duration возвращает длительность диапазона
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// GetDayRange возвращает диапазон суток, содержащих указанное время
func GetDayRange(t time.Time) TimeRange {
	return TimeRange{Start: GetDayStartFrom(t), End: GetDayEndFrom(t)}
}

// GetMonthRange возвращает диапазон месяца, содержащего указанное время
func GetMonthRange(t time.Time) TimeRange {
	return TimeRange{Start: GetMonthStartFrom(t), End: GetMonthEndFrom(t)}
}
