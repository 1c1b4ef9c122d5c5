// Package clock отдаёт текущее время в фиксированном часовом поясе.
// Все метки времени сессий хранятся как гражданское время этого пояса
// (TIMESTAMP WITHOUT TIME ZONE, точность до секунды), как в существующих данных.
package clock

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DefaultZone — пояс, в котором записаны существующие строки user_sessions.
const DefaultZone = "Asia/Kolkata"

// CivilLayout — формат хранения (YYYY-MM-DD HH:mm:ss).
const CivilLayout = "2006-01-02 15:04:05"

type Clock interface {
	Now() time.Time
}

// Zoned возвращает время в заданном поясе, усечённое до секунд.
type Zoned struct {
	loc *time.Location
	now func() time.Time
}

func NewZoned(name string) (*Zoned, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("clock: load location %q: %w", name, err)
	}
	return &Zoned{loc: loc, now: time.Now}, nil
}

func (z *Zoned) Now() time.Time {
	return z.now().In(z.loc).Truncate(time.Second)
}

func (z *Zoned) Location() *time.Location { return z.loc }

// Fixed — часы для тестов.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

// Advance сдвигает часы вперёд.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }

// ToCivil переводит момент времени в гражданское время пояса loc, записанное как UTC-значение
// с теми же часами/минутами. pgx кладёт его в колонку TIMESTAMP без сдвига.
func ToCivil(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), lt.Minute(), lt.Second(), 0, time.UTC)
}

// FromCivil — обратное преобразование значения, прочитанного из колонки TIMESTAMP.
func FromCivil(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// Format форматирует момент в CivilLayout пояса loc (для логов и совместимости с отчётами).
func Format(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(CivilLayout)
}
