// Package month содержит вспомогательные функции для работы с
// календарными месяцами, используется агрегатором лидерборда.
package month

import (
	"time"
)

// Bounds возвращает начало и конец календарного месяца, в который
// попадает момент t. Конец — последняя наносекунда месяца, чтобы
// границы можно было использовать во включающих сравнениях.
func Bounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}
