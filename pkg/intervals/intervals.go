// Package intervals реализует операции над полуоткрытыми интервалами минут
// суток [Start, End). Все функции чистые и не изменяют входные данные.
package intervals

import "slices"

// Interval полуоткрытый интервал [Start, End) минут от локальной полуночи
type Interval struct {
	Start int
	End   int
}

// Len возвращает длину интервала в минутах (0 для пустых)
func (i Interval) Len() int {
	if i.End <= i.Start {
		return 0
	}
	return i.End - i.Start
}

// IsEmpty сообщает, что интервал пуст
func (i Interval) IsEmpty() bool {
	return i.End <= i.Start
}

// Clamp пересекает i с [lo, hi). Второй результат false, если
// пересечение пустое.
func Clamp(i Interval, lo, hi int) (Interval, bool) {
	out := Interval{Start: max(i.Start, lo), End: min(i.End, hi)}
	if out.IsEmpty() {
		return Interval{}, false
	}
	return out, true
}

// Sort возвращает копию, отсортированную по Start, затем End. Равные сохраняют порядок
func Sort(in []Interval) []Interval {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b Interval) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})
	return out
}

// Merge отбрасывает пустые интервалы, сортирует остальные и склеивает
// пересекающиеся или смежные. Результат отсортирован и не пересекается.
func Merge(in []Interval) []Interval {
	nonEmpty := make([]Interval, 0, len(in))
	for _, i := range in {
		if !i.IsEmpty() {
			nonEmpty = append(nonEmpty, i)
		}
	}
	if len(nonEmpty) == 0 {
		return []Interval{}
	}

	sorted := Sort(nonEmpty)
	out := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start <= cur.End {
			cur.End = max(cur.End, next.End)
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}

// Subtract возвращает части working, не покрытые busy. Оба входа
// сначала склеиваются, проход линейный по размеру списков.
func Subtract(working, busy []Interval) []Interval {
	w := Merge(working)
	b := Merge(busy)

	out := make([]Interval, 0, len(w))
	j := 0
	for _, wi := range w {
		for j < len(b) && b[j].End <= wi.Start {
			j++
		}

		cursor := wi.Start
		for k := j; k < len(b) && b[k].Start < wi.End; k++ {
			if b[k].Start > cursor {
				out = append(out, Interval{Start: cursor, End: b[k].Start})
			}
			cursor = max(cursor, b[k].End)
		}
		if cursor < wi.End {
			out = append(out, Interval{Start: cursor, End: wi.End})
		}
	}
	return out
}

// FilterByDuration оставляет интервалы длиной не меньше minLen минут
func FilterByDuration(in []Interval, minLen int) []Interval {
	out := make([]Interval, 0, len(in))
	for _, i := range in {
		if i.Len() >= minLen {
			out = append(out, i)
		}
	}
	return out
}
