package pipeline

import (
	"fmt"
	"sort"

	"covid-pipeline/internal/model"
	"covid-pipeline/pkg/utils"
)

// group accumulates the sums of one key value.
type group struct {
	key    interface{}
	intSum map[string]int64
	fltSum map[string]float64
}

// Aggregate groups rows by the key column and sums every numeric column.
// Non-numeric columns other than the key are dropped. Rows with a null key
// are skipped and null cells count as zero. The result has one row per
// distinct key, ordered by key.
func Aggregate(f *model.Frame, key string) (*model.Frame, error) {
	if !f.Has(key) {
		return nil, fmt.Errorf("group by %q: %w", key, model.ErrColumnNotFound)
	}

	var metrics []string
	for _, col := range f.Columns {
		if col != key && f.Kind(col).Numeric() {
			metrics = append(metrics, col)
		}
	}

	groups := make(map[string]*group)
	for _, rec := range f.Records {
		groupValue := rec[key]
		if groupValue == nil {
			continue
		}
		groupKey := fmt.Sprintf("%v", groupValue)

		g, exists := groups[groupKey]
		if !exists {
			g = &group{
				key:    groupValue,
				intSum: make(map[string]int64),
				fltSum: make(map[string]float64),
			}
			groups[groupKey] = g
		}
		g.add(rec, metrics, f.Kinds)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	columns := append([]string{key}, metrics...)
	kinds := map[string]model.Kind{key: f.Kind(key)}
	for _, m := range metrics {
		kinds[m] = f.Kind(m)
	}

	out := model.NewFrame(columns, kinds)
	for _, k := range keys {
		g := groups[k]
		rec := model.GenericRecord{key: g.key}
		for _, m := range metrics {
			if kinds[m] == model.KindInt {
				rec[m] = g.intSum[m]
			} else {
				rec[m] = g.fltSum[m]
			}
		}
		out.Append(rec)
	}
	return out, nil
}

// add folds one record into the running sums.
func (g *group) add(rec model.GenericRecord, metrics []string, kinds map[string]model.Kind) {
	for _, m := range metrics {
		value := rec[m]
		if value == nil {
			continue
		}
		if kinds[m] == model.KindInt {
			if n, ok := value.(int64); ok {
				g.intSum[m] += n
			}
			continue
		}
		if num, ok := utils.Numeric(value); ok {
			g.fltSum[m] += num
		}
	}
}
