package filter

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ppiankov/ignoromenot/internal/model"
)

// proteinPredicate decides whether a protein row passes one protein-level option
type proteinPredicate struct {
	name string
	keep func(p *model.Protein) bool
}

// Proteins returns the row indices of the table that pass every protein-level option.
// Each option is evaluated into its own bitmap and the results are intersected.
func Proteins(table []model.Protein, spec model.FilterSpec, fields []model.SearchField) *roaring.Bitmap {
	result := roaring.New()
	result.AddRange(0, uint64(len(table)))

	for _, pred := range proteinPredicates(spec, fields) {
		result.And(pred.bitmap(table))
		if result.IsEmpty() {
			break
		}
	}

	return result
}

// Select returns copies of the rows whose indices are in the bitmap, in table order
func Select(table []model.Protein, rows *roaring.Bitmap) []model.Protein {
	out := make([]model.Protein, 0, rows.GetCardinality())
	it := rows.Iterator()
	for it.HasNext() {
		idx := int(it.Next())
		if idx < len(table) {
			out = append(out, table[idx])
		}
	}
	return out
}

func (pred proteinPredicate) bitmap(table []model.Protein) *roaring.Bitmap {
	bm := roaring.New()
	for i := range table {
		if pred.keep(&table[i]) {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// proteinPredicates builds one predicate per set option
func proteinPredicates(spec model.FilterSpec, fields []model.SearchField) []proteinPredicate {
	var preds []proteinPredicate

	if spec.ExistenceLevels != nil {
		allowed := make(map[model.ExistenceLevel]bool, len(spec.ExistenceLevels))
		for _, level := range spec.ExistenceLevels {
			allowed[level] = true
		}
		preds = append(preds, proteinPredicate{
			name: "existence_levels",
			keep: func(p *model.Protein) bool { return allowed[p.ExistenceLevel] },
		})
	}

	if spec.LastReviewed != nil {
		r := *spec.LastReviewed
		preds = append(preds, proteinPredicate{
			name: "last_reviewed_range",
			keep: func(p *model.Protein) bool {
				return p.LastReviewed.Valid && r.Contains(p.LastReviewed.Year)
			},
		})
	}

	if terms := normalizeTerms(spec.SearchTerms); len(terms) > 0 {
		if len(fields) == 0 {
			fields = model.DefaultSearchFields()
		}
		preds = append(preds, proteinPredicate{
			name: "search_terms",
			keep: func(p *model.Protein) bool { return matchesSearch(p, terms, fields) },
		})
	}

	return preds
}

// ActiveOptions names the protein-level options that constrain this specification
func ActiveOptions(spec model.FilterSpec) []string {
	var names []string
	for _, pred := range proteinPredicates(spec, nil) {
		names = append(names, pred.name)
	}
	return names
}
