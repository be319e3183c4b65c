package ml

import "sort"

// FeatureWeight is one entry of a feature importance ranking.
type FeatureWeight struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// RankFeatureImportance pairs the artifact's feature names with its
// importances, highest first. Ties keep the metadata order.
func RankFeatureImportance(a *Artifact) []FeatureWeight {
	if a == nil || a.Model == nil || len(a.Model.FeatureImportances) == 0 {
		return nil
	}
	names := a.FeatureNames()
	if len(names) != len(a.Model.FeatureImportances) {
		return nil
	}

	ranked := make([]FeatureWeight, len(names))
	for i, name := range names {
		ranked[i] = FeatureWeight{Name: name, Importance: a.Model.FeatureImportances[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	return ranked
}
