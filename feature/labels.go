package feature

// Labels tracks a slice of features and their index locations that match up
// with the ordering of the coefficients assigned to each of these features.
type Labels struct {
	idx    map[string]int
	labels []Feature
}

func NewLabels(labels []Feature) *Labels {
	idx := make(map[string]int)
	for i := 0; i < len(labels); i++ {
		idx[labels[i].String()] = i
	}
	return &Labels{
		labels: labels,
		idx:    idx,
	}
}

func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.labels)
}

// Labels returns a copy of the tracked features in coefficient order
func (l *Labels) Labels() []Feature {
	if l == nil {
		return nil
	}
	labels := make([]Feature, len(l.labels))
	copy(labels, l.labels)
	return labels
}

// Index returns the coefficient position of the feature
func (l *Labels) Index(label Feature) (int, bool) {
	if l == nil {
		return -1, false
	}
	if idx, exists := l.idx[label.String()]; exists {
		return idx, exists
	}
	return -1, false
}

// OfType returns the subset of labels with the given feature type preserving order
func (l *Labels) OfType(ft FeatureType) []Feature {
	if l == nil {
		return nil
	}
	var res []Feature
	for _, f := range l.labels {
		if f.Type() == ft {
			res = append(res, f)
		}
	}
	return res
}
