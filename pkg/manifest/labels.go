package manifest

// Labels is a set of key/value pairs attached to a resource for grouping and selection
type Labels map[string]string

func (l Labels) Has(key string) bool {
	_, ok := l[key]
	return ok
}

func (l Labels) Get(key string) string {
	return l[key]
}

func MergeLabels(labels ...Labels) Labels {
	result := make(Labels)
	for _, l := range labels {
		for k, v := range l {
			result[k] = v
		}
	}

	return result
}

// LabelSelector holds label-based requirements on other resources,
// for example which worker may pick up a given suite run.
type LabelSelector struct {
	MatchLabels Labels `json:"matchLabels,omitempty" yaml:"matchLabels,omitempty"`
}

// Matches reports whether every required label is present with the expected value.
func (s LabelSelector) Matches(labels Labels) bool {
	for key, want := range s.MatchLabels {
		if got, ok := labels[key]; !ok || got != want {
			return false
		}
	}

	return true
}
