package trace

// Example - готовый набор входных данных
type Example struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	References  []int  `json:"references"`
	Frames      int    `json:"frames"`
}

var examples = []Example{
	{"basic", "Standard example", []int{7, 0, 1, 2, 0, 3, 0, 4, 2, 3, 0, 3, 2}, 3},
	{"belady3", "Belady's Anomaly (3 frames)", []int{1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5}, 3},
	{"belady4", "Belady's Anomaly (4 frames)", []int{1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5}, 4},
	{"sequential", "Sequential Access", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 3},
	{"repeated", "Repeated Pattern", []int{1, 2, 3, 1, 2, 3, 1, 2, 3, 1, 2, 3}, 3},
	{"random", "Random Access", []int{2, 5, 1, 8, 3, 7, 4, 6, 2, 9, 1, 5, 8, 3, 7}, 4},
	{"lru-worst", "LRU Worst Case", []int{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}, 3},
	{"optimal-demo", "Optimal vs Others", []int{7, 0, 1, 2, 0, 3, 0, 4, 2, 3, 0, 3, 2, 3}, 4},
	{"mru-demo", "MRU example", []int{1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5}, 3},
}

// Examples возвращает копии всех пресетов в фиксированном порядке
func Examples() []Example {
	out := make([]Example, len(examples))
	for i, e := range examples {
		out[i] = e.clone()
	}
	return out
}

// GetExample ищет пресет по ключу
func GetExample(key string) (Example, bool) {
	for _, e := range examples {
		if e.Key == key {
			return e.clone(), true
		}
	}
	return Example{}, false
}

func (e Example) clone() Example {
	e.References = append([]int(nil), e.References...)
	return e
}
