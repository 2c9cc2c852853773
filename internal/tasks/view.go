package tasks

type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// Columns is the two-column board projection. It is derived on demand
// from the collection and never stored.
type Columns struct {
	Pending   []Task `json:"pending"`
	Completed []Task `json:"completed"`
	Stats     Stats  `json:"stats"`
}

// Pending keeps the tasks that are not completed, in their original order.
func Pending(tasks []Task) []Task {
	return filter(tasks, false)
}

// Completed keeps the completed tasks, in their original order.
func Completed(tasks []Task) []Task {
	return filter(tasks, true)
}

func ComputeStats(tasks []Task) Stats {
	st := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			st.Completed++
		} else {
			st.Pending++
		}
	}
	return st
}

func SplitColumns(tasks []Task) Columns {
	return Columns{
		Pending:   Pending(tasks),
		Completed: Completed(tasks),
		Stats:     ComputeStats(tasks),
	}
}

func filter(tasks []Task, completed bool) []Task {
	out := []Task{}
	for _, t := range tasks {
		if t.Completed == completed {
			out = append(out, t)
		}
	}
	return out
}
