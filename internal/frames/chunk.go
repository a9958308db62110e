package frames

import "fmt"

// Task is one frame to render into one output file.
type Task struct {
	Frame  ID
	Output string
}

// Chunk is a contiguous run of tasks handed to a single worker.
type Chunk struct {
	// Index is the chunk's position in the plan.
	Index int
	Tasks []Task
}

// Plan partitions frames into contiguous chunks of at most size tasks. The
// concatenation of every chunk's frames equals frames exactly.
func Plan(frames Set, nameOf NameFunc, size int) ([]Chunk, error) {
	if size < 1 {
		return nil, fmt.Errorf("frames: chunk size must be >= 1, got %d", size)
	}
	if len(frames) == 0 {
		return nil, nil
	}
	chunks := make([]Chunk, 0, (len(frames)+size-1)/size)
	for start := 0; start < len(frames); start += size {
		end := start + size
		if end > len(frames) {
			end = len(frames)
		}
		tasks := make([]Task, 0, end-start)
		for _, id := range frames[start:end] {
			tasks = append(tasks, Task{Frame: id, Output: nameOf(id)})
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Tasks: tasks})
	}
	return chunks, nil
}

// TaskCount sums the tasks across chunks.
func TaskCount(chunks []Chunk) int {
	total := 0
	for _, c := range chunks {
		total += len(c.Tasks)
	}
	return total
}

// Flatten concatenates the frames of every chunk in plan order.
func Flatten(chunks []Chunk) Set {
	out := make(Set, 0, TaskCount(chunks))
	for _, c := range chunks {
		for _, task := range c.Tasks {
			out = append(out, task.Frame)
		}
	}
	return out
}
