package trends

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"shorts-pipeline/types"
)

// Queue is a FIFO of pre-generated story hooks persisted as a JSON
// array file. It is a best-effort enrichment for the pipeline, never a
// hard dependency: read and parse failures degrade to "no hook
// available". A single process owns the file.
type Queue struct {
	path string
}

// NewQueue creates a queue over the given file path. The file is not
// created until the first Append.
func NewQueue(path string) *Queue {
	return &Queue{path: path}
}

// PopNext removes and returns the head of the queue, or nil when no
// hook is available. The shortened queue is persisted before the hook
// is returned, so delivery is at most once: a caller that crashes after
// the pop loses that single hook, it is never delivered twice.
func (q *Queue) PopNext() *types.ContentHook {
	hooks, err := q.load()
	if err != nil {
		log.Printf("[trends] Warning: could not read hook queue: %v", err)
		return nil
	}
	if len(hooks) == 0 {
		return nil
	}

	head := hooks[0]
	if err := q.save(hooks[1:]); err != nil {
		// Without the rewrite the hook would be delivered again next
		// run, so do not hand it out.
		log.Printf("[trends] Warning: could not persist hook queue: %v", err)
		return nil
	}
	return &head
}

// Append extends the queue with new hooks and persists. A missing or
// corrupt queue file starts from empty.
func (q *Queue) Append(hooks []types.ContentHook) error {
	existing, err := q.load()
	if err != nil {
		log.Printf("[trends] Warning: starting a fresh hook queue: %v", err)
		existing = nil
	}
	return q.save(append(existing, hooks...))
}

// Pending returns the queued hooks without consuming any.
func (q *Queue) Pending() []types.ContentHook {
	hooks, err := q.load()
	if err != nil {
		log.Printf("[trends] Warning: could not read hook queue: %v", err)
		return nil
	}
	return hooks
}

func (q *Queue) load() ([]types.ContentHook, error) {
	data, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var hooks []types.ContentHook
	if err := json.Unmarshal(data, &hooks); err != nil {
		return nil, fmt.Errorf("parse %s: %w", q.path, err)
	}
	return hooks, nil
}

func (q *Queue) save(hooks []types.ContentHook) error {
	if hooks == nil {
		hooks = []types.ContentHook{}
	}
	data, err := json.MarshalIndent(hooks, "", "  ")
	if err != nil {
		return err
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, q.path)
}
