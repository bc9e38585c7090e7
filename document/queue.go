package document

import "github.com/speakeasy-api/schemac/location"

// loadRequest is one pending document construction.
type loadRequest struct {
	retrieval  location.Location
	given      location.Location
	antecedent location.Location
	dialect    Dialect
}

// workQueue holds pending load requests.
type workQueue struct {
	items []loadRequest
}

// push adds a request to the queue.
func (q *workQueue) push(r loadRequest) {
	q.items = append(q.items, r)
}

// pop removes and returns the most recently pushed request (LIFO), so a
// document's children are built before its siblings.
func (q *workQueue) pop() (loadRequest, bool) {
	if len(q.items) == 0 {
		return loadRequest{}, false
	}
	r := q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	return r, true
}
