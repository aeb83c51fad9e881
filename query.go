package storm

// Query is a short-lived, read-only view over a Store's live items,
// built by filtering on StoreID and/or payload content. A Query holds
// no lock of its own; each scanning method takes the Store's guard only
// while it snapshots the live ids, and every item it then reads goes
// through Store.Get, which takes the guard again.
type Query[T any] struct {
	s          *Store[T]
	idFilter   func(StoreID) bool
	valueFiler func(T) bool
}

// Query starts a new, unfiltered view over every live item.
func (s *Store[T]) Query() *Query[T] {
	return &Query[T]{s: s}
}

// WhereID restricts the query to items whose id satisfies pred.
func (q *Query[T]) WhereID(pred func(StoreID) bool) *Query[T] {
	q.idFilter = pred
	return q
}

// WhereValue restricts the query to items whose payload satisfies pred.
// Evaluating pred requires reading the payload from disk for any item
// not already cached.
func (q *Query[T]) WhereValue(pred func(T) bool) *Query[T] {
	q.valueFiler = pred
	return q
}

func (q *Query[T]) matches(id StoreID) (Item[T], bool, error) {
	if q.idFilter != nil && !q.idFilter(id) {
		return Item[T]{}, false, nil
	}
	item, err := q.s.Get(id)
	if err != nil {
		return Item[T]{}, false, err
	}
	if q.valueFiler != nil && !q.valueFiler(item.Payload) {
		return Item[T]{}, false, nil
	}
	return item, true, nil
}

// All returns every item matching the query's filters. Unlike the
// original's first/last helpers, a failed filter simply excludes the
// item and continues scanning the rest of the store.
func (q *Query[T]) All() ([]Item[T], error) {
	q.s.lock("Query.All")
	ids := q.s.im.IDs()
	q.s.unlock()

	items := make([]Item[T], 0, len(ids))
	for _, id := range ids {
		item, ok, err := q.matches(id)
		if err != nil {
			return nil, err
		}
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// AllValues is All with the StoreIDs stripped.
func (q *Query[T]) AllValues() ([]T, error) {
	items, err := q.All()
	if err != nil {
		return nil, err
	}
	values := make([]T, len(items))
	for i, item := range items {
		values[i] = item.Payload
	}
	return values, nil
}

// First returns the first item matching the query's filters, in
// ItemManager iteration order (unspecified). ok is false if nothing
// matched.
func (q *Query[T]) First() (item Item[T], ok bool, err error) {
	q.s.lock("Query.First")
	ids := q.s.im.IDs()
	q.s.unlock()

	for _, id := range ids {
		item, ok, err = q.matches(id)
		if err != nil {
			return Item[T]{}, false, err
		}
		if ok {
			return item, true, nil
		}
	}
	return Item[T]{}, false, nil
}

// Last returns the last item matching the query's filters, in
// ItemManager iteration order (unspecified). ok is false if nothing
// matched.
func (q *Query[T]) Last() (item Item[T], ok bool, err error) {
	q.s.lock("Query.Last")
	ids := q.s.im.IDs()
	q.s.unlock()

	var found Item[T]
	var matchedAny bool
	for _, id := range ids {
		it, matched, err := q.matches(id)
		if err != nil {
			return Item[T]{}, false, err
		}
		if matched {
			found = it
			matchedAny = true
		}
	}
	return found, matchedAny, nil
}
