package workflowclient

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultDebounce delays a fetch after the search text changes so a
	// typing user does not fire one request per keystroke.
	DefaultDebounce = 400 * time.Millisecond

	// DefaultListPageSize matches the server default.
	DefaultListPageSize = 10

	// maxEnumeratedPages caps the enumerated pager; beyond this callers
	// should render a compact pager instead.
	maxEnumeratedPages = 15
)

// StatusClass maps a work order status to the CSS class its badge uses.
// Unknown statuses render as in progress rather than unstyled.
func StatusClass(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "FINISHED":
		return "finished"
	case "LATE":
		return "late"
	case "DELIVERED":
		return "delivered"
	default:
		return "in-progress"
	}
}

// FetchFunc loads one page of rows for the given query state.
type FetchFunc[T any] func(ctx context.Context, q ListQuery) (Page[T], error)

// ListState is a consistent snapshot of a list view.
type ListState[T any] struct {
	Rows          []T
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
	Query         string
	MineOnly      bool
	Loading       bool
	Err           error
}

// ListView drives a searchable, paginated listing. Search input is
// debounced, and when fetches overlap only the most recently dispatched
// one is allowed to update the state.
type ListView[T any] struct {
	fetch    FetchFunc[T]
	debounce time.Duration
	onChange func(ListState[T])

	mu     sync.Mutex
	state  ListState[T]
	seq    uint64
	timer  *time.Timer
	closed bool
}

// ListViewOption configures a ListView.
type ListViewOption[T any] func(*ListView[T])

// WithDebounce overrides the search debounce interval.
func WithDebounce[T any](d time.Duration) ListViewOption[T] {
	return func(lv *ListView[T]) { lv.debounce = d }
}

// WithOnChange registers a callback invoked with every state snapshot. The
// callback runs while the view's internal lock is held: use the snapshot it
// receives and never call back into the ListView from inside it.
func WithOnChange[T any](fn func(ListState[T])) ListViewOption[T] {
	return func(lv *ListView[T]) { lv.onChange = fn }
}

func NewListView[T any](fetch FetchFunc[T], opts ...ListViewOption[T]) *ListView[T] {
	lv := &ListView[T]{
		fetch:    fetch,
		debounce: DefaultDebounce,
		state:    ListState[T]{Size: DefaultListPageSize, TotalPages: 1},
	}
	for _, opt := range opts {
		opt(lv)
	}
	return lv
}

// State returns a snapshot; the rows slice is shared and must not be
// mutated by the caller.
func (lv *ListView[T]) State() ListState[T] {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.state
}

// Refresh fetches the current page immediately.
func (lv *ListView[T]) Refresh(ctx context.Context) {
	lv.mu.Lock()
	lv.dispatchLocked(ctx)
	lv.mu.Unlock()
}

// SetQuery updates the search text and schedules a debounced fetch from
// page zero. Setting the same text again is a no-op.
func (lv *ListView[T]) SetQuery(ctx context.Context, query string) {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	if lv.closed || lv.state.Query == query {
		return
	}
	lv.state.Query = query
	lv.state.Page = 0
	lv.notifyLocked()

	if lv.timer != nil {
		lv.timer.Stop()
	}
	lv.timer = time.AfterFunc(lv.debounce, func() {
		lv.mu.Lock()
		lv.dispatchLocked(ctx)
		lv.mu.Unlock()
	})
}

// SetMineOnly toggles the ownership filter and refetches from page zero.
func (lv *ListView[T]) SetMineOnly(ctx context.Context, mine bool) {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	if lv.closed || lv.state.MineOnly == mine {
		return
	}
	lv.state.MineOnly = mine
	lv.state.Page = 0
	lv.dispatchLocked(ctx)
}

// SetPage moves to a zero-indexed page, clamped to the known page range.
func (lv *ListView[T]) SetPage(ctx context.Context, page int) {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	if lv.closed {
		return
	}
	if page < 0 {
		page = 0
	}
	if lv.state.TotalPages > 0 && page >= lv.state.TotalPages {
		page = lv.state.TotalPages - 1
	}
	if page == lv.state.Page && len(lv.state.Rows) > 0 {
		return
	}
	lv.state.Page = page
	lv.dispatchLocked(ctx)
}

// PageNumbers enumerates the zero-indexed pages for a pager, or nil when
// there are too many to list one by one.
func (lv *ListView[T]) PageNumbers() []int {
	lv.mu.Lock()
	total := lv.state.TotalPages
	lv.mu.Unlock()

	if total < 1 || total > maxEnumeratedPages {
		return nil
	}
	pages := make([]int, total)
	for i := range pages {
		pages[i] = i
	}
	return pages
}

// DeleteRow removes the row whose id matches, optimistically, after the
// delete call succeeds. Only admins may delete.
func (lv *ListView[T]) DeleteRow(ctx context.Context, role string, id uint, idFn func(T) uint, del func(context.Context, uint) error) error {
	if !CanDelete(role) {
		return &APIError{Status: 403, Message: "only admins can delete"}
	}
	if err := del(ctx, id); err != nil {
		return err
	}

	lv.mu.Lock()
	defer lv.mu.Unlock()
	if lv.closed {
		return nil
	}

	kept := lv.state.Rows[:0:0]
	for _, row := range lv.state.Rows {
		if idFn(row) != id {
			kept = append(kept, row)
		}
	}
	if len(kept) != len(lv.state.Rows) {
		lv.state.Rows = kept
		if lv.state.TotalElements > 0 {
			lv.state.TotalElements--
		}
		lv.notifyLocked()
	}
	return nil
}

// Close stops the debounce timer and discards any in-flight results.
func (lv *ListView[T]) Close() {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.closed = true
	if lv.timer != nil {
		lv.timer.Stop()
		lv.timer = nil
	}
}

// dispatchLocked starts a fetch for the current state. The sequence number
// taken here must still be current when the result arrives, so a slow
// earlier fetch can never overwrite a newer one.
func (lv *ListView[T]) dispatchLocked(ctx context.Context) {
	if lv.closed {
		return
	}
	lv.seq++
	my := lv.seq
	q := ListQuery{Page: lv.state.Page, Size: lv.state.Size, Query: lv.state.Query, MineOnly: lv.state.MineOnly}
	lv.state.Loading = true
	lv.notifyLocked()

	go func() {
		page, err := lv.fetch(ctx, q)

		lv.mu.Lock()
		defer lv.mu.Unlock()
		if lv.closed || my != lv.seq {
			return
		}
		lv.state.Loading = false
		if err != nil {
			lv.state.Err = err
			lv.notifyLocked()
			return
		}
		lv.state.Err = nil
		lv.state.Rows = page.Content
		lv.state.Page = page.Page
		if page.Size > 0 {
			lv.state.Size = page.Size
		}
		lv.state.TotalElements = page.TotalElements
		lv.state.TotalPages = page.TotalPages
		if lv.state.TotalPages < 1 {
			lv.state.TotalPages = 1
		}
		lv.notifyLocked()
	}()
}

func (lv *ListView[T]) notifyLocked() {
	if lv.onChange != nil {
		lv.onChange(lv.state)
	}
}

// CanDelete reports whether the role may delete rows from a listing.
func CanDelete(role string) bool {
	return strings.EqualFold(role, "ADMIN")
}

// FilterMine keeps the orders the user owns; used for small collections
// already loaded in memory.
func FilterMine(orders []Order, userID uint) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.OwnedBy(userID) {
			out = append(out, o)
		}
	}
	return out
}

// MatchesQuery reports whether an order matches a free-text search, the
// same fields the server searches.
func MatchesQuery(o Order, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{o.Title, o.ProductType, o.Material, o.Color} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
