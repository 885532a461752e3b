package workflowclient

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func orderPage(page, totalPages int, titles ...string) Page[Order] {
	content := make([]Order, len(titles))
	for i, title := range titles {
		content[i] = Order{ID: uint(i + 1), Title: title}
	}
	return Page[Order]{
		Content:       content,
		Page:          page,
		Size:          DefaultListPageSize,
		TotalElements: int64(len(titles)),
		TotalPages:    totalPages,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestRefreshLoadsPage(t *testing.T) {
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		return orderPage(0, 1, "Mesa", "Silla"), nil
	})
	defer lv.Close()

	lv.Refresh(context.Background())
	waitFor(t, func() bool { return len(lv.State().Rows) == 2 })

	state := lv.State()
	require.False(t, state.Loading)
	require.NoError(t, state.Err)
	require.Equal(t, "Mesa", state.Rows[0].Title)
	require.EqualValues(t, 2, state.TotalElements)
}

func TestSetQueryDebounces(t *testing.T) {
	var calls atomic.Int32
	var lastQuery atomic.Value
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		calls.Add(1)
		lastQuery.Store(q.Query)
		return orderPage(0, 1, "Mesa"), nil
	}, WithDebounce[Order](20*time.Millisecond))
	defer lv.Close()

	ctx := context.Background()
	lv.SetQuery(ctx, "m")
	lv.SetQuery(ctx, "me")
	lv.SetQuery(ctx, "mesa")

	require.Zero(t, calls.Load())

	waitFor(t, func() bool { return calls.Load() == 1 })
	require.Equal(t, "mesa", lastQuery.Load())

	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 1, calls.Load())
}

func TestSetQueryResetsPage(t *testing.T) {
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		return orderPage(q.Page, 3, "Mesa"), nil
	}, WithDebounce[Order](5*time.Millisecond))
	defer lv.Close()

	ctx := context.Background()
	lv.Refresh(ctx)
	waitFor(t, func() bool { return lv.State().TotalPages == 3 })

	lv.SetPage(ctx, 2)
	waitFor(t, func() bool { return lv.State().Page == 2 })

	lv.SetQuery(ctx, "mesa")
	require.Zero(t, lv.State().Page)
}

func TestSetPageClamps(t *testing.T) {
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		return orderPage(q.Page, 3, "Mesa"), nil
	})
	defer lv.Close()

	ctx := context.Background()
	lv.Refresh(ctx)
	waitFor(t, func() bool { return lv.State().TotalPages == 3 })

	lv.SetPage(ctx, 10)
	waitFor(t, func() bool { return lv.State().Page == 2 })

	lv.SetPage(ctx, -5)
	waitFor(t, func() bool { return lv.State().Page == 0 })
}

func TestStaleFetchNeverOverwritesNewerState(t *testing.T) {
	release := make(chan struct{})
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		if !q.MineOnly {
			<-release
			return orderPage(0, 1, "todos"), nil
		}
		return orderPage(0, 1, "mios"), nil
	})
	defer lv.Close()

	ctx := context.Background()
	lv.Refresh(ctx)
	lv.SetMineOnly(ctx, true)
	waitFor(t, func() bool {
		state := lv.State()
		return len(state.Rows) == 1 && state.Rows[0].Title == "mios"
	})

	close(release)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, "mios", lv.State().Rows[0].Title)
}

func TestCloseBlocksLateResults(t *testing.T) {
	release := make(chan struct{})
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		<-release
		return orderPage(0, 1, "tarde"), nil
	})

	lv.Refresh(context.Background())
	waitFor(t, func() bool { return lv.State().Loading })

	lv.Close()
	close(release)
	time.Sleep(50 * time.Millisecond)

	require.Empty(t, lv.State().Rows)
	require.Zero(t, lv.State().TotalElements)
}

func TestCloseStopsPendingDebounce(t *testing.T) {
	var calls atomic.Int32
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		calls.Add(1)
		return orderPage(0, 1, "Mesa"), nil
	}, WithDebounce[Order](20*time.Millisecond))

	lv.SetQuery(context.Background(), "mesa")
	lv.Close()

	time.Sleep(50 * time.Millisecond)
	require.Zero(t, calls.Load())
}

func TestOnChangeReceivesSnapshots(t *testing.T) {
	snaps := make(chan ListState[Order], 8)
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		return orderPage(0, 1, "Mesa"), nil
	}, WithOnChange[Order](func(s ListState[Order]) { snaps <- s }))
	defer lv.Close()

	lv.Refresh(context.Background())

	first := <-snaps
	require.True(t, first.Loading)
	require.Empty(t, first.Rows)

	second := <-snaps
	require.False(t, second.Loading)
	require.Len(t, second.Rows, 1)
	require.Equal(t, "Mesa", second.Rows[0].Title)
}

func TestSetMineOnlyResetsPage(t *testing.T) {
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		return orderPage(q.Page, 3, "Mesa"), nil
	})
	defer lv.Close()

	ctx := context.Background()
	lv.Refresh(ctx)
	waitFor(t, func() bool { return lv.State().TotalPages == 3 })
	lv.SetPage(ctx, 2)
	waitFor(t, func() bool { return lv.State().Page == 2 })

	lv.SetMineOnly(ctx, true)
	waitFor(t, func() bool {
		state := lv.State()
		return state.MineOnly && state.Page == 0
	})
}

func TestDeleteRow(t *testing.T) {
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		return orderPage(0, 1, "Mesa", "Silla", "Cama"), nil
	})
	defer lv.Close()

	ctx := context.Background()
	lv.Refresh(ctx)
	waitFor(t, func() bool { return len(lv.State().Rows) == 3 })

	idFn := func(o Order) uint { return o.ID }

	err := lv.DeleteRow(ctx, "USER", 2, idFn, func(context.Context, uint) error { return nil })
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 403, apiErr.Status)
	require.Len(t, lv.State().Rows, 3)

	var deleted uint
	err = lv.DeleteRow(ctx, "ADMIN", 2, idFn, func(_ context.Context, id uint) error {
		deleted = id
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	state := lv.State()
	require.Len(t, state.Rows, 2)
	require.EqualValues(t, 2, state.TotalElements)
	for _, row := range state.Rows {
		require.NotEqualValues(t, 2, row.ID)
	}
}

func TestPageNumbers(t *testing.T) {
	lv := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		return orderPage(0, 3, "Mesa"), nil
	})
	defer lv.Close()

	lv.Refresh(context.Background())
	waitFor(t, func() bool { return lv.State().TotalPages == 3 })
	require.Equal(t, []int{0, 1, 2}, lv.PageNumbers())

	big := NewListView(func(ctx context.Context, q ListQuery) (Page[Order], error) {
		return orderPage(0, 40, "Mesa"), nil
	})
	defer big.Close()

	big.Refresh(context.Background())
	waitFor(t, func() bool { return big.State().TotalPages == 40 })
	require.Nil(t, big.PageNumbers())
}

func TestStatusClass(t *testing.T) {
	cases := map[string]string{
		"IN_PROGRESS": "in-progress",
		"FINISHED":    "finished",
		"finished":    "finished",
		"LATE":        "late",
		"DELIVERED":   "delivered",
		"":            "in-progress",
		"UNKNOWN":     "in-progress",
		" late ":      "late",
	}
	for status, want := range cases {
		require.Equal(t, want, StatusClass(status), "status %q", status)
	}
}

func TestCanDelete(t *testing.T) {
	require.True(t, CanDelete("ADMIN"))
	require.True(t, CanDelete("admin"))
	require.False(t, CanDelete("USER"))
	require.False(t, CanDelete("SELLER"))
	require.False(t, CanDelete(""))
}

func TestFilterMine(t *testing.T) {
	orders := []Order{
		{ID: 1, OwnerID: 4},
		{ID: 2, OwnerID: 5},
		{ID: 3, Owner: &struct {
			ID uint `json:"id"`
		}{ID: 4}},
	}
	mine := FilterMine(orders, 4)
	require.Len(t, mine, 2)
	require.EqualValues(t, 1, mine[0].ID)
	require.EqualValues(t, 3, mine[1].ID)
}

func TestMatchesQuery(t *testing.T) {
	order := Order{Title: "Mesa de roble", ProductType: "MESA", Material: "roble", Color: "natural"}
	require.True(t, MatchesQuery(order, ""))
	require.True(t, MatchesQuery(order, "mesa"))
	require.True(t, MatchesQuery(order, "ROBLE"))
	require.True(t, MatchesQuery(order, "natural"))
	require.False(t, MatchesQuery(order, "placard"))
}
