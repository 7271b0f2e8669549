package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/catalog"
	"github.com/Sternrassler/book-search-client/pkg/engine"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, query string, offset, limit int) ([]catalog.Item, error) {
	items := make([]catalog.Item, 3)
	for i := range items {
		items[i] = catalog.Item{
			ID:      fmt.Sprintf("%s-%d", query, offset+i),
			Title:   fmt.Sprintf("%s title %d", query, offset+i),
			Authors: []string{"Frank Herbert"},
		}
	}
	return items, nil
}

func newTestModel(t *testing.T) (*Model, *engine.Engine) {
	t.Helper()
	e, err := engine.New(context.Background(), stubSearcher{}, engine.Config{QuietInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return New(e), e
}

func settle(t *testing.T, m *Model, e *engine.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := e.WaitSettled(ctx)
	require.NoError(t, err)
	v, changed := e.Snapshot()
	m.Update(viewChangedMsg{view: v, changed: changed})
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func TestModel_TypingSearches(t *testing.T) {
	m, e := newTestModel(t)
	assert.Contains(t, m.View(), "Type to search")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("dune")})
	assert.Equal(t, "dune", m.input.Value())
	assert.Equal(t, "", e.View().Query, "input is debounced")

	m.Update(key(tea.KeyEnter))
	settle(t, m, e)

	out := m.View()
	assert.Contains(t, out, "dune title 0")
	assert.Contains(t, out, "Frank Herbert")
	assert.Contains(t, out, "Page 1")
}

func TestModel_Paging(t *testing.T) {
	m, e := newTestModel(t)
	e.SetQuery("dune")
	settle(t, m, e)

	m.Update(key(tea.KeyPgDown))
	settle(t, m, e)
	assert.Equal(t, 2, m.view.CurrentPage)
	assert.Contains(t, m.View(), "dune title 20")

	m.Update(key(tea.KeyCtrlN))
	settle(t, m, e)
	assert.Equal(t, 3, m.view.CurrentPage)

	m.Update(key(tea.KeyCtrlB))
	settle(t, m, e)
	assert.Equal(t, 2, m.view.CurrentPage)

	m.Update(key(tea.KeyHome))
	settle(t, m, e)
	assert.Equal(t, 1, m.view.CurrentPage)

	m.Update(key(tea.KeyPgUp))
	settle(t, m, e)
	assert.Equal(t, 1, m.view.CurrentPage, "no page before the first")
}

func TestModel_Pagination(t *testing.T) {
	m, e := newTestModel(t)
	e.SetQuery("dune")
	settle(t, m, e)
	for i := 0; i < 4; i++ {
		m.Update(key(tea.KeyPgDown))
		settle(t, m, e)
	}

	bar := m.renderPagination()
	assert.True(t, strings.Contains(bar, "..."), bar)
	assert.Contains(t, bar, "6")
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(key(tea.KeyEsc))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_StartsWithRestoredQuery(t *testing.T) {
	e, err := engine.New(context.Background(), stubSearcher{}, engine.DefaultConfig())
	require.NoError(t, err)
	defer e.Close()
	e.SetQuery("foundation")

	m := New(e)
	assert.Equal(t, "foundation", m.input.Value())
}
