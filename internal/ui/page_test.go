package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "duty-tracker.com/duty-tracker/pkg/models"
)

var errAPI = errors.New("api down")

type fakeAPI struct {
	mu      sync.Mutex
	nextID  int64
	duties  []model.Duty
	failOn  map[string]bool
	created []string
	updated map[int64]string
	deleted []int64
}

func newFakeAPI(duties ...model.Duty) *fakeAPI {
	f := &fakeAPI{duties: duties, failOn: map[string]bool{}, updated: map[int64]string{}, nextID: 100}
	return f
}

func (f *fakeAPI) List(context.Context) ([]model.Duty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn["list"] {
		return nil, errAPI
	}
	out := make([]model.Duty, len(f.duties))
	copy(out, f.duties)
	return out, nil
}

func (f *fakeAPI) Create(_ context.Context, name string) (*model.Duty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn["create"] {
		return nil, errAPI
	}
	f.nextID++
	f.created = append(f.created, name)
	return &model.Duty{ID: f.nextID, Name: name, CreatedAt: time.Now()}, nil
}

func (f *fakeAPI) Update(_ context.Context, id int64, name string) (*model.Duty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn["update"] {
		return nil, errAPI
	}
	f.updated[id] = name
	for _, d := range f.duties {
		if d.ID == id {
			d.Name = name
			return &d, nil
		}
	}
	return nil, errAPI
}

func (f *fakeAPI) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn["delete"] {
		return errAPI
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func sampleDuties() []model.Duty {
	return []model.Duty{
		{ID: 2, Name: "Test Duty 2", CreatedAt: time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 1, Name: "Test Duty 1", CreatedAt: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func send(m PageModel, msg tea.Msg) (PageModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(PageModel), cmd
}

// collect runs cmd and returns every message it produces.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// settle runs cmd and feeds the resulting duty messages back into m.
func settle(m PageModel, cmd tea.Cmd) PageModel {
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case dutiesLoadedMsg, dutyCreatedMsg, dutyUpdatedMsg, dutyDeletedMsg, opFailedMsg:
			m, _ = send(m, msg)
		}
	}
	return m
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func loadedPage(t *testing.T, api *fakeAPI) PageModel {
	t.Helper()

	m := NewPageModel(api, WithNoticeTTL(time.Millisecond))
	m = settle(m, m.Init())
	require.False(t, m.loading)
	return m
}

func TestPageModel_LoadingThenList(t *testing.T) {
	m := NewPageModel(newFakeAPI(sampleDuties()...))
	assert.Contains(t, m.View(), "Loading duties...")

	m = settle(m, m.Init())
	view := m.View()
	assert.NotContains(t, view, "Loading duties...")

	first := strings.Index(view, "Test Duty 1")
	second := strings.Index(view, "Test Duty 2")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second, "duties are listed oldest first")
}

func TestPageModel_SpinnerStopsAfterLoad(t *testing.T) {
	m := loadedPage(t, newFakeAPI())

	_, cmd := send(m, spinner.TickMsg{})
	assert.Nil(t, cmd)
}

func TestPageModel_FetchFailureShowsNotice(t *testing.T) {
	api := newFakeAPI()
	api.failOn["list"] = true

	m := NewPageModel(api, WithNoticeTTL(time.Millisecond))
	for _, msg := range collect(m.Init()) {
		if failed, ok := msg.(opFailedMsg); ok {
			var tick tea.Cmd
			m, tick = send(m, failed)
			assert.False(t, m.loading)
			assert.Contains(t, m.View(), NoticeFetchFailed)

			for _, expired := range collect(tick) {
				m, _ = send(m, expired)
			}
			assert.NotContains(t, m.View(), NoticeFetchFailed, "notice expires")
		}
	}
}

func TestPageModel_AddDuty(t *testing.T) {
	api := newFakeAPI(sampleDuties()...)
	m := loadedPage(t, api)

	m, _ = send(m, keys("  Write report  "))
	m, cmd := send(m, key(tea.KeyEnter))
	m = settle(m, cmd)

	assert.Equal(t, []string{"Write report"}, api.created)
	assert.Empty(t, m.form.Value(), "form clears after submit")
	require.Len(t, m.duties, 3)
	assert.Contains(t, m.View(), "Write report")
}

func TestPageModel_AddDutyValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "blank", input: "   ", want: msgNameRequired},
		{name: "too long", input: strings.Repeat("a", model.NameMaxLength+1), want: msgNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			m := loadedPage(t, api)

			m, _ = send(m, keys(tt.input))
			m, cmd := send(m, key(tea.KeyEnter))

			assert.Nil(t, cmd)
			assert.Equal(t, tt.want, m.form.Err())
			assert.Contains(t, m.View(), tt.want)
			assert.Empty(t, api.created)
		})
	}
}

func TestPageModel_AddFailure(t *testing.T) {
	api := newFakeAPI()
	api.failOn["create"] = true
	m := loadedPage(t, api)

	m, _ = send(m, keys("New Duty"))
	m, cmd := send(m, key(tea.KeyEnter))
	m = settle(m, cmd)

	assert.Empty(t, m.duties)
	assert.Contains(t, m.View(), NoticeAddFailed)
}

func TestPageModel_UpdateConfirmAndCancel(t *testing.T) {
	api := newFakeAPI(sampleDuties()...)
	m := loadedPage(t, api)

	m, _ = send(m, key(tea.KeyTab))
	m, _ = send(m, keys("u"))
	require.True(t, m.editing)
	assert.Equal(t, int64(1), m.editID, "cursor starts on the oldest duty")
	assert.Equal(t, "Test Duty 1", m.editForm.Value())

	m, _ = send(m, key(tea.KeyEsc))
	assert.False(t, m.editing)
	assert.Empty(t, api.updated)

	m, _ = send(m, key(tea.KeyDown))
	m, _ = send(m, keys("u"))
	require.Equal(t, int64(2), m.editID)

	m.editForm.SetValue("")
	m, cmd := send(m, key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.True(t, m.editing, "invalid name keeps the dialog open")
	assert.Equal(t, msgNameRequired, m.editErr)

	m, _ = send(m, keys("Updated"))
	m, cmd = send(m, key(tea.KeyEnter))
	assert.False(t, m.editing)
	m = settle(m, cmd)

	assert.Equal(t, map[int64]string{2: "Updated"}, api.updated)
	assert.Contains(t, m.View(), "Updated")
	assert.NotContains(t, m.View(), "Test Duty 2")
}

func TestPageModel_UpdateFailure(t *testing.T) {
	api := newFakeAPI(sampleDuties()...)
	api.failOn["update"] = true
	m := loadedPage(t, api)

	m, _ = send(m, key(tea.KeyTab))
	m, _ = send(m, keys("u"))
	m, _ = send(m, keys("!"))
	m, cmd := send(m, key(tea.KeyEnter))
	m = settle(m, cmd)

	assert.Contains(t, m.View(), NoticeUpdateFailed)
	assert.Contains(t, m.View(), "Test Duty 1")
}

func TestPageModel_Delete(t *testing.T) {
	api := newFakeAPI(sampleDuties()...)
	m := loadedPage(t, api)

	m, _ = send(m, key(tea.KeyTab))
	m, _ = send(m, key(tea.KeyDown))
	m, cmd := send(m, keys("d"))
	m = settle(m, cmd)

	assert.Equal(t, []int64{2}, api.deleted)
	require.Len(t, m.duties, 1)
	assert.Equal(t, 0, m.cursor)
	assert.NotContains(t, m.View(), "Test Duty 2")

	api.failOn["delete"] = true
	m, cmd = send(m, keys("d"))
	m = settle(m, cmd)
	assert.Len(t, m.duties, 1)
	assert.Contains(t, m.View(), NoticeDeleteFailed)
}

func TestPageModel_StaleNoticeTickIsIgnored(t *testing.T) {
	m := loadedPage(t, newFakeAPI())

	m, _ = send(m, opFailedMsg{notice: NoticeAddFailed})
	m, _ = send(m, opFailedMsg{notice: NoticeDeleteFailed})
	m, _ = send(m, clearNoticeMsg{seq: 1})

	assert.Contains(t, m.View(), NoticeDeleteFailed)

	m, _ = send(m, clearNoticeMsg{seq: 2})
	assert.NotContains(t, m.View(), NoticeDeleteFailed)
}

func TestPageModel_Quit(t *testing.T) {
	m := loadedPage(t, newFakeAPI())

	typed, _ := send(m, keys("q"))
	assert.Equal(t, "q", typed.form.Value(), "q types into the focused form")

	_, cmd := send(m, key(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	m, _ = send(m, key(tea.KeyTab))
	_, cmd = send(m, keys("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestSortDuties(t *testing.T) {
	at := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	in := []model.Duty{
		{ID: 3, Name: "c", CreatedAt: at.Add(time.Hour)},
		{ID: 2, Name: "b", CreatedAt: at},
		{ID: 1, Name: "a", CreatedAt: at},
	}

	got := sortDuties(in)

	ids := make([]int64, 0, len(got))
	for _, d := range got {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, int64(3), in[0].ID, "input is left untouched")
}
