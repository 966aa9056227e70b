package fabriclog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 15, 4, 5, 0, time.Local)

func newTestSession(inv Invoker, sink Sink) *Session {
	return NewSession("test", NewForTesting(inv), sink, WithClock(func() time.Time { return fixedNow }))
}

func TestSession_ExtractAndSave(t *testing.T) {
	inv := &StubInvoker{Reply: `Here is the data: {"name":"コットン","material":"cotton","width":"110cm","length":2,"total_price":2000,"shop":"A店"}`}
	sink := &MemorySink{}
	s := newTestSession(inv, sink)

	rec, err := s.Extract(context.Background(), TextInput("コットン 2m 2000円"))
	require.NoError(t, err)
	assert.Equal(t, "コットン", rec.Name)
	require.NotNil(t, s.Current())
	assert.Equal(t, inv.Reply, s.LastResponse())

	saved, err := s.Save(context.Background(), Edits{Color: ptr("白")})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), saved.UnitPricePerM)
	assert.Equal(t, fixedNow, saved.CapturedAt)

	require.Equal(t, 1, sink.Len())
	assert.Equal(t, []any{"2024/03/09", "コットン", "cotton", "110cm", 2.0, int64(2000), int64(1000), "白", "A店"}, sink.Rows[0])

	assert.Nil(t, s.Current(), "working record is cleared after a save")
	assert.Empty(t, s.LastResponse())
}

func TestSession_MalformedResponse(t *testing.T) {
	inv := &StubInvoker{Reply: "I could not read the label, sorry."}
	sink := &MemorySink{}
	s := newTestSession(inv, sink)

	_, err := s.Extract(context.Background(), TextInput("???"))
	var mr *MalformedResponse
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, inv.Reply, mr.Raw)

	cur := s.Current()
	require.NotNil(t, cur, "a blank record is offered for manual entry")
	assert.Equal(t, FabricRecord{}, *cur)
	assert.Equal(t, inv.Reply, s.LastResponse())

	saved, err := s.Save(context.Background(), Edits{
		Name:       ptr("手入力"),
		LengthM:    ptr(3.0),
		TotalPrice: ptr(int64(1000)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(333), saved.UnitPricePerM)
	assert.Equal(t, 1, sink.Len())
}

func TestSession_ExtractionFailureKeepsRecord(t *testing.T) {
	inv := &StubInvoker{Reply: `{"name":"first"}`}
	s := newTestSession(inv, &MemorySink{})

	_, err := s.Extract(context.Background(), TextInput("a"))
	require.NoError(t, err)

	inv.Err = errors.New("503 unavailable")
	_, err = s.Extract(context.Background(), TextInput("b"))
	var ef *ExtractionFailure
	require.ErrorAs(t, err, &ef)

	require.NotNil(t, s.Current())
	assert.Equal(t, "first", s.Current().Name)
}

func TestSession_SaveFailureKeepsRecord(t *testing.T) {
	denied := errors.New("403 The caller does not have permission")
	fail := true
	var rows [][]any
	sink := SinkFunc(func(ctx context.Context, row []any) error {
		if fail {
			return denied
		}
		rows = append(rows, row)
		return nil
	})

	inv := &StubInvoker{Reply: `{"name":"リネン","length":1.5,"total_price":3000}`}
	s := newTestSession(inv, sink)

	_, err := s.Extract(context.Background(), TextInput("x"))
	require.NoError(t, err)

	_, err = s.Save(context.Background(), Edits{Shop: ptr("C店")})
	var sf *SaveFailure
	require.ErrorAs(t, err, &sf)
	assert.ErrorIs(t, err, denied)

	cur := s.Current()
	require.NotNil(t, cur, "nothing is lost on a failed save")
	assert.Equal(t, "リネン", cur.Name)
	assert.Equal(t, "C店", cur.Shop)
	assert.Equal(t, int64(2000), cur.UnitPricePerM)

	fail = false
	saved, err := s.Save(context.Background(), Edits{})
	require.NoError(t, err)
	assert.Equal(t, "C店", saved.Shop)
	require.Len(t, rows, 1)
	assert.Nil(t, s.Current())
}

func TestSession_RepeatedSaveRejected(t *testing.T) {
	inv := &StubInvoker{Reply: `{"name":"コットン","length":2,"total_price":2000}`}
	sink := &MemorySink{}
	s := newTestSession(inv, sink)

	_, err := s.Extract(context.Background(), TextInput("x"))
	require.NoError(t, err)

	edits := Edits{Name: ptr("コットン"), LengthM: ptr(2.0), TotalPrice: ptr(int64(2000)), Shop: ptr("A店")}
	_, err = s.Save(context.Background(), edits)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), edits)
	assert.ErrorIs(t, err, ErrNoRecord)
	assert.Equal(t, 1, sink.Len(), "the same row is not appended twice")
	assert.Nil(t, s.Current())
}

func TestSession_SaveWithoutRecord(t *testing.T) {
	sink := &MemorySink{}
	s := newTestSession(&StubInvoker{}, sink)

	_, err := s.Save(context.Background(), Edits{Name: ptr("メモ")})
	assert.ErrorIs(t, err, ErrNoRecord)
	assert.Equal(t, 0, sink.Len())
}

func TestSession_BeginManualEntry(t *testing.T) {
	sink := &MemorySink{}
	s := newTestSession(&StubInvoker{Reply: `{"name":"first"}`}, sink)

	rec := s.Begin()
	require.NotNil(t, rec)
	assert.Equal(t, FabricRecord{}, *rec)

	saved, err := s.Save(context.Background(), Edits{Name: ptr("メモ")})
	require.NoError(t, err)
	assert.Equal(t, "メモ", saved.Name)
	assert.Equal(t, int64(0), saved.UnitPricePerM)
	assert.Equal(t, 1, sink.Len())

	_, err = s.Extract(context.Background(), TextInput("x"))
	require.NoError(t, err)
	assert.Equal(t, "first", s.Begin().Name, "Begin keeps an existing record")
}

func TestSession_ModelChosenOnce(t *testing.T) {
	catalog := &StubCatalog{Names: []string{"gemini-pro"}}
	inv := &StubInvoker{Reply: "{}"}
	x := NewExtractorWithInvoker(inv, catalog, SimplePromptProvider{"fabric": "p"}, nil)
	s := NewSession("m", x, &MemorySink{})

	for i := 0; i < 3; i++ {
		_, err := s.Extract(context.Background(), TextInput("x"))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, catalog.Calls)
	for _, c := range inv.Calls {
		assert.Equal(t, Model("gemini-pro"), c.Model)
	}
}

func TestSession_Clear(t *testing.T) {
	s := newTestSession(&StubInvoker{Reply: `{"name":"x"}`}, &MemorySink{})
	_, err := s.Extract(context.Background(), TextInput("x"))
	require.NoError(t, err)

	s.Clear()
	assert.Nil(t, s.Current())
	assert.Empty(t, s.LastResponse())
}

func TestSession_CurrentIsCopy(t *testing.T) {
	s := newTestSession(&StubInvoker{Reply: `{"name":"x"}`}, &MemorySink{})
	_, err := s.Extract(context.Background(), TextInput("x"))
	require.NoError(t, err)

	s.Current().Name = "mutated"
	assert.Equal(t, "x", s.Current().Name)
}

func TestSessionStore(t *testing.T) {
	st := NewSessionStore(NewForTesting(&StubInvoker{}), &MemorySink{})

	a, created := st.Get("")
	assert.True(t, created)
	assert.NotEmpty(t, a.ID)

	again, created := st.Get(a.ID)
	assert.False(t, created)
	assert.Same(t, a, again)

	b, created := st.Get("forged-id")
	assert.True(t, created)
	assert.NotEqual(t, "forged-id", b.ID)
	assert.Equal(t, 2, st.Len())

	st.Delete(a.ID)
	assert.Equal(t, 1, st.Len())
}
