package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSheets is an in-memory stand-in for the Sheets v4 API, covering the
// endpoints the publisher touches.
type fakeSheets struct {
	mu          sync.Mutex
	tabs        map[string]int64
	values      map[string][][]interface{}
	nextSheetID int64
	batchCalls  int
	clearCalls  int
}

func newFakeSheets(existingTabs ...string) *fakeSheets {
	f := &fakeSheets{
		tabs:        map[string]int64{},
		values:      map[string][][]interface{}{},
		nextSheetID: 100,
	}
	for _, t := range existingTabs {
		f.tabs[t] = f.nextSheetID
		f.nextSheetID++
	}
	return f
}

func (f *fakeSheets) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		path := r.URL.Path
		switch {
		case r.Method == http.MethodGet && path == "/spreadsheet-1":
			ss := spreadsheet{}
			for title, id := range f.tabs {
				ss.Sheets = append(ss.Sheets, sheet{Properties: sheetProperties{SheetID: id, Title: title}})
			}
			json.NewEncoder(w).Encode(ss)

		case r.Method == http.MethodPost && path == "/spreadsheet-1:batchUpdate":
			f.batchCalls++
			var req batchUpdateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			var resp batchUpdateResponse
			for _, one := range req.Requests {
				if one.AddSheet != nil {
					id := f.nextSheetID
					f.nextSheetID++
					f.tabs[one.AddSheet.Properties.Title] = id
					var reply struct {
						AddSheet *struct {
							Properties sheetProperties `json:"properties"`
						} `json:"addSheet,omitempty"`
					}
					reply.AddSheet = &struct {
						Properties sheetProperties `json:"properties"`
					}{Properties: sheetProperties{SheetID: id, Title: one.AddSheet.Properties.Title}}
					resp.Replies = append(resp.Replies, reply)
				}
			}
			json.NewEncoder(w).Encode(resp)

		case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
			f.clearCalls++
			tab := strings.TrimSuffix(strings.TrimPrefix(path, "/spreadsheet-1/values/"), ":clear")
			f.values[tab] = nil
			fmt.Fprint(w, `{}`)

		case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
			tab := strings.TrimSuffix(strings.TrimPrefix(path, "/spreadsheet-1/values/"), "!A1")
			var vr valueRange
			require.NoError(t, json.NewDecoder(r.Body).Decode(&vr))
			f.values[tab] = vr.Values
			cells := 0
			for _, row := range vr.Values {
				cells += len(row)
			}
			json.NewEncoder(w).Encode(updateValuesResponse{
				UpdatedRows: len(vr.Values), UpdatedCells: cells,
			})

		default:
			t.Errorf("unexpected request %s %s", r.Method, path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestPublisher(t *testing.T, fake *fakeSheets) *Publisher {
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)
	client := newClientWithDoer(server.URL, "spreadsheet-1", server.Client())
	return NewPublisher(client)
}

func sampleTable() Table {
	return Table{
		Header: []string{"Ad Set", "Spend", "CTR", "Efficiency Score"},
		Rows: [][]interface{}{
			{"Lookalike", 600.0, 1.2, 72.5},
			{"Broad", 180.0, 0.6, 31.0},
		},
	}
}

func TestPublishCreatesTabAndWritesValues(t *testing.T) {
	fake := newFakeSheets()
	pub := newTestPublisher(t, fake)

	err := pub.Publish(context.Background(), "Adset Performance", sampleTable(),
		Options{IncludeHeader: true, ClearExisting: true})

	require.NoError(t, err)
	assert.Contains(t, fake.tabs, "Adset Performance")

	values := fake.values["Adset Performance"]
	require.Len(t, values, 3)
	assert.Equal(t, "Ad Set", values[0][0])
	assert.Equal(t, "Lookalike", values[1][0])
	assert.Equal(t, 600.0, values[1][1])
}

func TestPublishIsIdempotent(t *testing.T) {
	fake := newFakeSheets("Adset Performance")
	pub := newTestPublisher(t, fake)
	opts := Options{IncludeHeader: true, ClearExisting: true}

	require.NoError(t, pub.Publish(context.Background(), "Adset Performance", sampleTable(), opts))
	first := fake.values["Adset Performance"]

	require.NoError(t, pub.Publish(context.Background(), "Adset Performance", sampleTable(), opts))
	second := fake.values["Adset Performance"]

	assert.Equal(t, first, second)
	assert.Equal(t, 2, fake.clearCalls)
	// No duplicate tab was created.
	assert.Len(t, fake.tabs, 1)
}

func TestPublishRejectsEmptyTable(t *testing.T) {
	pub := newTestPublisher(t, newFakeSheets())

	err := pub.Publish(context.Background(), "Empty", Table{Header: []string{"A"}}, Options{})

	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestPublishRejectsRaggedRows(t *testing.T) {
	pub := newTestPublisher(t, newFakeSheets())
	table := Table{
		Header: []string{"A", "B"},
		Rows:   [][]interface{}{{"only-one-cell"}},
	}

	err := pub.Publish(context.Background(), "Ragged", table, Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")
}

func TestCoerceCell(t *testing.T) {
	assert.Equal(t, "", coerceCell(nil))
	assert.Equal(t, 42.0, coerceCell(42))
	assert.Equal(t, 42.0, coerceCell(int64(42)))
	assert.Equal(t, 1.5, coerceCell(1.5))
	assert.Equal(t, "", coerceCell(nan()))
	assert.Equal(t, "2024-03-05", coerceCell(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "hello", coerceCell("hello"))
	assert.Equal(t, true, coerceCell(true))
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestNumberFormatFor(t *testing.T) {
	assert.Equal(t, "CURRENCY", numberFormatFor("Spend").Type)
	assert.Equal(t, "CURRENCY", numberFormatFor("Cost per Link Click").Type)
	assert.Equal(t, "NUMBER", numberFormatFor("CTR").Type)
	assert.Equal(t, "NUMBER", numberFormatFor("Impressions").Type)
	assert.Nil(t, numberFormatFor("Ad Set"))
}
