package dashboard

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/censo/census"
)

func newTestDispatcher() (*Dispatcher, *Session, *fakeLoader) {
	fl := &fakeLoader{
		data: map[string]census.Dataset{
			"201": {
				"nombre":             "Guastatoya",
				"pob_total":          "24000",
				"total_sexo_hombre":  500.0,
				"total_sexo_mujeres": 500.0,
			},
		},
		errs: map[string]error{"202": &census.FetchError{Code: "202", Status: http.StatusInternalServerError}},
	}
	valid := func(code string) bool { return code == "201" || code == "202" }
	return NewDispatcher(valid), NewSession("s1", fl, "201", nil), fl
}

func TestDispatch_SelectRendersAllViews(t *testing.T) {
	d, s, _ := newTestDispatcher()
	res, err := d.Dispatch(context.Background(), s, IntentSelect, Request{Code: "201"})
	require.NoError(t, err)
	require.NotNil(t, res.View)
	assert.False(t, res.TableOnly)
	assert.Equal(t, 4, res.View.Table.Count)
	assert.Len(t, res.View.Highlights, 2)
	require.Len(t, res.View.Cards, 1)
	assert.Equal(t, census.GroupSex, res.View.Cards[0].Group)
}

func TestDispatch_SelectUnknownMunicipality(t *testing.T) {
	d, s, fl := newTestDispatcher()
	_, err := d.Dispatch(context.Background(), s, IntentSelect, Request{Code: "999"})
	assert.Error(t, err)
	assert.Empty(t, fl.calls)
}

func TestDispatch_FetchFailureIsAView(t *testing.T) {
	d, s, _ := newTestDispatcher()
	_, err := d.Dispatch(context.Background(), s, IntentSelect, Request{Code: "201"})
	require.NoError(t, err)

	res, err := d.Dispatch(context.Background(), s, IntentSelect, Request{Code: "202"})
	require.NoError(t, err)
	assert.Equal(t, "Error al cargar: HTTP 500", res.View.Error)
	assert.Empty(t, res.View.Highlights)
	assert.Empty(t, res.View.Cards)
	assert.Equal(t, "Guastatoya", s.State().Dataset["nombre"])
}

func TestDispatch_LoadRefetchesSelected(t *testing.T) {
	d, s, fl := newTestDispatcher()
	_, err := d.Dispatch(context.Background(), s, IntentLoad, Request{})
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), s, IntentLoad, Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"201", "201"}, fl.calls)
}

func TestDispatch_FilterOnlyTable(t *testing.T) {
	d, s, fl := newTestDispatcher()
	_, err := d.Dispatch(context.Background(), s, IntentLoad, Request{})
	require.NoError(t, err)

	res, err := d.Dispatch(context.Background(), s, IntentFilter, Request{Filter: "SEXO"})
	require.NoError(t, err)
	assert.True(t, res.TableOnly)
	assert.Equal(t, 2, res.View.Table.Count)
	assert.Empty(t, res.View.Highlights)
	assert.Len(t, fl.calls, 1)
	assert.Equal(t, "SEXO", s.State().Filter)
}

func TestDispatch_Export(t *testing.T) {
	d, s, _ := newTestDispatcher()
	_, err := d.Dispatch(context.Background(), s, IntentLoad, Request{})
	require.NoError(t, err)

	res, err := d.Dispatch(context.Background(), s, IntentExport, Request{})
	require.NoError(t, err)
	require.NotNil(t, res.Download)
	assert.Equal(t, "censo_el_progreso_201.json", res.Download.Filename)

	res, err = d.Dispatch(context.Background(), s, IntentExport, Request{Format: "CSV"})
	require.NoError(t, err)
	assert.Equal(t, "censo_el_progreso_201.csv", res.Download.Filename)

	_, err = d.Dispatch(context.Background(), s, IntentExport, Request{Format: "docx"})
	assert.Error(t, err)

	d.RegisterExporter("txt", func(st State) (Download, error) {
		return Download{Filename: Filename(st.Code, "txt"), Body: []byte("ok")}, nil
	})
	res, err = d.Dispatch(context.Background(), s, IntentExport, Request{Format: "txt"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(res.Download.Body))
	assert.ElementsMatch(t, []string{"json", "csv", "xlsx", "txt"}, d.Formats())
}

func TestDispatch_Share(t *testing.T) {
	d, s, _ := newTestDispatcher()
	page, _ := url.Parse("http://localhost:8080/")

	res, err := d.Dispatch(context.Background(), s, IntentShare, Request{Page: page})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/?m=201", res.ShareURL)
	assert.Equal(t, MsgShared, res.Toast)
	msg, visible := s.Toast().Current()
	assert.True(t, visible)
	assert.Equal(t, MsgShared, msg)

	res, err = d.Dispatch(context.Background(), s, IntentShare, Request{})
	assert.Error(t, err)
	assert.Equal(t, MsgShareError, res.Toast)
}

func TestDispatch_UnknownIntent(t *testing.T) {
	d, s, _ := newTestDispatcher()
	_, err := d.Dispatch(context.Background(), s, Intent("print"), Request{})
	assert.ErrorIs(t, err, ErrUnknownIntent)
}
