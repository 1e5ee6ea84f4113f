package resp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minsky/internal/pkg/errs"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondListNilIsEmptyArray(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/groups", nil)

	RespondList[string](rec, req, "groups", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, []any{}, data["groups"])
	assert.EqualValues(t, 0, data["count"])
}

func TestRespondListCountsItems(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/users", nil)

	RespondList(rec, req, "users", []string{"alice", "bob"})

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, []any{"alice", "bob"}, data["users"])
	assert.EqualValues(t, 2, data["count"])
}

func TestRespondErrorUsesStatusFromCode(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/users/nobody", nil)

	RespondError(rec, req, errs.NewError(errs.ErrUserNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, errs.ErrUserNotFound, body["code"])
	assert.NotContains(t, body, "data")
}

func TestRespondErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(rec, req, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
