package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewMeta(t *testing.T) {
	tests := []struct {
		page, perPage, total int
		wantPages            int
	}{
		{1, 20, 0, 0},
		{1, 20, 20, 1},
		{2, 20, 21, 2},
		{1, 0, 3, 3},
	}
	for _, tt := range tests {
		if got := NewMeta(tt.page, tt.perPage, tt.total); got.TotalPages != tt.wantPages {
			t.Errorf("NewMeta(%d, %d, %d).TotalPages = %d, want %d",
				tt.page, tt.perPage, tt.total, got.TotalPages, tt.wantPages)
		}
	}
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Conflict(rec, "already there")

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	var body APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error == nil || body.Error.Code != "CONFLICT" || body.Error.Message != "already there" {
		t.Errorf("unexpected body: %+v", body)
	}
}
