package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "chartline/internal/platform/errors"
)

type vectorizeReq struct {
	Inputs []string `json:"inputs" validate:"required,min=1,dive,varref"`
	Values string   `json:"values" validate:"required"`
	Limit  int      `json:"limit" validate:"omitempty,max=100"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseJSON(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		opts      []JSONOptions
		wantCode  perr.ErrorCode
		wantField string
		wantErr   bool
	}{
		{name: "ok", body: `{"inputs":["Cr","Cr[-3]"],"values":"Cr=1.2"}`},
		{name: "dose ref", body: `{"inputs":["Dose/Coumadin[-1]"],"values":"x"}`},
		{name: "empty", body: "  ", wantErr: true, wantCode: perr.ErrorCodeJSON},
		{name: "unknown field", body: `{"inputs":["Cr"],"values":"x","zzz":1}`, wantErr: true, wantCode: perr.ErrorCodeJSON},
		{name: "unknown allowed", body: `{"inputs":["Cr"],"values":"x","zzz":1}`, opts: []JSONOptions{{AllowUnknown: true}}},
		{name: "trailing", body: `{"inputs":["Cr"],"values":"x"} {}`, wantErr: true, wantCode: perr.ErrorCodeJSON},
		{name: "too big", body: `{"inputs":["Cr"],"values":"x"}`, opts: []JSONOptions{{MaxBytes: 8}}, wantErr: true, wantCode: perr.ErrorCodeJSON},
		{name: "missing values", body: `{"inputs":["Cr"]}`, wantErr: true, wantCode: perr.ErrorCodeValidation, wantField: "values"},
		{name: "bad ref", body: `{"inputs":["Cr[x]"],"values":"x"}`, wantErr: true, wantCode: perr.ErrorCodeValidation},
		{name: "limit max", body: `{"inputs":["Cr"],"values":"x","limit":500}`, wantErr: true, wantCode: perr.ErrorCodeValidation, wantField: "limit"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseJSON[vectorizeReq](post(c.body), c.opts...)
			if !c.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(got.Inputs) == 0 {
					t.Fatalf("decoded nothing: %+v", got)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error, got %+v", got)
			}
			if perr.CodeOf(err) != c.wantCode {
				t.Fatalf("code = %v, want %v (%v)", perr.CodeOf(err), c.wantCode, err)
			}
			if c.wantField != "" {
				e, _ := perr.As(err)
				if e.Field() != c.wantField {
					t.Fatalf("field = %q, want %q", e.Field(), c.wantField)
				}
			}
		})
	}
}

func TestEmptyBodyAllowed(t *testing.T) {
	got, err := ParseJSON[vectorizeReq](post(""), JSONOptions{AllowEmptyBody: true})
	if err != nil || got.Inputs != nil {
		t.Fatalf("empty allowed = %+v %v", got, err)
	}
}

func TestShortMessages(t *testing.T) {
	err := Validate(vectorizeReq{Inputs: []string{"Cr"}, Values: "x", Limit: 101})
	if err == nil || !strings.Contains(err.Error(), "limit must be at most 100") {
		t.Fatalf("message = %v", err)
	}
}

func TestFieldAndMessageForeign(t *testing.T) {
	if f, m := FieldAndMessage(nil); f != "" || m != "" {
		t.Fatalf("nil = %q %q", f, m)
	}
	if _, m := FieldAndMessage(perr.Internalf("boom")); m != "boom" {
		t.Fatalf("foreign message = %q", m)
	}
}
