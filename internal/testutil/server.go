package testutil

import (
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/casesync/internal/remote"
)

// RemoteHandler serves g over the HTTP protocol spoken by
// remote.HTTPGateway, rooted at /:
//
//	GET  /rows?criteria=..&rowtag=..  rows of the dataset, or truncated="1"
//	POST /update                      <RESULT><VALUE>n</VALUE></RESULT>
//
// Gateway errors are answered as <RESULT><ERROR>..</ERROR></RESULT>.
func RemoteHandler(g *FakeGateway) http.Handler {
	r := chi.NewRouter()
	r.Get("/rows", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		rows, err := g.FetchRows(req.Context(), q.Get("criteria"), q.Get("rowtag"))
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		if err != nil {
			if remote.IsTooManyRows(err) {
				_, _ = io.WriteString(w, `<RESULT truncated="1"/>`)
				return
			}
			writeFault(w, err)
			return
		}
		_, _ = io.WriteString(w, renderRows(q.Get("rowtag"), rows))
	})
	r.Post("/update", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id, err := g.SubmitUpdate(req.Context(), string(body))
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		if err != nil {
			writeFault(w, err)
			return
		}
		_, _ = io.WriteString(w, "<RESULT><VALUE>"+strconv.Itoa(id)+"</VALUE></RESULT>")
	})
	return r
}

func writeFault(w io.Writer, err error) {
	msg := err.Error()
	var te *remote.TransportError
	if errors.As(err, &te) && te.Message != "" {
		msg = strings.TrimPrefix(te.Message, "remote fault: ")
	}
	_, _ = io.WriteString(w, "<RESULT><ERROR>"+escape(msg)+"</ERROR></RESULT>")
}

func renderRows(tag string, rows []remote.Row) string {
	var b strings.Builder
	b.WriteString(`<RESULT truncated="0">`)
	for _, row := range rows {
		cols := make([]string, 0, len(row))
		for c := range row {
			cols = append(cols, c)
		}
		sort.Strings(cols)

		b.WriteString("<" + tag + ">")
		for _, c := range cols {
			b.WriteString("<" + c + ">" + escape(row[c]) + "</" + c + ">")
		}
		b.WriteString("</" + tag + ">")
	}
	b.WriteString("</RESULT>")
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
