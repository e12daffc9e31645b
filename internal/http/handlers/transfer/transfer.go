// Package transfer contains the bulk-transfer handlers: the JSON snapshot
// export/import pair and the sectioned CSV download. Both are derived views
// over the relational store — never an alternate write path for single
// records.
package transfer

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/awh15/school-records/internal/export"
	"github.com/awh15/school-records/internal/snapshot"
	"github.com/awh15/school-records/internal/storage"
	"github.com/awh15/school-records/internal/utils/response"
)

// ExportSnapshot handles GET /api/snapshot: the full store as a snapshot
// document.
func ExportSnapshot(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("exporting snapshot")

		f, err := snapshot.Export(store)
		if err != nil {
			slog.Error("error exporting snapshot", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, f)
	}
}

// ImportSnapshot handles POST /api/snapshot: bulk-loads a snapshot document
// into the store. Intended for an empty store; colliding ids surface as 409.
func ImportSnapshot(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("importing snapshot")

		f, err := snapshot.Read(r.Body)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := snapshot.Import(store, f); err != nil {
			slog.Error("error importing snapshot", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("snapshot imported",
			slog.Int("students", len(f.Students)),
			slog.Int("instructors", len(f.Instructors)),
			slog.Int("courses", len(f.Courses)))
		response.WriteJSON(w, http.StatusCreated, map[string]string{"status": "imported"})
	}
}

// ExportCSV handles GET /api/export/csv. The export is buffered so a storage
// failure can still produce an error status instead of a truncated file.
func ExportCSV(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("exporting csv")

		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, store); err != nil {
			slog.Error("error exporting csv", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="school_data.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}
