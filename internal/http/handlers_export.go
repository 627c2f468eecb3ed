package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/SadLabib/Spendit/internal/core"
	"github.com/SadLabib/Spendit/internal/export"
	"github.com/SadLabib/Spendit/internal/log"
	"github.com/SadLabib/Spendit/internal/storage"
)

// PersonalDataView holds data for the download page.
type PersonalDataView struct {
	User *storage.User
}

// handleAccount renders the account page with the export format chooser.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "personal_data.html", PersonalDataView{User: currentUser(r)})
}

// handleExportGet mirrors the download-only nature of the endpoint:
// the data is never served on GET.
func (s *Server) handleExportGet(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}

// handleExport streams the user's personal data in the requested
// format as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission.", http.StatusBadRequest)
		return
	}

	format, err := export.ParseFormat(r.FormValue("format"))
	if err != nil {
		http.Error(w, "Invalid format selected.", http.StatusBadRequest)
		return
	}

	s.logger.InfoContext(r.Context(), "User asked for their personal data",
		log.FieldUserID, user.ID,
		log.FieldFormat, string(format))

	doc, err := s.exporter.Export(r.Context(), user.ID, format)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			http.Error(w,
				fmt.Sprintf("Unable to load user with ID '%d'.", user.ID),
				http.StatusNotFound)
			return
		}
		s.logger.ErrorContext(r.Context(), "Personal data export failed",
			log.FieldError, err,
			log.FieldUserID, user.ID,
			log.FieldFormat, string(format))
		http.Error(w, "Failed to generate the export.", http.StatusInternalServerError)
		return
	}

	s.logger.InfoContext(r.Context(), "Personal data export generated",
		log.FieldUserID, user.ID,
		log.FieldFormat, string(format),
		log.FieldFilename, doc.Filename,
		"bytes", len(doc.Data))

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", doc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}
