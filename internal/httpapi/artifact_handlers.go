package httpapi

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"seedvault.org/internal/artifact"
	"seedvault.org/internal/auth"
	"seedvault.org/internal/authenticity"
	"seedvault.org/internal/upload"
)

type listArtifactsResponse struct {
	Items []artifact.Metadata `json:"items"`
	Count int                 `json:"count"`
	AsOf  time.Time           `json:"as_of"`
}

func (a *API) handleArtifactsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.uploadArtifact(w, r)
	case http.MethodGet:
		a.listArtifacts(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleArtifactResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/artifacts/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if scope, name, ok := strings.Cut(path, "/"); ok {
		if name == "" || strings.Contains(name, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.fetchArtifactFile(w, r, scope, name)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getArtifact(w, r, path)
	case http.MethodDelete:
		a.deleteArtifact(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) uploadArtifact(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}

	meta, err := a.uploads.Upload(r.Context(), upload.Request{
		Username:     user.Username,
		Role:         user.Role,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		ByteSize:     header.Size,
		Content:      file,
		Title:        title,
		Description:  strings.TrimSpace(r.FormValue("description")),
		OriginTribe:  strings.TrimSpace(r.FormValue("origin_tribe")),
		AccessScope:  auth.Scope(strings.TrimSpace(r.FormValue("access_scope"))),
	})
	if err != nil {
		a.handleUploadError(w, r, user, header.Filename, err)
		return
	}

	a.audit(r.Context(), "artifact.upload.accepted", map[string]any{
		"artifact_id":  meta.ID,
		"stored_name":  meta.StoredName,
		"access_scope": string(meta.AccessScope),
		"mime_type":    meta.MimeType,
		"byte_size":    meta.ByteSize,
	})

	w.Header().Set("Location", "/v1/artifacts/"+meta.ID)
	writeJSON(w, http.StatusCreated, meta)
}

func (a *API) handleUploadError(w http.ResponseWriter, r *http.Request, user auth.User, filename string, err error) {
	var verr *upload.ValidationError
	var aerr *upload.AuthenticityError
	var uerr *authenticity.UnavailableError

	switch {
	case errors.As(err, &uerr):
		a.audit(r.Context(), "artifact.upload.errored", map[string]any{
			"username": user.Username,
			"filename": filename,
			"reason":   "classifier unavailable",
		})
		writeError(w, r, http.StatusServiceUnavailable, "authenticity check unavailable")
	case errors.Is(err, upload.ErrPermissionDenied):
		a.audit(r.Context(), "artifact.upload.denied", map[string]any{
			"username": user.Username,
			"role":     string(user.Role),
			"filename": filename,
		})
		writeError(w, r, http.StatusForbidden, "role is not allowed to upload")
	case errors.Is(err, upload.ErrInvalidScope):
		writeError(w, r, http.StatusBadRequest, "invalid access scope")
	case errors.As(err, &verr):
		a.audit(r.Context(), "artifact.upload.rejected", map[string]any{
			"username":   user.Username,
			"filename":   filename,
			"violations": verr.Violations,
		})
		payload := map[string]any{
			"error":      "upload validation failed",
			"violations": verr.Violations,
		}
		if rid := RequestIDFromContext(r.Context()); rid != "" {
			payload["request_id"] = rid
		}
		writeJSON(w, http.StatusBadRequest, payload)
	case errors.As(err, &aerr):
		a.audit(r.Context(), "artifact.upload.flagged", map[string]any{
			"username":   user.Username,
			"filename":   filename,
			"reason":     aerr.Reason,
			"confidence": aerr.Assessment.Confidence,
		})
		writeError(w, r, http.StatusUnprocessableEntity, aerr.Reason)
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) listArtifacts(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	records, err := a.store.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	visible := artifact.FilterVisible(user.Role, records)
	writeJSON(w, http.StatusOK, listArtifactsResponse{
		Items: visible,
		Count: len(visible),
		AsOf:  time.Now().UTC(),
	})
}

func (a *API) getArtifact(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	rec, err := a.store.Get(r.Context(), id)
	if errors.Is(err, artifact.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if !artifact.ScopeVisibleTo(user.Role, rec.AccessScope) {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) fetchArtifactFile(w http.ResponseWriter, r *http.Request, scope, name string) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	sc := auth.Scope(scope)
	if !auth.ValidRecordScope(sc) {
		writeError(w, r, http.StatusNotFound, "artifact not found")
		return
	}
	if !artifact.ScopeVisibleTo(user.Role, sc) {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}

	// The stored name must be a bare file name; anything else smells of
	// traversal and is treated as absent.
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		writeError(w, r, http.StatusNotFound, "artifact not found")
		return
	}

	rec, err := a.lookupByStoredName(r, sc, name)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if rec == nil {
		writeError(w, r, http.StatusNotFound, "artifact not found")
		return
	}

	f, err := os.Open(filepath.Join(a.root, string(sc), name))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "artifact not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", rec.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": rec.OriginalName}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (a *API) lookupByStoredName(r *http.Request, scope auth.Scope, name string) (*artifact.Metadata, error) {
	records, err := a.store.List(r.Context())
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].AccessScope == scope && records[i].StoredName == name {
			return &records[i], nil
		}
	}
	return nil, nil
}

func (a *API) deleteArtifact(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	rec, err := a.store.Get(r.Context(), id)
	if errors.Is(err, artifact.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	if !a.eval.CanPerformOn(user.Role, auth.ActionDelete, rec.AccessScope) {
		writeError(w, r, http.StatusForbidden, "role is not allowed to delete this artifact")
		return
	}

	if err := a.store.Delete(r.Context(), rec.ID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	// Metadata is authoritative; a failed file removal leaves an orphan
	// that the next cleanup sweep picks up.
	_ = a.uploads.RemoveFile(rec.StoragePath)

	a.audit(r.Context(), "artifact.delete", map[string]any{
		"artifact_id":  rec.ID,
		"stored_name":  rec.StoredName,
		"access_scope": string(rec.AccessScope),
		"deleted_by":   user.Username,
	})

	w.WriteHeader(http.StatusNoContent)
}
