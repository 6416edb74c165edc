package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/star/exoview/internal/dataset"
	"github.com/star/exoview/internal/errorpage"
	"github.com/star/exoview/internal/httputil"
	"github.com/star/exoview/internal/i18n"
	"github.com/star/exoview/internal/session"
	"github.com/star/exoview/internal/telescope"
	"github.com/star/exoview/internal/view"
)

// maxFormBytes caps the selection form and JSON bodies.
const maxFormBytes = 1 << 10

type tableHandler struct {
	sessions  *session.Store
	lang      *i18n.Service
	errorPage *errorpage.Handler
	logger    *slog.Logger
}

// tableResponse is the JSON form of a table view.
type tableResponse struct {
	dataset.State
	Error string `json:"error,omitempty"`
}

type submitRequest struct {
	Telescope string `json:"telescope"`
}

func (h *tableHandler) page(w http.ResponseWriter, r *http.Request) {
	loader := h.sessions.Loader(w, r)

	if err := loader.AckError(); err != nil {
		h.logger.Error("table view failed to load",
			"component", "api",
			"error", err,
		)
		h.errorPage.Render(w, r, http.StatusInternalServerError)
		return
	}

	tag := h.lang.SetInitialLanguage(w, r)
	page := view.Page{
		Lang:        tag.String(),
		Loc:         h.lang.Printer(tag),
		CurrentPath: r.URL.Path,
		Languages:   h.lang.Options(tag),
	}
	w.Header().Set("Cache-Control", "no-store")
	templ.Handler(view.TablePage(page, loader.Snapshot())).ServeHTTP(w, r)
}

func (h *tableHandler) submitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	loader := h.sessions.Loader(w, r)
	if err := loader.Select(r.PostForm.Get("telescope")); err != nil {
		tag := h.lang.SetInitialLanguage(w, r)
		http.Error(w, h.lang.Printer(tag).Sprintf("table.invalid_telescope"), http.StatusBadRequest)
		return
	}
	loader.Submit(r.Context())

	http.Redirect(w, r, "/table", http.StatusSeeOther)
}

func (h *tableHandler) state(w http.ResponseWriter, r *http.Request) {
	loader := h.sessions.View(r)
	httputil.WriteJSON(w, http.StatusOK, toResponse(loader.Snapshot()))
}

func (h *tableHandler) submitJSON(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	loader := h.sessions.Loader(w, r)
	if err := loader.Select(req.Telescope); err != nil {
		if errors.Is(err, telescope.ErrUnknownTelescope) {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	loader.Submit(r.Context())

	httputil.WriteJSON(w, http.StatusAccepted, toResponse(loader.Snapshot()))
}

func (h *tableHandler) downloadCSV(w http.ResponseWriter, r *http.Request) {
	loader := h.sessions.View(r)
	if err := loader.DownloadCSV(w); err != nil {
		if errors.Is(err, dataset.ErrNotImplemented) {
			httputil.WriteError(w, http.StatusNotImplemented, err.Error())
			return
		}
		h.logger.Error("csv download failed", "component", "api", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "download failed")
	}
}

func toResponse(st dataset.State) tableResponse {
	resp := tableResponse{State: st}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	return resp
}
