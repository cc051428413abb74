package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/relayworks/cortex/internal/api"
	"github.com/relayworks/cortex/internal/domain"
	"github.com/relayworks/cortex/internal/service"
)

// maxUploadMemory bounds how much of a multipart form is buffered in memory.
const maxUploadMemory = 10 << 20

type IngestService interface {
	IngestBatch(ctx context.Context, inputs []service.IngestInput) (*service.BatchResult, error)
}

type DocumentHandler struct {
	svc IngestService
}

func NewDocumentHandler(svc IngestService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type IngestItemResponse struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Error    string `json:"error,omitempty"`
}

type IngestResponse struct {
	Created []IngestItemResponse `json:"created"`
	Skipped []IngestItemResponse `json:"skipped"`
}

// Ingest accepts one or more files as a multipart form under the "files"
// field. Per-file access scope comes from the "access_scope" form values;
// files that cannot be extracted are reported under skipped, not failed.
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		api.Error(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	scope := r.MultipartForm.Value["access_scope"]

	inputs := make([]service.IngestInput, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}

		inputs = append(inputs, service.IngestInput{
			Data:        data,
			MediaType:   header.Header.Get("Content-Type"),
			FileName:    header.Filename,
			SourceType:  domain.SourceTypeUpload,
			AccessScope: scope,
		})
	}

	result, err := h.svc.IngestBatch(r.Context(), inputs)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := IngestResponse{
		Created: make([]IngestItemResponse, 0, len(result.Created)),
		Skipped: make([]IngestItemResponse, 0, len(result.Skipped)),
	}
	for _, c := range result.Created {
		resp.Created = append(resp.Created, IngestItemResponse{ID: c.Article.ID, Title: c.Article.Title, FileName: c.FileName})
	}
	for _, s := range result.Skipped {
		resp.Skipped = append(resp.Skipped, IngestItemResponse{FileName: s.FileName, Error: s.Err.Error()})
	}

	status := http.StatusCreated
	if len(resp.Created) == 0 {
		status = http.StatusUnprocessableEntity
	}

	api.Success(w, status, resp)
}
