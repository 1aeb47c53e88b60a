package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/sheetlens/internal/models"
	"github.com/yoockh/sheetlens/internal/services"
	"github.com/yoockh/sheetlens/internal/utils"
)

type UploadHandler struct {
	svc services.UploadService
}

func NewUploadHandler(svc services.UploadService) *UploadHandler {
	return &UploadHandler{svc: svc}
}

type SaveUploadRequest struct {
	UserID           string `json:"userId"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"originalFilename"`
	FileURL          string `json:"fileUrl"`
	FileSize         *int64 `json:"fileSize,omitempty"`
	Status           string `json:"status,omitempty"`
}

type SaveUploadResponse struct {
	UploadID string `json:"uploadId"`
	Status   int    `json:"status"`
	Message  string `json:"message"`
}

type ListUploadsRequest struct {
	UserID string `json:"userId"`
}

type ListUploadsResponse struct {
	Uploads []models.Upload `json:"uploads"`
	Count   int             `json:"count"`
	Status  int             `json:"status"`
}

// SaveUpload records a file that already landed in object storage.
func (h *UploadHandler) SaveUpload(c *gin.Context) {
	caller, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req SaveUploadRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, "UploadHandler.SaveUpload", err)
		return
	}

	id, err := h.svc.Create(c.Request.Context(), caller, services.CreateUploadInput{
		UserID:           req.UserID,
		Filename:         req.Filename,
		OriginalFilename: req.OriginalFilename,
		FileURL:          req.FileURL,
		FileSize:         req.FileSize,
		Status:           req.Status,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SaveUploadResponse{
		UploadID: id,
		Status:   http.StatusCreated,
		Message:  "Upload record saved successfully",
	})
}

func (h *UploadHandler) ListUploads(c *gin.Context) {
	caller, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req ListUploadsRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, "UploadHandler.ListUploads", err)
		return
	}

	rows, err := h.svc.ListForUser(c.Request.Context(), caller, req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListUploadsResponse{
		Uploads: rows,
		Count:   len(rows),
		Status:  http.StatusOK,
	})
}

// UploadFile accepts a multipart "file", pushes it to blob storage and
// records it for the caller.
func (h *UploadHandler) UploadFile(c *gin.Context) {
	caller, ok := requireIdentity(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "UploadHandler.UploadFile", "missing multipart field 'file'", err))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "UploadHandler.UploadFile", "failed to open upload", err))
		return
	}
	defer file.Close()

	u, err := h.svc.Ingest(c.Request.Context(), caller, services.IngestInput{
		OriginalFilename: fh.Filename,
		Size:             fh.Size,
		Body:             file,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"uploadId": u.ID,
		"fileUrl":  u.FileURL,
		"upload":   u,
		"status":   http.StatusCreated,
		"message":  "Upload record saved successfully",
	})
}

func (h *UploadHandler) GetUpload(c *gin.Context) {
	caller, ok := requireIdentity(c)
	if !ok {
		return
	}

	u, err := h.svc.Get(c.Request.Context(), caller, c.Param("upload_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"upload": u, "status": http.StatusOK})
}
