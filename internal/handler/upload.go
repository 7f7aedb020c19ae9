package handler

import (
	"errors"
	"net/http"

	"pcshop/internal/apperror"
	"pcshop/internal/httpx"
	"pcshop/internal/upload"
)

var ErrMissingFile = apperror.Invalid(`multipart field "file" is required`)

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	// one extra MiB for multipart framing; the service enforces the real limit
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxFileSize+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Error(w, r, upload.ErrFileTooLarge)
			return
		}
		httpx.Error(w, r, ErrMissingFile)
		return
	}
	defer file.Close()

	res, err := h.Uploads.Upload(r.Context(), header.Filename, file)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, res)
}
