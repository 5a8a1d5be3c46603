package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/middleware"
	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

// DefaultMaxUploadBytes bounds multipart files when no limit is configured.
const DefaultMaxUploadBytes int64 = 10 << 20

func actorFromContext(c *gin.Context) *models.Actor {
	return middleware.ClaimsFromContext(c).Actor()
}

// readUpload loads an optional multipart file. A missing field yields nil.
func readUpload(c *gin.Context, field string, maxBytes int64) (*service.FileUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, appErrors.Validation("invalid upload", map[string]string{field: err.Error()})
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if header.Size > maxBytes {
		return nil, appErrors.Validation("invalid upload", map[string]string{field: fmt.Sprintf("must be at most %d bytes", maxBytes)})
	}
	src, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload")
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	return &service.FileUpload{Filename: header.Filename, Data: data}, nil
}

// pageQuery reads page and page_size, leaving zero for the service defaults.
func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return page, size
}

func bindError(err error, what string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+what+" payload")
}
