package response

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/middleware/requestid"
)

// Meta carries response metadata such as cache state and processing time.
type Meta map[string]interface{}

// Envelope is the body shape of every JSON response.
type Envelope struct {
	Data       interface{}        `json:"data,omitempty"`
	Error      *appErrors.Error   `json:"error,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Meta       Meta               `json:"meta,omitempty"`
	RequestID  string             `json:"requestId,omitempty"`
}

// OK writes data with a 200 status.
func OK(c *gin.Context, data interface{}, meta ...Meta) {
	env := Envelope{Data: data}
	if len(meta) > 0 && len(meta[0]) > 0 {
		env.Meta = meta[0]
	}
	write(c, http.StatusOK, env)
}

// Page writes one page of a listing.
func Page(c *gin.Context, data interface{}, pagination *models.Pagination) {
	write(c, http.StatusOK, Envelope{Data: data, Pagination: pagination})
}

// JSON writes data with an explicit status.
func JSON(c *gin.Context, status int, data interface{}) {
	write(c, status, Envelope{Data: data})
}

// Created responds with HTTP 201.
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Envelope{Data: data})
}

// Error maps err onto its API error and echoes the request id so clients can
// quote it when reporting failures.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	write(c, appErr.Status, Envelope{
		Error:     appErr,
		RequestID: requestid.FromContext(c.Request.Context()),
	})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Attachment sends body as a file download. The filename is always quoted;
// names outside ASCII also get an RFC 5987 filename* parameter.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", disposition(filename))
	c.Data(http.StatusOK, contentType, body)
}

func disposition(filename string) string {
	ascii := true
	plain := strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\\' || unicode.IsControl(r):
			return '_'
		case r > unicode.MaxASCII:
			ascii = false
			return '_'
		}
		return r
	}, filename)
	out := `attachment; filename="` + plain + `"`
	if !ascii {
		out += "; filename*=UTF-8''" + url.PathEscape(filename)
	}
	return out
}

func write(c *gin.Context, status int, env Envelope) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, env)
}
