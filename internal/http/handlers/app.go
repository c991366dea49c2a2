package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"trafficcast/internal/domain"
	"trafficcast/internal/pipeline"
)

const defaultUploadName = "upload.csv"

// App carries the collaborators shared by every handler.
type App struct {
	Analyzer       *pipeline.Analyzer
	Runs           domain.RunRepository
	Logger         zerolog.Logger
	MaxUploadBytes int64
}

func NewApp(analyzer *pipeline.Analyzer, runs domain.RunRepository, logger zerolog.Logger, maxUploadBytes int64) *App {
	return &App{
		Analyzer:       analyzer,
		Runs:           runs,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// logger prefers the request-scoped logger installed by the middleware.
func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

var (
	errNoFile  = errors.New("no file uploaded")
	errBadForm = errors.New("malformed multipart form")
)

// upload is the CSV payload of a request, either the multipart "file" field
// or the raw request body.
type upload struct {
	name string
	body io.Reader
	file multipart.File
}

func (u *upload) Close() {
	if u.file != nil {
		_ = u.file.Close()
	}
}

func (a *App) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, errNoFile
	}
	if a.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, errors.Join(errBadForm, err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return nil, errNoFile
			}
			return nil, errors.Join(errBadForm, err)
		}
		name := header.Filename
		if name == "" {
			name = defaultUploadName
		}
		return &upload{name: name, body: file, file: file}, nil
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = defaultUploadName
	}
	return &upload{name: name, body: r.Body}, nil
}

// uploadError writes the response for a failed upload or analysis.
func (a *App) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	var inErr *domain.InputError
	switch {
	case errors.As(err, &maxErr):
		a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", fmt.Sprintf("upload exceeds %d bytes", maxErr.Limit))
	case errors.Is(err, errNoFile):
		a.error(w, http.StatusBadRequest, "bad_request", "a CSV file is required in the \"file\" field or the request body")
	case errors.Is(err, errBadForm):
		a.error(w, http.StatusBadRequest, "bad_request", "malformed multipart form")
	case errors.As(err, &inErr):
		a.error(w, http.StatusUnprocessableEntity, string(inErr.Reason), inErr.Error())
	default:
		a.logger(r).Error().Err(err).Msg("analysis failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to analyze upload")
	}
}
