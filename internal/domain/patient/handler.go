package patient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc         *Service
	uploadDir   string
	maxFileSize int64
}

func NewHandler(svc *Service, uploadDir string, maxFileSize int64) *Handler {
	return &Handler{svc: svc, uploadDir: uploadDir, maxFileSize: maxFileSize}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/maternal", h.ListMaternal)
	api.GET("/maternal/:id", h.GetMaternal)
	api.POST("/maternal/upload", h.UploadMaternal)
	api.DELETE("/maternal/:id", h.DeleteMaternal)

	api.GET("/pediatric", h.ListPediatric)
	api.GET("/pediatric/:id", h.GetPediatric)
	api.POST("/pediatric/upload", h.UploadPediatric)
	api.DELETE("/pediatric/:id", h.DeletePediatric)

	// Generic upload route: the dataset is inferred from the filename.
	api.POST("/upload", h.Upload)
}

func (h *Handler) ListMaternal(c echo.Context) error {
	patients, err := h.svc.ListMaternal(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) GetMaternal(c echo.Context) error {
	p, err := h.svc.GetMaternal(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteMaternal(c echo.Context) error {
	if err := h.svc.DeleteMaternal(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ListPediatric(c echo.Context) error {
	patients, err := h.svc.ListPediatric(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) GetPediatric(c echo.Context) error {
	p, err := h.svc.GetPediatric(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePediatric(c echo.Context) error {
	if err := h.svc.DeletePediatric(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) UploadMaternal(c echo.Context) error {
	return h.upload(c, DatasetMaternal)
}

func (h *Handler) UploadPediatric(c echo.Context) error {
	return h.upload(c, DatasetPediatric)
}

// Upload accepts either dataset; a filename containing "maternal" selects
// the maternal pipeline, everything else is treated as pediatric.
func (h *Handler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	dataset := DatasetPediatric
	if strings.Contains(strings.ToLower(fileHeader.Filename), "maternal") {
		dataset = DatasetMaternal
	}
	return h.upload(c, dataset)
}

func (h *Handler) upload(c echo.Context, dataset Dataset) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxFileSize))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	defer src.Close()

	// Spool to the upload directory so partial reads never hold the request
	// body open during ingestion. The spool file is removed either way.
	tmp, err := os.CreateTemp(h.uploadDir, "upload-*.csv")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error processing data: "+err.Error())
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error processing data: "+err.Error())
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error processing data: "+err.Error())
	}

	summary, err := h.svc.IngestCSV(c.Request().Context(), dataset, tmp)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error processing data: "+err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}
