package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/a3tai/farm-analyzer/internal/farm"
	"github.com/a3tai/farm-analyzer/internal/soil"
)

const (
	msgInvalidSoilReport = "Invalid soil report file type. Please upload a PDF, JPEG, PNG, or JPG image."
	msgInvalidCropImage  = "Invalid crop image file type. Please upload an image."
	msgBadBody           = "There was an error parsing the body"
)

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.config.Version,
	})
}

func (s *Server) analyzeFarmData(c echo.Context) error {
	values, files, err := readMultipart(c)
	if err != nil {
		return err
	}

	form, errs := farm.ParseForm(values)
	soilReport := firstFile(files, farm.FieldSoilReportFile)
	if soilReport == nil {
		errs = append(errs, farm.Missing(farm.FieldSoilReportFile))
	}
	if len(errs) > 0 {
		return errs
	}

	if !soil.IsSupportedReportType(contentType(soilReport)) {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidSoilReport)
	}

	cropImage := firstFile(files, farm.FieldCropImage)
	if cropImage != nil && !strings.HasPrefix(contentType(cropImage), "image/") {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidCropImage)
	}

	ctx := c.Request().Context()

	reportContent, err := readFile(soilReport)
	if err != nil {
		return err
	}
	soilOutcome := s.extractor.Extract(ctx, reportContent, contentType(soilReport))

	resp := farm.Response{
		FormData:       form,
		SoilReportData: soilOutcome.Parameters,
	}

	if cropImage != nil {
		imageContent, err := readFile(cropImage)
		if err != nil {
			return err
		}
		resp.ImageAnalysisResults = s.analyzer.Analyze(ctx, imageContent).Result()
	}

	return c.JSON(http.StatusOK, resp)
}

// readMultipart parses the body. A request that is not multipart at all is
// treated as an empty form so it fails field validation instead.
func readMultipart(c echo.Context) (url.Values, map[string][]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return url.Values{}, nil, nil
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, nil, he
		}
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, msgBadBody).SetInternal(err)
	}
	return url.Values(form.Value), form.File, nil
}

// firstFile returns the named upload. A part with neither a filename nor
// content counts as not sent.
func firstFile(files map[string][]*multipart.FileHeader, field string) *multipart.FileHeader {
	for _, fh := range files[field] {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		return fh
	}
	return nil
}

func contentType(fh *multipart.FileHeader) string {
	return fh.Header.Get(echo.HeaderContentType)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	return content, nil
}
