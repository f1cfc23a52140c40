package server

import (
	"errors"
	"fmt"
	"net/http"

	qadomain "github.com/agrilink/agrilink/internal/qa/domain"
	"github.com/agrilink/agrilink/pkg/validation"
	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for form fields next to a maximum-size file.
const multipartOverhead = 1 << 20

func (s *Server) GetKPI(c *gin.Context) {
	var query qadomain.KPIQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	report, err := s.qaSvc.KPI(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) GetKPIReport(c *gin.Context) {
	var query qadomain.KPIQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := s.qaSvc.KPIReportPDF(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	name := query.LotPublicID
	if name == "" {
		name = "farm-" + query.FarmID
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="qa-kpi-%s.pdf"`, name))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (s *Server) CreateInspection(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req, ok := bindJSON[qadomain.CreateInspectionRequest](c)
	if !ok {
		return
	}

	inspection, err := s.qaSvc.CreateInspection(c.Request.Context(), identity, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inspection)
}

func (s *Server) ListCertificates(c *gin.Context) {
	var filter qadomain.CertificateFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	certs, err := s.qaSvc.ListCertificates(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, certs)
}

// UploadCertificate takes a multipart form with the document under "file".
func (s *Server) UploadCertificate(c *gin.Context) {
	if limit := s.cfg.Storage.MaxUploadSize; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	var req qadomain.UploadCertificateRequest
	if err := c.ShouldBind(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			AbortWithError(c, validation.NewError("file", "max", "file exceeds the upload size limit"))
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}

	var upload qadomain.FileUpload
	header, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		AbortWithError(c, invalidRequestError())
		return
	default:
		f, err := header.Open()
		if err != nil {
			AbortWithError(c, err)
			return
		}
		defer f.Close()
		upload = qadomain.FileUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        f,
		}
	}

	cert, err := s.qaSvc.UploadCertificate(c.Request.Context(), req, upload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cert)
}
