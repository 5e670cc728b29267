// Package api exposes the dataset, OCR and analysis operations over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"docintel/pkg/config"
	"docintel/pkg/models"
	"docintel/pkg/services/analysis"
	"docintel/pkg/services/dataset"
	"docintel/pkg/services/ocr"
	"docintel/pkg/services/ocr/engines"
	"docintel/pkg/store"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EngineFactory creates an OCR engine by name.
type EngineFactory func(ctx context.Context, name string) (ocr.Engine, error)

type Handler struct {
	cfg       *config.Config
	docs      *dataset.Organizer
	store     *store.Store
	newEngine EngineFactory
	logger    *zap.Logger
}

type Option func(*Handler)

// WithStore enables the report history endpoints.
func WithStore(s *store.Store) Option {
	return func(h *Handler) {
		h.store = s
	}
}

func WithEngineFactory(f EngineFactory) Option {
	return func(h *Handler) {
		h.newEngine = f
	}
}

func New(cfg *config.Config, docs *dataset.Organizer, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		cfg:    cfg,
		docs:   docs,
		logger: logger.Named("api"),
	}
	h.newEngine = func(ctx context.Context, name string) (ocr.Engine, error) {
		return engines.Build(ctx, name, cfg)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the gin engine serving every route.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(h.logger), gin.Recovery())

	r.POST("/documents", h.addDocument)
	r.GET("/documents", h.listDocuments)
	r.GET("/documents/:id", h.getDocument)
	r.DELETE("/documents/:id", h.removeDocument)
	r.GET("/documents/:id/preview", h.previewDocument)
	r.POST("/documents/:id/ocr", h.recognizeDocument)
	r.GET("/stats", h.stats)

	r.POST("/reports/:engine", h.generateReport)
	r.GET("/reports", h.listReports)
	r.GET("/reports/:id", h.getReport)
	return r
}

func (h *Handler) addDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	tmp, err := os.MkdirTemp("", "docintel-upload-")
	if err != nil {
		h.fail(c, err)
		return
	}
	defer os.RemoveAll(tmp)

	src := filepath.Join(tmp, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, src); err != nil {
		h.fail(c, err)
		return
	}

	extra := map[string]any{}
	for _, key := range []string{"source", "vendor", "notes"} {
		if v := c.PostForm(key); v != "" {
			extra[key] = v
		}
	}

	docID, err := h.docs.Add(src, extra)
	if err != nil {
		h.fail(c, err)
		return
	}
	doc, err := h.docs.Get(docID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) listDocuments(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	c.JSON(http.StatusOK, h.docs.List(limit))
}

func (h *Handler) getDocument(c *gin.Context) {
	doc, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) removeDocument(c *gin.Context) {
	if err := h.docs.Remove(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) previewDocument(c *gin.Context) {
	doc, ok := h.lookup(c)
	if !ok {
		return
	}
	img, err := ocr.Preview(h.docs.Path(doc))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Type", "image/png")
	if err := imaging.Encode(c.Writer, img, imaging.PNG); err != nil {
		h.logger.Error("failed to encode preview", zap.String("doc_id", doc.DocID), zap.Error(err))
	}
}

func (h *Handler) recognizeDocument(c *gin.Context) {
	doc, ok := h.lookup(c)
	if !ok {
		return
	}

	name := c.DefaultQuery("engine", h.cfg.OCR.Engine)
	names := []string{name}
	if name == config.EngineBoth {
		names = []string{models.EnginePaddle, models.EngineTesseract}
	}
	for _, n := range names {
		if !slices.Contains(models.KnownEngines, n) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown engine %q", n)})
			return
		}
	}

	results := make(map[string]models.EngineResult, len(names))
	for _, n := range names {
		engine, err := h.newEngine(c.Request.Context(), n)
		if err != nil {
			h.fail(c, err)
			return
		}

		var opts []ocr.Option
		if h.cfg.OCR.Preprocess || c.Query("preprocess") == "true" {
			opts = append(opts, ocr.WithPreprocessing(h.cfg.PreprocessedDir()))
		}
		proc, err := ocr.NewProcessor([]ocr.Engine{engine}, h.logger, opts...)
		if err != nil {
			h.fail(c, err)
			return
		}
		res, err := proc.ProcessImage(c.Request.Context(), h.docs.Path(doc), h.cfg.OCRDir(n))
		if err != nil {
			h.fail(c, err)
			return
		}
		results[n] = res.Engines[n]
	}
	c.JSON(http.StatusOK, gin.H{"doc_id": doc.DocID, "results": results})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.docs.Stats()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) generateReport(c *gin.Context) {
	engine := c.Param("engine")
	if !slices.Contains(models.KnownEngines, engine) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown engine %q", engine)})
		return
	}

	analyzer := analysis.New(h.cfg.LabelsDir(), h.cfg.OCRTextDir(), h.logger)
	report, err := analyzer.GenerateReport(engine, nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	path := filepath.Join(h.cfg.ReportsDir, "error_report_"+engine+".json")
	if err := analyzer.SaveReport(report, path); err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{"report": report, "path": path}
	if h.store != nil {
		record, err := h.store.Save(c.Request.Context(), report)
		if err != nil {
			h.fail(c, err)
			return
		}
		resp["id"] = record.ID
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) listReports(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	records, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) getReport(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	record, err := h.store.Get(c.Request.Context(), uint(id))
	if err != nil {
		h.fail(c, err)
		return
	}
	report, err := record.Report()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": record.ID, "created_at": record.CreatedAt, "report": report})
}

func (h *Handler) lookup(c *gin.Context) (models.Document, bool) {
	doc, err := h.docs.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return models.Document{}, false
	}
	return doc, true
}

func (h *Handler) requireStore(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report store is not configured"})
		return false
	}
	return true
}

// fail maps err onto a status code and writes it as JSON.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dataset.ErrDocumentNotFound), errors.Is(err, store.ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ocr.ErrEngineUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
