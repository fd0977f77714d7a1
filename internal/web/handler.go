// Package web serves the compound analysis form to browsers.
package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/f3rmion/dhfr/internal/analysis"
	"github.com/f3rmion/dhfr/internal/structure"
)

const healthTimeout = 5 * time.Second

// Handler wires the HTTP transport to the analysis form.
type Handler struct {
	predictor analysis.Predictor
	prober    analysis.Prober
	logger    *zap.Logger
}

// NewHandler constructs the form handler. prober may be nil, in which case
// the health check only reports on this process.
func NewHandler(predictor analysis.Predictor, prober analysis.Prober, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		predictor: predictor,
		prober:    prober,
		logger:    logger.With(zap.String("component", "web.handler")),
	}
}

type analyzeRequest struct {
	SMILES string `json:"smiles" form:"smiles"`
}

type page struct {
	State   analysis.State
	Active  bool
	Drawing template.HTML
}

func newPage(st analysis.State) page {
	return page{
		State:   st,
		Active:  st.Potency.Active(),
		Drawing: structure.Sanitize(st.Markup),
	}
}

// Index renders the empty form.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", newPage(analysis.State{}))
}

// Analyze handles a form post and renders the page with the outcome.
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}

	st := h.submit(c.Request.Context(), req.SMILES)
	c.HTML(http.StatusOK, "index.html", newPage(st))
}

// AnalyzeJSON is the machine-readable variant of Analyze.
func (h *Handler) AnalyzeJSON(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}

	st := h.submit(c.Request.Context(), req.SMILES)
	status := http.StatusOK
	if !st.HasResult {
		status = http.StatusBadGateway
	}
	c.JSON(status, st)
}

// Health reports whether the prediction service answers its liveness probe.
func (h *Handler) Health(c *gin.Context) {
	if h.prober == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	body, err := h.prober.Ping(ctx)
	if err != nil {
		h.logger.Warn("liveness probe failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"error":  analysis.Message(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": body})
}

// submit runs one submission on a form owned by this request.
func (h *Handler) submit(ctx context.Context, smiles string) analysis.State {
	form := analysis.NewForm(analysis.WithLogger(h.logger))
	form.SetInput(smiles)

	h.logger.Info("sending request", zap.String("canonical_smiles", smiles))
	st := form.Submit(ctx, h.predictor)
	if st.HasResult {
		h.logger.Info("prediction received", zap.String("smiles", smiles), zap.Bool("active", st.Potency.Active()))
	}
	return st
}
