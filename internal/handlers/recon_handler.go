package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/uzmanim/payment-recon/internal/awsx"
	"github.com/uzmanim/payment-recon/internal/config"
	"github.com/uzmanim/payment-recon/internal/iyzico"
	"github.com/uzmanim/payment-recon/internal/policy"
	"github.com/uzmanim/payment-recon/internal/recon"
	"github.com/uzmanim/payment-recon/internal/reports"
)

// HandlerConfig groups dependencies for the reconciliation API.
type HandlerConfig struct {
	Cfg              *config.Config
	DynamoDBClient   awsx.DynamoDBAPI
	SQSClient        awsx.SQSAPI
	CloudWatchClient awsx.CloudWatchAPI
}

// triggerRequest is the optional body of POST /reconciliation/runs.
// A run takes no required parameters.
type triggerRequest struct {
	DryRun bool `json:"dryRun"`
}

// runResponse is the report plus the ID it was stored under.
type runResponse struct {
	RunID string `json:"runId,omitempty"`
	recon.Report
}

// RegisterReconRoutes registers the reconciliation API routes.
func RegisterReconRoutes(r *gin.Engine, cfg HandlerConfig) {
	signer := iyzico.NewSigner(cfg.Cfg.APIKey, cfg.Cfg.SecretKey)
	client := iyzico.NewClient(cfg.Cfg.BaseURL, signer, cfg.Cfg.HTTPTimeout)
	evaluator := policy.NewEvaluator(cfg.Cfg.RetryCooldown)

	var store *reports.Store
	if cfg.Cfg.ReportsTable != "" && cfg.DynamoDBClient != nil {
		store = reports.NewStore(cfg.DynamoDBClient, cfg.Cfg.ReportsTable, cfg.Cfg.ReportTTL)
	}
	var publisher *awsx.RunPublisher
	if cfg.Cfg.QueueURL != "" && cfg.SQSClient != nil {
		publisher = awsx.NewRunPublisher(cfg.SQSClient, cfg.Cfg.QueueURL)
	}
	var metrics *awsx.MetricsEmitter
	if cfg.CloudWatchClient != nil {
		metrics = awsx.NewMetricsEmitter(cfg.CloudWatchClient)
	}

	r.POST("/reconciliation/runs", func(c *gin.Context) {
		ctx := c.Request.Context()

		// body is optional; an empty body means a plain run
		var req triggerRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
			return
		}

		runner := recon.NewRunner(recon.RunnerConfig{
			Lister:    client,
			Retrier:   client,
			Evaluator: evaluator,
			PageSize:  cfg.Cfg.PageSize,
			MaxPages:  cfg.Cfg.MaxPages,
			DryRun:    req.DryRun,
		})

		startedAt := time.Now().UTC()
		report, err := runner.Run(ctx)
		if err != nil {
			var pqe *iyzico.ProviderQueryError
			if errors.As(err, &pqe) {
				c.JSON(http.StatusBadGateway, gin.H{"error": "provider_query_failed", "detail": pqe.Message})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "run_failed", "detail": err.Error()})
			return
		}

		resp := runResponse{Report: *report}

		if store != nil && !req.DryRun {
			runID := uuid.NewString()
			rec := reports.RunRecord{
				RunID:      runID,
				Status:     report.Status,
				Report:     *report,
				StartedAt:  startedAt,
				FinishedAt: time.Now().UTC(),
			}
			// audit persistence is best-effort: a storage hiccup must not
			// discard a completed run's report
			if err := store.Save(ctx, rec); err != nil {
				log.Printf("[handlers] save run record failed: %v", err)
			} else {
				resp.RunID = runID
			}
		}

		if publisher != nil && !req.DryRun {
			if err := publisher.NotifyRunCompleted(ctx, resp.RunID, report); err != nil {
				log.Printf("[handlers] run notification failed: %v", err)
			}
		}
		if metrics != nil && !req.DryRun {
			if err := metrics.EmitRunSummary(ctx, report.Summary); err != nil {
				log.Printf("[handlers] emit metrics failed: %v", err)
			}
		}

		c.JSON(http.StatusOK, resp)
	})

	r.GET("/reconciliation/runs/:id", func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "report_store_not_configured"})
			return
		}
		rec, err := store.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report_lookup_failed", "detail": err.Error()})
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run_not_found"})
			return
		}
		c.JSON(http.StatusOK, runResponse{RunID: rec.RunID, Report: rec.Report})
	})
}
