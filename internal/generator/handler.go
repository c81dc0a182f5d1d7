package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/nzcvm/nzcvm-webapp/internal/auth"
	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
	"github.com/nzcvm/nzcvm-webapp/internal/logging"
	"github.com/nzcvm/nzcvm-webapp/internal/observability"
	"github.com/nzcvm/nzcvm-webapp/internal/runlog"
	"github.com/nzcvm/nzcvm-webapp/internal/typeid"
	"github.com/nzcvm/nzcvm-webapp/internal/vmconfig"
)

const (
	ConfigFileName  = "nzcvm.cfg"
	ArchiveFileName = "nzcvm_output.zip"

	msgProcessFailed = "NZCVM process failed. Check server logs for details."
	msgNoOutput      = "NZCVM process completed but produced no output files."
)

// Options configures a Handler. Zero values fall back to defaults.
type Options struct {
	Runtime           geodesy.RuntimeModel
	MaxRuntimeSeconds float64
	Timeout           time.Duration
	MaxRequestBytes   int64
	Store             runlog.Store
	Metrics           *observability.Collector
}

type Handler struct {
	runner Runner
	opts   Options
}

func NewHandler(runner Runner, opts Options) *Handler {
	if opts.Runtime == (geodesy.RuntimeModel{}) {
		opts.Runtime = geodesy.DefaultRuntimeModel
	}
	if opts.MaxRuntimeSeconds <= 0 {
		opts.MaxRuntimeSeconds = 600
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = 64 << 10
	}
	return &Handler{runner: runner, opts: opts}
}

func (h *Handler) InitRoutes(r *mux.Router) {
	r.HandleFunc("/run-nzcvm", h.RunNZCVM).Methods("POST", "OPTIONS")
}

// RefusalMessage explains a refused request and points at the local
// alternative.
func RefusalMessage(estimateSeconds, maxSeconds float64) string {
	return fmt.Sprintf("Estimated generation time of %.0f seconds exceeds the %.0f second limit for this server. "+
		"Download the configuration file and run the velocity model generator locally instead.",
		estimateSeconds, maxSeconds)
}

// RunNZCVM generates a velocity model from the posted configuration and
// streams the zipped output back.
func (h *Handler) RunNZCVM(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	run := runlog.Run{
		ID:        typeid.NewRunID(),
		Subject:   auth.SubjectFromContext(r.Context()),
		CreatedAt: start.UTC(),
	}
	log, ctx := logging.FromWithFields(r.Context(), zap.String("runId", run.ID))
	defer func() {
		run.DurationSeconds = time.Since(start).Seconds()
		h.record(ctx, run)
	}()

	fail := func(status int, s runlog.Status, msg string, err error) {
		run.Status = s
		run.Error = msg
		if err != nil {
			run.Error = err.Error()
		}
		writeJSON(w, status, map[string]string{"error": msg})
	}

	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		fail(http.StatusBadRequest, runlog.StatusInvalid, "Request must be JSON", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxRequestBytes)
	rec, err := vmconfig.DecodeJSON(r.Body)
	if err != nil {
		var missing *vmconfig.MissingFieldsError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &missing):
			fail(http.StatusBadRequest, runlog.StatusInvalid, missing.Error(), nil)
		case errors.As(err, &tooLarge):
			fail(http.StatusRequestEntityTooLarge, runlog.StatusInvalid, "request body too large", nil)
		default:
			fail(http.StatusBadRequest, runlog.StatusInvalid, err.Error(), nil)
		}
		return
	}
	rec.OutputDir = vmconfig.DefaultOutputDir
	run.ModelVersion = rec.ModelVersion
	run.Fingerprint = rec.Fingerprint()

	if err := rec.Validate(); err != nil {
		fail(http.StatusBadRequest, runlog.StatusInvalid, err.Error(), nil)
		return
	}

	grid, _ := rec.Grid()
	run.TotalPoints = grid.TotalPoints
	run.EstimatedSeconds = h.opts.Runtime.Estimate(grid.TotalPoints)
	if run.EstimatedSeconds > h.opts.MaxRuntimeSeconds {
		log.Info("refusing oversized request",
			zap.Int64("totalPoints", grid.TotalPoints),
			zap.Float64("estimatedSeconds", run.EstimatedSeconds),
		)
		fail(http.StatusUnprocessableEntity, runlog.StatusRefused, RefusalMessage(run.EstimatedSeconds, h.opts.MaxRuntimeSeconds), nil)
		return
	}

	tempDir, err := os.MkdirTemp("", "nzcvm-run-*")
	if err != nil {
		log.Error("create temp dir", zap.Error(err))
		fail(http.StatusInternalServerError, runlog.StatusFailed, "internal error", err)
		return
	}
	defer os.RemoveAll(tempDir)

	outDir := filepath.Join(tempDir, "nzcvm_output")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		log.Error("create output dir", zap.Error(err))
		fail(http.StatusInternalServerError, runlog.StatusFailed, "internal error", err)
		return
	}
	configPath, err := writeConfig(rec, tempDir)
	if err != nil {
		log.Error("write config", zap.Error(err))
		fail(http.StatusInternalServerError, runlog.StatusFailed, "internal error", err)
		return
	}

	log.Info("generator started",
		zap.String("modelVersion", rec.ModelVersion),
		zap.Int64("totalPoints", grid.TotalPoints),
		zap.Float64("estimatedSeconds", run.EstimatedSeconds),
	)
	if err := h.generate(ctx, run, configPath, outDir); err != nil {
		log.Error("generator failed", zap.Error(err))
		fail(http.StatusInternalServerError, runlog.StatusFailed, msgProcessFailed, err)
		return
	}

	empty, err := isEmptyDir(outDir)
	if err != nil || empty {
		log.Warn("output directory is empty after generation", zap.String("dir", outDir))
		fail(http.StatusInternalServerError, runlog.StatusFailed, msgNoOutput, err)
		return
	}

	// The archive carries the config that produced it.
	if _, err := writeConfig(rec, outDir); err != nil {
		log.Error("copy config into output", zap.Error(err))
		fail(http.StatusInternalServerError, runlog.StatusFailed, "internal error", err)
		return
	}

	zipPath := filepath.Join(tempDir, ArchiveFileName)
	if err := zipToFile(outDir, zipPath); err != nil {
		log.Error("zip output", zap.Error(err))
		fail(http.StatusInternalServerError, runlog.StatusFailed, fmt.Sprintf("Failed to zip output files: %v", err), err)
		return
	}

	archive, err := os.Open(zipPath)
	if err != nil {
		log.Error("open archive", zap.Error(err))
		fail(http.StatusInternalServerError, runlog.StatusFailed, "internal error", err)
		return
	}
	defer archive.Close()

	stat, err := archive.Stat()
	if err != nil {
		log.Error("stat archive", zap.Error(err))
		fail(http.StatusInternalServerError, runlog.StatusFailed, "internal error", err)
		return
	}

	run.Status = runlog.StatusSucceeded
	run.ArchiveBytes = stat.Size()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ArchiveFileName))
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	if _, err := io.Copy(w, archive); err != nil {
		log.Warn("stream archive", zap.Error(err))
	}

	log.Info("generator complete", zap.Int64("archiveBytes", stat.Size()))
}

func (h *Handler) generate(ctx context.Context, run runlog.Run, configPath, outDir string) error {
	ctx, cancel := context.WithTimeout(ctx, h.opts.Timeout)
	defer cancel()

	ctx, span := observability.Tracer().Start(ctx, "generator.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", run.ID),
		attribute.String("model.version", run.ModelVersion),
		attribute.Int64("grid.total_points", run.TotalPoints),
	)

	if err := h.runner.Generate(ctx, configPath, outDir); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generator failed")
		return err
	}
	return nil
}

func (h *Handler) record(ctx context.Context, run runlog.Run) {
	archive := int64(0)
	if run.Status == runlog.StatusSucceeded {
		archive = run.ArchiveBytes
	}
	duration := 0.0
	if run.Status == runlog.StatusSucceeded || run.Status == runlog.StatusFailed {
		duration = run.DurationSeconds
	}
	h.opts.Metrics.ObserveRun(string(run.Status), duration, archive)

	if h.opts.Store == nil {
		return
	}
	// The request context may already be cancelled.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.opts.Store.Add(storeCtx, run); err != nil {
		logging.From(ctx).Error("record run", zap.Error(err))
	}
}

func writeConfig(rec vmconfig.Record, dir string) (string, error) {
	path := filepath.Join(dir, ConfigFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := rec.WriteTo(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func zipToFile(dir, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ZipDir(dir, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
