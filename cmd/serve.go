package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andes-hr/asistencia-cli/internal/config"
	"github.com/andes-hr/asistencia-cli/internal/export"
	"github.com/andes-hr/asistencia-cli/internal/pipeline"
	"github.com/andes-hr/asistencia-cli/internal/store"
)

// maxUploadBytes bounds one multipart report request. The HR exports are a
// few MB each.
const maxUploadBytes = 64 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report upload server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(cfg, st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the HTTP surface: a health probe and the synchronous
// report endpoint that accepts the same workbooks as `run`.
func newRouter(cfg *config.Config, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Post("/v1/report", reportHandler(cfg, st))

	return r
}

// reportHandler runs the pipeline on the uploaded workbooks and streams the
// report workbook back. Fields codification, roster, and attendance are
// required; detail, manual, and classified are optional.
func reportHandler(cfg *config.Config, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
		if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
			httpError(w, http.StatusBadRequest, "invalid multipart request")
			return
		}

		dir, err := os.MkdirTemp("", "asistencia-upload-*")
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to stage uploads")
			return
		}
		defer os.RemoveAll(dir)

		var in pipeline.Inputs
		fields := map[string]*string{
			"codification": &in.Codification,
			"roster":       &in.Roster,
			"attendance":   &in.Attendance,
			"detail":       &in.Detail,
			"manual":       &in.Manual,
			"classified":   &in.Classified,
		}
		for field, dst := range fields {
			path, err := saveUpload(req, dir, field)
			if err != nil {
				httpError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload %q", field))
				return
			}
			*dst = path
		}
		if in.Codification == "" || in.Roster == "" || in.Attendance == "" {
			httpError(w, http.StatusBadRequest, "codification, roster, and attendance files are required")
			return
		}

		result, err := pipeline.New(cfg, st).Run(req.Context(), in)
		if err != nil {
			zap.L().Error("report request failed", zap.Error(err))
			httpError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		buf, err := export.New(cfg.Pipeline.Labels).WriteBuffer(result)
		if err != nil {
			zap.L().Error("report render failed", zap.Error(err))
			httpError(w, http.StatusInternalServerError, "failed to render report")
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="reporte_asistencia.xlsx"`)
		if result.RunID != "" {
			w.Header().Set("X-Run-ID", result.RunID)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// saveUpload stages one multipart file field into dir. Missing fields return
// an empty path with no error.
func saveUpload(req *http.Request, dir, field string) (string, error) {
	file, header, err := req.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	path := filepath.Join(dir, field+".xlsx")
	if err := writeUpload(path, file); err != nil {
		return "", err
	}
	zap.L().Debug("upload staged",
		zap.String("field", field),
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size),
	)
	return path, nil
}

func writeUpload(path string, src multipart.File) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
