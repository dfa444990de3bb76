package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tablescan/pkg/config"
	"tablescan/pkg/manifest"
	"tablescan/pkg/pipeline"
	"tablescan/pkg/table"
)

// accepted upload types; only images are processed
var storedExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".mp4": true, ".avi": true, ".mov": true, ".txt": true, ".pdf": true,
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

type server struct {
	cfg  *config.Config
	proc *pipeline.Processor
	log  logrus.FieldLogger
}

func newServer(cfg *config.Config, proc *pipeline.Processor, log logrus.FieldLogger) *server {
	return &server{cfg: cfg, proc: proc, log: log}
}

func setupRoutes(r *gin.Engine, s *server) error {
	tpl, err := loadTemplates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tpl)
	r.Use(requestIDMiddleware(s.log))

	r.GET("/python/", s.uploadFormHandler)
	r.POST("/python/", s.uploadFileHandler)
	r.POST("/python/upload_base64", s.uploadBase64Handler)
	r.GET("/python/files", s.listFilesHandler)
	r.GET("/python/view_table", s.viewTableHandler)

	api := r.Group("/api")
	api.POST("/detect", s.detectHandler)
	api.POST("/process", s.processHandler)
	api.POST("/rotate", s.rotateHandler)
	api.POST("/draw", s.drawHandler)
	api.GET("/manifest/:hash", s.manifestHandler)

	r.Static("/opencv", s.cfg.UploadRoot)
	return nil
}

// requestIDMiddleware tags every request with an id, echoed in X-Request-ID
// and attached to a request-scoped logger.
func requestIDMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("log", log.WithField("request_id", id))
		c.Next()
	}
}

func requestLog(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get("log"); ok {
		if l, ok := v.(logrus.FieldLogger); ok {
			return l
		}
	}
	return logrus.StandardLogger()
}

// errStatus maps pipeline errors onto HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, table.ErrDecode), errors.Is(err, table.ErrUnsupportedAngle):
		return http.StatusBadRequest
	case errors.Is(err, table.ErrDetection), errors.Is(err, table.ErrGeometry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, manifest.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *server) abortWithError(c *gin.Context, err error) {
	status := errStatus(err)
	if status == http.StatusInternalServerError {
		requestLog(c).WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// readImagePayload returns the "file" part of a multipart request or the raw
// request body.
func (s *server) readImagePayload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("%w: file missing", table.ErrDecode)
		}
		if file.Size > s.cfg.MaxUploadBytes {
			return nil, fmt.Errorf("%w: file too large (max %d bytes)", table.ErrDecode, s.cfg.MaxUploadBytes)
		}
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: body too large (max %d bytes)", table.ErrDecode, s.cfg.MaxUploadBytes)
	}
	return data, nil
}

// saveUpload stores data as <md5><ext> in the upload root.
func (s *server) saveUpload(data []byte, ext string) (string, error) {
	name := manifest.ContentHash(data) + ext
	if err := os.MkdirAll(s.cfg.UploadRoot, 0o755); err != nil {
		return "", fmt.Errorf("mkdir failed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.cfg.UploadRoot, name), data, 0o644); err != nil {
		return "", fmt.Errorf("save failed: %w", err)
	}
	return name, nil
}

func (s *server) uploadFormHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "upload.html", nil)
}

// uploadFileHandler stores a multipart upload under its MD5 and, for
// images, runs the pipeline with the configured grid.
func (s *server) uploadFileHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, "No file part")
		return
	}
	if file.Filename == "" {
		c.String(http.StatusBadRequest, "No selected file")
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !storedExts[ext] {
		c.String(http.StatusBadRequest, "file type not allowed")
		return
	}
	if file.Size > s.cfg.MaxUploadBytes {
		c.String(http.StatusBadRequest, "file too large")
		return
	}
	f, err := file.Open()
	if err != nil {
		c.String(http.StatusInternalServerError, "read failed")
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		c.String(http.StatusInternalServerError, "read failed")
		return
	}
	name, err := s.saveUpload(data, ext)
	if err != nil {
		requestLog(c).WithError(err).Error("save upload")
		c.String(http.StatusInternalServerError, "save failed")
		return
	}

	view := uploadedView{Original: file.Filename, Saved: name}
	status := http.StatusOK
	if imageExts[ext] {
		m, err := s.proc.Process(c.Request.Context(), data)
		if err != nil {
			status = errStatus(err)
			view.Error = err.Error()
		} else {
			view.Hash = m.MD5
			view.Cells = len(m.Cells)
		}
	}
	c.HTML(status, "uploaded.html", view)
}

type base64Request struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
	Filename    string `json:"filename"`
}

// uploadBase64Handler accepts {"image_base64": ..., "filename": ...}.
func (s *server) uploadBase64Handler(c *gin.Context) {
	var req base64Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	payload := req.ImageBase64
	if i := strings.Index(payload, ";base64,"); i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid base64 payload"})
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !imageExts[ext] {
		ext = ".jpeg"
	}
	name, err := s.saveUpload(data, ext)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	m, err := s.proc.Process(c.Request.Context(), data)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"md5": m.MD5, "filename": name, "manifest": m})
}

type fileEntry struct {
	Name    string
	Hash    string
	ModTime time.Time
}

// listUploads returns the stored images, newest first.
func listUploads(root string) ([]fileEntry, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []fileEntry
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !imageExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, fileEntry{Name: name, Hash: strings.TrimSuffix(name, filepath.Ext(name)), ModTime: info.ModTime()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

func (s *server) listFilesHandler(c *gin.Context) {
	files, err := listUploads(s.cfg.UploadRoot)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		c.String(http.StatusInternalServerError, "Error reading directory: %v", err)
		return
	}
	c.HTML(http.StatusOK, "files.html", gin.H{"Files": files})
}

// viewTableHandler renders a processed table from its cells.json.
func (s *server) viewTableHandler(c *gin.Context) {
	key := c.Query("file")
	if key == "" {
		c.String(http.StatusBadRequest, "Error: No file specified")
		return
	}
	m, err := s.proc.Store().Load(key)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			c.String(http.StatusNotFound, "Error: cells.json not found")
			return
		}
		requestLog(c).WithError(err).Error("load manifest")
		c.String(http.StatusInternalServerError, "Error: unreadable cells.json")
		return
	}
	_, cols := m.Shape()
	c.HTML(http.StatusOK, "view_table.html", tableView{Hash: key, Columns: cols, Header: m.Header, Grid: m.Grid()})
}

func (s *server) manifestHandler(c *gin.Context) {
	m, err := s.proc.Store().Load(c.Param("hash"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func cornerPairs(q table.Quad) [][2]int {
	out := make([][2]int, 4)
	for i, p := range q {
		out[i] = [2]int{p.X, p.Y}
	}
	return out
}

// detectHandler returns the table corners of the posted image.
func (s *server) detectHandler(c *gin.Context) {
	data, err := s.readImagePayload(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	q, err := s.proc.DetectBoundary(data)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"corners": cornerPairs(q), "coords": q.Flatten()})
}

// processHandler runs the pipeline. Optional query parameters: coords
// (eight integers) to skip detection, rows/cols for a uniform grid, and
// ratios ("0.5;0.25,0.75", one group per row) for a ratio grid.
func (s *server) processHandler(c *gin.Context) {
	spec, err := gridFromQuery(c, s.cfg.Grid)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	data, err := s.readImagePayload(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	if raw := c.Query("coords"); raw != "" {
		q, err := parseCoords(raw)
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		m, err := s.proc.RectifyAndPartition(ctx, data, q, spec)
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
		return
	}
	m, err := s.proc.ProcessWithGrid(ctx, data, spec)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *server) rotateHandler(c *gin.Context) {
	angle, err := strconv.Atoi(c.DefaultQuery("angle", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "angle must be one of 0, 90, 180, 270"})
		return
	}
	data, err := s.readImagePayload(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	img, err := table.Decode(data)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out, err := table.Rotate(img, angle)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.writeJPEG(c, out)
}

func (s *server) drawHandler(c *gin.Context) {
	q, err := parseCoords(c.Query("coords"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	data, err := s.readImagePayload(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	img, err := table.Decode(data)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	s.writeJPEG(c, table.DrawQuad(img, q, table.BoundaryColor, 3))
}

func (s *server) writeJPEG(c *gin.Context, img *image.NRGBA) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.cfg.JPEGQuality)); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}

// parseCoords reads "x1,y1,...,x4,y4".
func parseCoords(raw string) (table.Quad, error) {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	coords := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return table.Quad{}, fmt.Errorf("%w: coordinate %q is not an integer", table.ErrGeometry, p)
		}
		coords = append(coords, v)
	}
	return table.QuadFromCoords(coords)
}

func gridFromQuery(c *gin.Context, def table.GridSpec) (table.GridSpec, error) {
	spec := def
	if raw := c.Query("ratios"); raw != "" {
		rows := strings.Split(raw, ";")
		spec = table.GridSpec{Rows: len(rows), Ratios: make([][]float64, len(rows))}
		for r, row := range rows {
			spec.Ratios[r] = []float64{}
			for _, f := range strings.FieldsFunc(row, func(r rune) bool { return r == ',' }) {
				v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
				if err != nil {
					return spec, fmt.Errorf("%w: ratio %q", table.ErrGeometry, f)
				}
				spec.Ratios[r] = append(spec.Ratios[r], v)
			}
		}
		return spec, spec.Validate()
	}
	for key, dst := range map[string]*int{"rows": &spec.Rows, "cols": &spec.Columns} {
		if raw := c.Query(key); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return spec, fmt.Errorf("%w: %s=%q", table.ErrGeometry, key, raw)
			}
			*dst = v
		}
	}
	if c.Query("rows") != "" || c.Query("cols") != "" {
		spec.Ratios = nil
	}
	return spec, spec.Validate()
}
