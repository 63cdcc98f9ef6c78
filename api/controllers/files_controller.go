package controllers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/qrdrop/envelope"
	"github.com/moyoez/qrdrop/optical"
	"github.com/moyoez/qrdrop/store"
	"github.com/moyoez/qrdrop/tool"
	"github.com/moyoez/qrdrop/types"
)

const maxUploadSize = 32 << 20

type FilesController struct {
	store    *store.Store
	renderer *optical.Renderer
}

func NewFilesController(st *store.Store, renderer *optical.Renderer) *FilesController {
	return &FilesController{store: st, renderer: renderer}
}

// FileItem is a FileRecord with display helpers.
type FileItem struct {
	Category     types.Category `json:"category"`
	Name         string         `json:"name"`
	SizeBytes    int64          `json:"sizeBytes"`
	Size         string         `json:"size"`
	LastModified time.Time      `json:"lastModified"`
	IsPDF        bool           `json:"isPdf"`
	IsImage      bool           `json:"isImage"`
}

func newFileItem(rec types.FileRecord) FileItem {
	return FileItem{
		Category:     rec.Category,
		Name:         rec.Name,
		SizeBytes:    rec.SizeBytes,
		Size:         store.ReadableSize(rec.SizeBytes),
		LastModified: rec.LastModified,
		IsPDF:        store.IsPDF(rec.Name),
		IsImage:      store.IsImage(rec.Name),
	}
}

func categoryParam(c *gin.Context, value string) (types.Category, bool) {
	category, err := types.ParseCategory(value)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnKindError("Unknown category", types.KindUnknownCategory.String()))
		return "", false
	}
	return category, true
}

func nameParam(c *gin.Context) (string, bool) {
	name := c.Param("name")
	if !store.ValidName(name) {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid file name"))
		return "", false
	}
	return name, true
}

// HandleList handles GET /files?category=C. Without a category every file is listed.
func (ctrl *FilesController) HandleList(c *gin.Context) {
	var (
		records []types.FileRecord
		err     error
	)
	if value := c.Query("category"); value != "" {
		category, ok := categoryParam(c, value)
		if !ok {
			return
		}
		records, err = ctrl.store.List(category)
	} else {
		records, err = ctrl.store.ListAll()
	}
	if err != nil {
		tool.DefaultLogger.Errorf("[API] Failed to load files: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to load files"))
		return
	}

	items := make([]FileItem, 0, len(records))
	for _, rec := range records {
		items = append(items, newFileItem(rec))
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// HandleUpload handles POST /files/:category?name=N with the raw file as body.
// The file is stored under a generated name.
func (ctrl *FilesController) HandleUpload(c *gin.Context) {
	category, ok := categoryParam(c, c.Param("category"))
	if !ok {
		return
	}
	name := c.Query("name")
	if name == "" {
		name = "unknown_file"
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	rec, err := ctrl.store.Import(body, category, name)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, tool.FastReturnError("File too large"))
			return
		}
		tool.DefaultLogger.Errorf("[API] Failed to save file: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnKindError(types.UserMessage(err), types.KindOf(err).String()))
		return
	}
	tool.DefaultLogger.Infof("[API] Saved %s as %s/%s", name, category.Dir(), rec.Name)
	c.JSON(http.StatusCreated, gin.H{"data": newFileItem(rec)})
}

// HandleDelete handles DELETE /files/:category/:name.
func (ctrl *FilesController) HandleDelete(c *gin.Context) {
	category, ok := categoryParam(c, c.Param("category"))
	if !ok {
		return
	}
	name, ok := nameParam(c)
	if !ok {
		return
	}

	deleted, err := ctrl.store.Delete(types.FileRecord{Category: category, Name: name})
	if err != nil {
		tool.DefaultLogger.Errorf("[API] Error deleting file: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to delete file"))
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, tool.FastReturnError("File not found"))
		return
	}
	c.Status(http.StatusOK)
}

// HandleQRCode handles GET /files/:category/:name/qr and returns a PNG.
func (ctrl *FilesController) HandleQRCode(c *gin.Context) {
	category, ok := categoryParam(c, c.Param("category"))
	if !ok {
		return
	}
	name, ok := nameParam(c)
	if !ok {
		return
	}

	rec, err := ctrl.store.Lookup(category, name)
	if errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusNotFound, tool.FastReturnError("File not found"))
		return
	}
	if err == nil && rec.SizeBytes > int64(ctrl.renderer.Capacity()) {
		// cannot fit even before encoding overhead
		err = types.ErrPayloadTooLarge
	}

	var png []byte
	if err == nil {
		png, err = ctrl.render(rec)
	}
	switch {
	case err == nil:
		c.Data(http.StatusOK, "image/png", png)
	case errors.Is(err, types.ErrPayloadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, tool.FastReturnKindError(types.UserMessage(err), types.KindPayloadTooLarge.String()))
	default:
		tool.DefaultLogger.Errorf("[API] Failed to generate QR code: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to generate QR code"))
	}
}

func (ctrl *FilesController) render(rec types.FileRecord) ([]byte, error) {
	f, err := ctrl.store.Open(rec)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	env, err := envelope.Build(data, rec.Name, rec.Category)
	if err != nil {
		return nil, err
	}
	return ctrl.renderer.PNG(env)
}
