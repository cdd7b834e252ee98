package transport

import (
	"net/http"

	"catalog-admin/internal/middleware"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductImageResponse represents one image row in the gallery view
type ProductImageResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Alt       string    `json:"alt"`
	IsMain    bool      `json:"isMain"`
	ProductID uuid.UUID `json:"productId"`
}

// UploadResponse carries the public URLs returned by the image service
type UploadResponse struct {
	URLs []string `json:"urls"`
}

// ImageHandler handles HTTP requests for the product image gallery and for
// proxied uploads to the external image service.
type ImageHandler struct {
	imageRepo repository.ImageRepository
	uploader  upload.Uploader
	logger    *zap.Logger
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(imageRepo repository.ImageRepository, uploader upload.Uploader, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		imageRepo: imageRepo,
		uploader:  uploader,
		logger:    logger,
	}
}

// RegisterRoutes registers all product image routes
func (h *ImageHandler) RegisterRoutes(r chi.Router) {
	r.Route("/product-images", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Upload)
	})
}

// List handles GET /product-images with an optional ?query= filter
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	images, err := h.imageRepo.List(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.logger.Error("Failed to list product images", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list product images")
		return
	}

	response := make([]ProductImageResponse, 0, len(images))
	for _, image := range images {
		response = append(response, ProductImageResponse{
			ID:        image.ID,
			URL:       image.URL,
			Alt:       image.Alt,
			IsMain:    image.IsMain,
			ProductID: image.ProductID,
		})
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// maxUploadBytes caps a whole multipart submission at 32 MiB
const maxUploadBytes = 32 << 20

// Upload handles POST /product-images. All files in the multipart form are
// pushed to the image service concurrently; if any upload fails the whole
// submission fails and no URL is returned.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	files := make([]upload.File, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		defer file.Close()
		files = append(files, upload.File{Name: header.Filename, Reader: file})
	}

	urls, err := upload.UploadAll(r.Context(), h.uploader, files)
	if err != nil {
		h.logger.Error("Image upload failed", zap.Error(err), zap.Int("files", len(files)))
		middleware.RespondWithError(w, http.StatusBadGateway, "image upload failed")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, UploadResponse{URLs: urls})
}
