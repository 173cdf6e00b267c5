package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/photoramax/photorama/internal/domain"
	"github.com/photoramax/photorama/internal/media/images"
)

func (s *Server) registerPhotoRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPhotos",
		Method:      http.MethodGet,
		Path:        "/v1/photos",
		Summary:     "List local photos",
		Description: "Returns every stored photo, oldest first. Does not contact the remote service.",
		Tags:        []string{"Photos"},
	}, s.handleListPhotos)

	huma.Register(s.api, huma.Operation{
		OperationID: "syncPhotos",
		Method:      http.MethodPost,
		Path:        "/v1/sync",
		Summary:     "Refresh from the remote listing",
		Description: "Fetches the remote listing, stores new photos and returns the listed photos in listing order",
		Tags:        []string{"Photos"},
	}, s.handleSync)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPhoto",
		Method:      http.MethodGet,
		Path:        "/v1/photos/{id}",
		Summary:     "Get photo",
		Tags:        []string{"Photos"},
	}, s.handleGetPhoto)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPhotoImage",
		Method:      http.MethodGet,
		Path:        "/v1/photos/{id}/image",
		Summary:     "Get photo image",
		Description: "Returns the image bytes, served from the local cache when present",
		Tags:        []string{"Photos"},
	}, s.handleGetPhotoImage)
}

// PhotoResponse contains photo data in API responses.
type PhotoResponse struct {
	ID        string    `json:"id" doc:"Remote photo identifier"`
	Title     string    `json:"title" doc:"Photo title, may be empty"`
	DateTaken time.Time `json:"date_taken" doc:"When the photo was taken"`
	RemoteURL string    `json:"remote_url" doc:"Image URL"`
	CreatedAt time.Time `json:"created_at" doc:"When the photo was first stored locally"`
}

// ListPhotosResponse contains a list of photos.
type ListPhotosResponse struct {
	Photos []PhotoResponse `json:"photos" doc:"Photos"`
	Total  int             `json:"total" doc:"Number of photos"`
}

// ListPhotosOutput wraps the photo list for Huma.
type ListPhotosOutput struct {
	Body ListPhotosResponse
}

// PhotoOutput wraps a single photo for Huma.
type PhotoOutput struct {
	Body PhotoResponse
}

// PhotoIDInput addresses one photo.
type PhotoIDInput struct {
	ID string `path:"id" doc:"Photo ID"`
}

// PhotoImageOutput is the raw image with its metadata as headers.
type PhotoImageOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Width        string `header:"X-Image-Width"`
	Height       string `header:"X-Image-Height"`
	BlurHash     string `header:"X-BlurHash"`
	Body         []byte
}

func toPhotoResponse(p *domain.Photo) PhotoResponse {
	return PhotoResponse{
		ID:        p.ID,
		Title:     p.Title,
		DateTaken: p.DateTaken,
		RemoteURL: p.RemoteURL,
		CreatedAt: p.CreatedAt,
	}
}

func toListPhotosOutput(photos []*domain.Photo) *ListPhotosOutput {
	resp := make([]PhotoResponse, len(photos))
	for i, p := range photos {
		resp[i] = toPhotoResponse(p)
	}
	return &ListPhotosOutput{Body: ListPhotosResponse{Photos: resp, Total: len(resp)}}
}

func (s *Server) handleListPhotos(ctx context.Context, _ *struct{}) (*ListPhotosOutput, error) {
	photos, err := s.photos.LocalPhotos(ctx)
	if err != nil {
		return nil, err
	}
	return toListPhotosOutput(photos), nil
}

func (s *Server) handleSync(ctx context.Context, _ *struct{}) (*ListPhotosOutput, error) {
	photos, err := awaitDelivery(ctx, s.photos.RefreshListing)
	if err != nil {
		s.logger.Warn("sync failed", "error", err)
		return nil, err
	}
	return toListPhotosOutput(photos), nil
}

func (s *Server) handleGetPhoto(ctx context.Context, input *PhotoIDInput) (*PhotoOutput, error) {
	p, err := s.photos.Photo(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PhotoOutput{Body: toPhotoResponse(p)}, nil
}

func (s *Server) handleGetPhotoImage(ctx context.Context, input *PhotoIDInput) (*PhotoImageOutput, error) {
	p, err := s.photos.Photo(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	img, err := awaitDelivery(ctx, func(cb func(*images.Image, error)) {
		s.photos.FetchImage(p, cb)
	})
	if err != nil {
		return nil, err
	}

	return &PhotoImageOutput{
		ContentType:  "image/" + img.Format,
		CacheControl: "private, max-age=86400",
		Width:        strconv.Itoa(img.Width),
		Height:       strconv.Itoa(img.Height),
		BlurHash:     img.BlurHash,
		Body:         img.Data,
	}, nil
}
